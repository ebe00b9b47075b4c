package isa

import (
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rot127/rz-hexagon/catalog"
	"github.com/Rot127/rz-hexagon/config"
)

func testModel(t *testing.T) *Model {
	t.Helper()
	log, _ := test.NewNullLogger()
	regs, err := NewRegisterCatalog(testRegisterCatalog(), config.Default().Registers, log)
	require.NoError(t, err)
	return &Model{
		Registry: &Registry{
			normal: []*Instruction{{Name: "A2_nop", Syntax: "nop"}},
			sub:    []*SubInstruction{{Name: "SA1_inc", Syntax: "Rd16 = add(Rs16,#1)"}},
			duplex: []*DuplexInstruction{{Name: "X2_AUTOJOIN_SA1_inc_SA1_dec", Syntax: "Rd16 = add(Rs16,#1); Rd16 = add(Rs16,#-1)"}},
		},
		Registers: regs,
		CallingConvention: CallingConvention{
			GPRArgs:     []string{"R0", "R1", "D0"},
			GPRRet:      []string{"R0"},
			CalleeSaved: []string{"R2", "R3"},
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(testModel(t), config.Default().Validation))
}

func TestValidateSyntaxLength(t *testing.T) {
	cfg := config.Default().Validation

	m := testModel(t)
	m.Registry.normal[0].Syntax = strings.Repeat("x", 127)
	assert.NoError(t, Validate(m, cfg), "127 bytes and the NUL fit")

	m.Registry.normal[0].Syntax = strings.Repeat("x", 128)
	err := Validate(m, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntaxTooLong))
	assert.Contains(t, err.Error(), "A2_nop")
	assert.Contains(t, err.Error(), "129 bytes")

	m = testModel(t)
	m.Registry.duplex[0].Syntax = strings.Repeat("y", 200)
	err = Validate(m, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntaxTooLong))
	assert.Contains(t, err.Error(), "X2_AUTOJOIN_SA1_inc_SA1_dec")
}

func TestValidateUniqueNames(t *testing.T) {
	m := testModel(t)
	m.Registry.duplex[0].Name = "A2_nop"

	err := Validate(m, config.Default().Validation)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateDefinition))
	assert.Contains(t, err.Error(), "normal and a duplex")
}

func TestValidateCallingConventionRegisters(t *testing.T) {
	m := testModel(t)
	m.CallingConvention.EXTArgs = []string{"V0"}

	err := Validate(m, config.Default().Validation)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedReference))
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "V0", e.Name)
	assert.Contains(t, e.Err, "EXT_args")
}

func TestValidateDuplexSyntaxFromBuild(t *testing.T) {
	long := strings.Repeat("z", 70)
	cat := &catalog.Catalog{
		Instructions: []catalog.Instruction{
			{Name: "SA1_one", Syntax: long, Encoding: "0000000000001", Type: "TypeSUBINSN", SubClass: "A"},
			{Name: "SA1_two", Syntax: "two", Encoding: "0000000000000", Type: "TypeSUBINSN", SubClass: "A"},
		},
	}
	log, _ := test.NewNullLogger()

	_, err := Build(cat, config.Default(), Options{Log: log})
	require.NoError(t, err, "a 76 byte duplex syntax fits")

	cat.Instructions[1].Syntax = long
	_, err = Build(cat, config.Default(), Options{Log: log})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntaxTooLong))
	assert.Contains(t, err.Error(), "X2_AUTOJOIN_SA1_two_SA1_one")
}
