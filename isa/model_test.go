package isa

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rot127/rz-hexagon/catalog"
	"github.com/Rot127/rz-hexagon/config"
)

func loadFixture(t *testing.T) *catalog.Catalog {
	t.Helper()
	cfg := config.Default()
	cat, err := catalog.Load("../catalog/testdata/hexagon_mini.json", catalog.Options{
		WordWidth: cfg.Encoding.WordWidth,
		SubWidth:  cfg.Encoding.SubWidth,
		SubType:   cfg.Encoding.SubType,
	})
	require.NoError(t, err)
	return cat
}

func TestBuild(t *testing.T) {
	log, _ := test.NewNullLogger()
	m, err := Build(loadFixture(t), nil, Options{Log: log})
	require.NoError(t, err)

	var normal []string
	for _, insn := range m.Registry.Normal() {
		normal = append(normal, insn.Name)
	}
	assert.Equal(t, []string{"A2_add", "J2_jump"}, normal)

	var sub []string
	for _, s := range m.Registry.Sub() {
		sub = append(sub, s.Name)
	}
	assert.Equal(t, []string{"SA1_addi", "SL2_jumpr31"}, sub)

	require.Len(t, m.Registry.Duplex(), 1)
	d, ok := m.Registry.DuplexInstruction("X2_AUTOJOIN_SA1_addi_SL2_jumpr31")
	require.True(t, ok)
	assert.Equal(t, DuplexClass(0x5), d.Class)
	kind, ok := m.Registry.KindOf(d.Name)
	assert.True(t, ok)
	assert.Equal(t, KindDuplex, kind)
	assert.Equal(t, 1, m.DuplexStats.Accepted)

	jump, ok := m.Registry.Instruction("J2_jump")
	require.True(t, ok)
	assert.True(t, jump.Versions.Has(65))
	assert.Equal(t, ArchVersion(5), jump.Versions.Min())

	for _, name := range []string{"VectRegRev", "UsrBits", "V62Regs", "V65Regs"} {
		_, ok := m.Registers.Class(name)
		assert.False(t, ok, "%s is excluded", name)
	}
	_, ok = m.Registers.Lookup("C8")
	assert.False(t, ok)
	doubles, ok := m.Registers.Class("DoubleRegs")
	require.True(t, ok)
	assert.Equal(t, uint(64), doubles.Size)

	assert.Equal(t, []string{"R0", "R1", "D0"}, m.CallingConvention.GPRArgs)
	assert.Equal(t, []string{"V0", "W0"}, m.CallingConvention.EXTRet)
	assert.Equal(t, []string{"R2", "R3"}, m.CallingConvention.CalleeSaved)
}

func TestBuildUnresolvedCalleeSaved(t *testing.T) {
	cat := loadFixture(t)
	cat.CalleeSaved = append(cat.CalleeSaved, catalog.Member{Def: "R29"})

	log, _ := test.NewNullLogger()
	_, err := Build(cat, nil, Options{Log: log})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedReference))
	assert.Contains(t, err.Error(), "R29")
}

func TestBuildDuplicateAcrossKinds(t *testing.T) {
	cat := loadFixture(t)
	cat.Instructions = append(cat.Instructions, catalog.Instruction{
		Name:     "X2_AUTOJOIN_SA1_addi_SL2_jumpr31",
		Syntax:   "impostor",
		Encoding: "0110" + "0000000000000000000000000000",
	})

	log, _ := test.NewNullLogger()
	_, err := Build(cat, nil, Options{Log: log})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateDefinition))
}

func TestBuildRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Encoding.SubWidth = 40

	log, _ := test.NewNullLogger()
	_, err := Build(&catalog.Catalog{}, cfg, Options{Log: log})
	assert.Error(t, err)
}
