package isa

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rot127/rz-hexagon/catalog"
	"github.com/Rot127/rz-hexagon/config"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		desc catalog.Instruction
		want Kind
	}{
		{catalog.Instruction{Name: "A2_nop", Encoding: "0111111100000000xx00000000000000", Type: "TypeALU32_2op"}, KindNormal},
		{catalog.Instruction{Name: "SA1_inc", Encoding: "0001000000000", Type: "TypeSUBINSN"}, KindSub},
		{catalog.Instruction{Name: "PS_call_nr", Type: "TypeJ", IsPseudo: true}, KindPseudo},
		{catalog.Instruction{Name: "PS_false", Encoding: "0000", IsPseudo: true}, KindPseudo},
		{catalog.Instruction{Name: "A2_bad", Type: "TypeALU32_2op"}, KindInvalid},
		{catalog.Instruction{Encoding: "0000"}, KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.desc.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&tt.desc, "TypeSUBINSN"))
		})
	}
}

var registryDescs = []catalog.Instruction{
	{
		Name:     "A2_add",
		Syntax:   "Rd32 = add(Rs32,Rt32)",
		Encoding: "11110011000aaaaabb0ccccc000ddddd",
		Operands: []catalog.Operand{
			{Name: "Rd32", Type: "IntRegs", Letters: "d"},
			{Name: "Rs32", Type: "IntRegs", Letters: "a"},
			{Name: "Rt32", Type: "IntRegs", Letters: "c"},
			{Name: "Parse", Letters: "b"},
		},
		Type:       "TypeALU32_3op",
		Predicates: []string{"HasV5", "HasV65"},
	},
	{Name: "PS_call_nr", Syntax: "call $Ii", Type: "TypeJ", IsPseudo: true},
	{
		Name:     "SA1_addi",
		Syntax:   "Rx16 = add(Rx16in,#Ii)",
		Encoding: "00aaaaaaabbbb",
		Operands: []catalog.Operand{
			{Name: "Rx16", Type: "GeneralSubRegs", Letters: "b"},
			{Name: "Rx16in", Type: "GeneralSubRegs"},
			{Name: "Ii", Type: "s7_0Imm", Letters: "a"},
		},
		Type:     "TypeSUBINSN",
		SubClass: "A",
	},
	{Name: "A2_broken", Syntax: "broken", Type: "TypeALU32_3op"},
	{
		Name:     "J2_jump",
		Syntax:   "jump $Ii",
		Encoding: "0101100aaaaaaaaabbccccccccccccc0",
		Operands: []catalog.Operand{
			{Name: "Ii", Type: "b30_2Imm", Letters: "ac"},
			{Name: "Parse", Letters: "b"},
		},
		Type: "TypeJ",
	},
}

func TestNewRegistry(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	r, err := NewRegistry(registryDescs, config.Default(), log)
	require.NoError(t, err)

	var normal []string
	for _, insn := range r.Normal() {
		normal = append(normal, insn.Name)
	}
	assert.Equal(t, []string{"A2_add", "J2_jump"}, normal)
	require.Len(t, r.Sub(), 1)
	assert.Equal(t, "A", r.Sub()[0].SubClass)
	assert.Empty(t, r.Duplex())

	add, ok := r.Instruction("A2_add")
	require.True(t, ok)
	assert.Equal(t, uint8(0xf), add.Class)
	assert.Equal(t, "HEX_INS_A2_ADD", add.EnumName())
	assert.Equal(t, "V5, V65", add.Versions.String())
	assert.Equal(t, []Operand{
		{Name: "Rd32", Type: "IntRegs"},
		{Name: "Rs32", Type: "IntRegs"},
		{Name: "Rt32", Type: "IntRegs"},
		{Name: "Parse"},
	}, add.Operands)

	_, ok = r.Instruction("PS_call_nr")
	assert.False(t, ok, "pseudo instructions are skipped")
	_, ok = r.KindOf("A2_broken")
	assert.False(t, ok, "invalid descriptors are skipped")
	kind, ok := r.KindOf("SA1_addi")
	assert.True(t, ok)
	assert.Equal(t, KindSub, kind)

	jumps := r.ByClass(0x5)
	require.Len(t, jumps, 1)
	assert.Equal(t, "J2_jump", jumps[0].Name)

	var warned []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = append(warned, e.Data["name"].(string))
		}
	}
	assert.Equal(t, []string{"A2_broken"}, warned)
	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "Parsed instructions", last.Message)
	assert.Equal(t, 1, last.Data["pseudo"])
}

func TestNewRegistryErrors(t *testing.T) {
	tests := []struct {
		name  string
		descs []catalog.Instruction
		kind  error
	}{
		{
			name: "duplicate name",
			descs: []catalog.Instruction{
				{Name: "SA1_x", Encoding: "0000000000000", Type: "TypeSUBINSN", SubClass: "A"},
				{Name: "SA1_x", Encoding: "0000000000001", Type: "TypeSUBINSN", SubClass: "A"},
			},
			kind: ErrDuplicateDefinition,
		},
		{
			name: "sub-instruction without sub-class",
			descs: []catalog.Instruction{
				{Name: "SA1_x", Encoding: "0000000000000", Type: "TypeSUBINSN"},
			},
			kind: ErrMalformedEncoding,
		},
		{
			name: "operand bits in the opcode class",
			descs: []catalog.Instruction{
				{
					Name:     "X_odd",
					Encoding: "aaaa0000000000000000000000000000",
					Operands: []catalog.Operand{{Name: "Rs", Letters: "a"}},
				},
			},
			kind: ErrMalformedEncoding,
		},
		{
			name: "letter bound twice",
			descs: []catalog.Instruction{
				{
					Name:     "X_twice",
					Encoding: "0000aaaa000000000000000000000000",
					Operands: []catalog.Operand{{Name: "Rs", Letters: "a"}, {Name: "Rt", Letters: "a"}},
				},
			},
			kind: ErrMalformedEncoding,
		},
		{
			name: "template of the wrong width",
			descs: []catalog.Instruction{
				{Name: "X_short", Encoding: "0000"},
			},
			kind: ErrMalformedEncoding,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			_, err := NewRegistry(tt.descs, config.Default(), log)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.descs[len(tt.descs)-1].Name, e.Name)
		})
	}
}
