package isa

import (
	"github.com/Rot127/rz-hexagon/catalog"
	"github.com/Rot127/rz-hexagon/config"
)

type Operand struct {
	Name string
	Type string
}

// Instruction is a normal, full width instruction. It is not modified
// after the registry built it.
type Instruction struct {
	Name     string
	Syntax   string
	Encoding Encoding

	// Class is the opcode class, taken from the fixed high bits of the
	// encoding.
	Class    uint8
	Operands []Operand
	Versions Versions
}

func (i *Instruction) EnumName() string {
	return InstructionEnumPrefix + makeIdentUpper(i.Name)
}

// SubInstruction is a compressed instruction that only ever appears as one
// half of a duplex.
type SubInstruction struct {
	Name     string
	Syntax   string
	Encoding Encoding
	SubClass string
	Operands []Operand
}

// operandLetters binds every template letter of desc to its operand.
func operandLetters(desc *catalog.Instruction) (map[byte]string, error) {
	ret := make(map[byte]string)
	for _, op := range desc.Operands {
		for i := 0; i < len(op.Letters); i++ {
			c := op.Letters[i]
			if prev, ok := ret[c]; ok {
				return nil, errorf(ErrMalformedEncoding, desc.Name, "letter %q bound to both %s and %s", c, prev, op.Name)
			}
			ret[c] = op.Name
		}
	}
	return ret, nil
}

func operands(desc *catalog.Instruction) []Operand {
	if len(desc.Operands) == 0 {
		return nil
	}
	ret := make([]Operand, len(desc.Operands))
	for i, op := range desc.Operands {
		ret[i] = Operand{Name: op.Name, Type: op.Type}
	}
	return ret
}

func parseDescriptor(desc *catalog.Instruction, width uint) (Encoding, error) {
	letters, err := operandLetters(desc)
	if err != nil {
		return Encoding{}, err
	}
	enc, err := ParseEncoding(desc.Encoding, width, letters)
	if err != nil {
		return Encoding{}, withName(err, desc.Name)
	}
	return enc, nil
}

func newInstruction(desc *catalog.Instruction, width uint, class config.BitRange) (*Instruction, error) {
	enc, err := parseDescriptor(desc, width)
	if err != nil {
		return nil, err
	}
	cls, ok := enc.Bits(class.Hi, class.Lo)
	if !ok {
		return nil, errorf(ErrMalformedEncoding, desc.Name, "opcode class bits %d..%d are not fixed", class.Hi, class.Lo)
	}

	insn := &Instruction{
		Name:     desc.Name,
		Syntax:   desc.Syntax,
		Encoding: enc,
		Class:    uint8(cls),
		Operands: operands(desc),
		Versions: make(Versions),
	}
	for _, pred := range desc.Predicates {
		if v, ok := ParseArchVersion(pred); ok {
			insn.Versions.Add(v)
		}
	}
	return insn, nil
}

func newSubInstruction(desc *catalog.Instruction, width uint) (*SubInstruction, error) {
	if desc.SubClass == "" {
		return nil, errorf(ErrMalformedEncoding, desc.Name, "sub-instruction without a sub-class")
	}
	enc, err := parseDescriptor(desc, width)
	if err != nil {
		return nil, err
	}
	return &SubInstruction{
		Name:     desc.Name,
		Syntax:   desc.Syntax,
		Encoding: enc,
		SubClass: desc.SubClass,
		Operands: operands(desc),
	}, nil
}
