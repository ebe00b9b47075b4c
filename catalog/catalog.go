// Package catalog defines the typed records the model builder consumes: the
// instruction descriptors, register classes, registers and calling
// convention groups of one architecture.
//
// The records are produced once at the load boundary (see Load) and are
// never looked at through open-ended keys afterwards.
package catalog

type Catalog struct {
	Instructions      []Instruction
	RegisterClasses   []RegisterClass
	Registers         map[string]Register
	FakeRegisters     []string
	CalleeSaved       []Member
	CallingConvention CallingConvention
}

// Instruction describes one instruction as declared by the catalog.
type Instruction struct {
	Name   string
	Syntax string

	// Encoding is the bit template, most significant bit first. Each
	// character is '0', '1' or a letter bound to an operand.
	Encoding string
	Operands []Operand

	Type       string
	SubClass   string
	IsPseudo   bool
	Predicates []string
}

type Operand struct {
	Name string
	Type string

	// Letters holds the template letters for this operand, one per
	// contiguous sub-field, most significant sub-field first.
	Letters string
}

type RegisterClass struct {
	Name      string
	Size      uint
	Alignment uint
	Members   []Member
}

// Member is one entry of a register class member list: either a direct
// register reference or a sequence that denotes several registers.
type Member struct {
	Def      string
	Sequence string
}

type Register struct {
	Name       string
	AsmName    string
	AltNames   []string
	HWEncoding uint
}

// CallingConvention lists, in order, the registers used to pass arguments
// and return values, separately for single registers and register pairs of
// the general purpose and the extended vector register files.
type CallingConvention struct {
	GPRArgs     []string
	GPRArgPairs []string
	GPRRet      []string
	GPRRetPairs []string
	EXTArgs     []string
	EXTArgPairs []string
	EXTRet      []string
	EXTRetPairs []string
}
