package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Options tells the loader how to cut instruction templates out of the
// tblgen bit lists.
type Options struct {
	WordWidth uint
	SubWidth  uint
	SubType   string
}

// The tblgen dump names the record classes it instantiated under this key.
const instanceOfKey = "!instanceof"

const (
	classInstruction   = "HInst"
	classRegisterClass = "RegisterClass"
	classRegister      = "Register"
	classDwarfRegister = "DwarfRegNum"
	classFakeRegister  = "HexagonFakeReg"
	classCCAssignToReg = "CCAssignToReg"
	recordCalleeSaved  = "HexagonCSR"
)

// letters used to name operand fields in generated templates.
const templateLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Load reads an llvm-tblgen --dump-json file.
func Load(filename string, opts Options) (*Catalog, error) {
	r, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cat, err := Decode(r, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return cat, nil
}

// Decode reads an llvm-tblgen --dump-json document.
func Decode(r io.Reader, opts Options) (*Catalog, error) {
	var records map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	d := &decoder{records: records, opts: opts}

	rawInstanceOf, ok := records[instanceOfKey]
	if !ok {
		return nil, fmt.Errorf("missing %q index", instanceOfKey)
	}
	if err := json.Unmarshal(rawInstanceOf, &d.instanceOf); err != nil {
		return nil, fmt.Errorf("failed to decode %q index: %w", instanceOfKey, err)
	}

	cat := &Catalog{
		Registers:     make(map[string]Register),
		FakeRegisters: d.instanceOf[classFakeRegister],
	}

	insns, err := d.instructions()
	if err != nil {
		return nil, fmt.Errorf("failed to load instructions: %w", err)
	}
	cat.Instructions = insns

	classes, err := d.registerClasses()
	if err != nil {
		return nil, fmt.Errorf("failed to load register classes: %w", err)
	}
	cat.RegisterClasses = classes

	if err := d.registers(cat.Registers); err != nil {
		return nil, fmt.Errorf("failed to load registers: %w", err)
	}

	cc, err := d.callingConvention()
	if err != nil {
		return nil, fmt.Errorf("failed to load calling convention: %w", err)
	}
	cat.CallingConvention = cc

	csr, err := d.calleeSaved()
	if err != nil {
		return nil, fmt.Errorf("failed to load callee saved registers: %w", err)
	}
	cat.CalleeSaved = csr

	return cat, nil
}

type decoder struct {
	records    map[string]json.RawMessage
	instanceOf map[string][]string
	opts       Options
}

func (d *decoder) record(name string, into interface{}) error {
	raw, ok := d.records[name]
	if !ok {
		return fmt.Errorf("no record named %q", name)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("record %q: %w", name, err)
	}
	return nil
}

type rawDef struct {
	Def       string `json:"def"`
	Kind      string `json:"kind"`
	Printable string `json:"printable"`
}

type rawDag struct {
	Operator rawDef              `json:"operator"`
	Args     [][]json.RawMessage `json:"args"`
}

type rawBit struct {
	set   bool
	value int
	varbit
}

type varbit struct {
	Kind  string `json:"kind"`
	Var   string `json:"var"`
	Index int    `json:"index"`
}

func (b *rawBit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	b.set = true
	if len(data) > 0 && data[0] == '{' {
		return json.Unmarshal(data, &b.varbit)
	}
	return json.Unmarshal(data, &b.value)
}

type rawInstruction struct {
	AsmString        string   `json:"AsmString"`
	IsPseudo         int      `json:"isPseudo"`
	Type             *rawDef  `json:"Type"`
	Inst             []rawBit `json:"Inst"`
	InOperandList    rawDag   `json:"InOperandList"`
	OutOperandList   rawDag   `json:"OutOperandList"`
	DecoderNamespace string   `json:"DecoderNamespace"`
	Predicates       []rawDef `json:"Predicates"`
}

func (d *decoder) instructions() ([]Instruction, error) {
	names := d.instanceOf[classInstruction]
	ret := make([]Instruction, 0, len(names))
	for _, name := range names {
		var raw rawInstruction
		if err := d.record(name, &raw); err != nil {
			return nil, err
		}

		insn := Instruction{
			Name:     name,
			Syntax:   raw.AsmString,
			IsPseudo: raw.IsPseudo != 0,
		}
		if raw.Type != nil {
			insn.Type = raw.Type.Def
		}
		for _, p := range raw.Predicates {
			insn.Predicates = append(insn.Predicates, p.Def)
		}

		// Pseudo instructions have no real encoding, so there is nothing
		// more for us to extract from them.
		if insn.IsPseudo || len(raw.Inst) == 0 {
			ret = append(ret, insn)
			continue
		}

		width := d.opts.WordWidth
		if insn.Type == d.opts.SubType {
			insn.SubClass = strings.TrimPrefix(raw.DecoderNamespace, "SUBINSN_")
			width = d.opts.SubWidth
		}

		operands := dagOperands(raw.OutOperandList)
		operands = append(operands, dagOperands(raw.InOperandList)...)
		tmpl, operands, err := template(raw.Inst, width, operands)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		insn.Encoding = tmpl
		insn.Operands = operands

		ret = append(ret, insn)
	}
	return ret, nil
}

// dagOperands turns the (ins ...) and (outs ...) operand lists into
// operands. Each argument is a pair of the operand type and its name.
func dagOperands(dag rawDag) []Operand {
	var ret []Operand
	for _, arg := range dag.Args {
		if len(arg) != 2 {
			continue
		}
		var ty rawDef
		var name string
		if json.Unmarshal(arg[0], &ty) != nil || json.Unmarshal(arg[1], &name) != nil {
			continue
		}
		ret = append(ret, Operand{Name: name, Type: ty.Def})
	}
	return ret
}

// template renders a tblgen bit list, which is least significant bit
// first, as a template string of the given width.
//
// Every run of adjacent bits taken from consecutive bits of the same
// variable gets its own letter, so a variable that is scattered over the word becomes several
// sub-fields of one operand. Variables that appear in the bit list but not
// in the operand lists (the parse bits, for example) become operands of
// their own with no type.
func template(bits []rawBit, width uint, operands []Operand) (string, []Operand, error) {
	if uint(len(bits)) < width {
		return "", nil, fmt.Errorf("encoding has %d bits, want at least %d", len(bits), width)
	}

	// Anything above the template width must be unused.
	for i := width; i < uint(len(bits)); i++ {
		if b := bits[i]; b.set && (b.Var != "" || b.value != 0) {
			return "", nil, fmt.Errorf("bit %d is set outside the %d bit encoding", i, width)
		}
	}

	byName := make(map[string]int, len(operands))
	for i, op := range operands {
		byName[op.Name] = i
	}

	var buf strings.Builder
	nextLetter := 0
	prevVar := ""
	prevIndex := 0
	for i := int(width) - 1; i >= 0; i-- {
		b := bits[i]
		switch {
		case !b.set:
			return "", nil, fmt.Errorf("bit %d is unset", i)
		case b.Var == "":
			prevVar = ""
			if b.value != 0 {
				buf.WriteByte('1')
			} else {
				buf.WriteByte('0')
			}
		default:
			idx, ok := byName[b.Var]
			if !ok {
				idx = len(operands)
				operands = append(operands, Operand{Name: b.Var})
				byName[b.Var] = idx
			}
			// A run ends where the variable changes or its bit index
			// does not count down by one.
			if b.Var != prevVar || b.Index != prevIndex-1 {
				if nextLetter >= len(templateLetters) {
					return "", nil, fmt.Errorf("too many operand fields")
				}
				operands[idx].Letters += string(templateLetters[nextLetter])
				nextLetter++
				prevVar = b.Var
			}
			prevIndex = b.Index
			letters := operands[idx].Letters
			buf.WriteByte(letters[len(letters)-1])
		}
	}

	// Operands the encoding never mentions (tied inputs, for example)
	// stay in the list without letters.
	return buf.String(), operands, nil
}

type rawRegisterClass struct {
	MemberList rawDag `json:"MemberList"`
	Size       uint   `json:"Size"`
	Alignment  uint   `json:"Alignment"`
}

func (d *decoder) registerClasses() ([]RegisterClass, error) {
	names := d.instanceOf[classRegisterClass]
	ret := make([]RegisterClass, 0, len(names))
	for _, name := range names {
		var raw rawRegisterClass
		if err := d.record(name, &raw); err != nil {
			return nil, err
		}
		members, err := dagMembers(raw.MemberList)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		ret = append(ret, RegisterClass{
			Name:      name,
			Size:      raw.Size,
			Alignment: raw.Alignment,
			Members:   members,
		})
	}
	return ret, nil
}

// dagMembers reads a member list like (add R0, (sequence "R%u", 1, 3)).
func dagMembers(dag rawDag) ([]Member, error) {
	var ret []Member
	for _, arg := range dag.Args {
		if len(arg) == 0 {
			continue
		}
		var def rawDef
		if err := json.Unmarshal(arg[0], &def); err != nil {
			return nil, err
		}
		switch {
		case def.Def != "":
			ret = append(ret, Member{Def: def.Def})
		case strings.Contains(def.Printable, "sequence"):
			ret = append(ret, Member{Sequence: def.Printable})
		default:
			return nil, fmt.Errorf("unsupported member %q", def.Printable)
		}
	}
	return ret, nil
}

type rawRegister struct {
	AsmName    string   `json:"AsmName"`
	AltNames   []string `json:"AltNames"`
	HWEncoding []rawBit `json:"HWEncoding"`
}

func (d *decoder) registers(into map[string]Register) error {
	// Not every dump tags registers with the Register class, but all the
	// ones we care about have a DWARF number.
	var names []string
	names = append(names, d.instanceOf[classRegister]...)
	names = append(names, d.instanceOf[classDwarfRegister]...)
	for _, name := range names {
		if _, ok := into[name]; ok {
			continue
		}
		var raw rawRegister
		if err := d.record(name, &raw); err != nil {
			return err
		}
		var enc uint
		for i, b := range raw.HWEncoding {
			if b.set && b.Var == "" && b.value != 0 {
				enc |= 1 << uint(i)
			}
		}
		into[name] = Register{
			Name:       name,
			AsmName:    raw.AsmName,
			AltNames:   raw.AltNames,
			HWEncoding: enc,
		}
	}
	return nil
}

type rawCCAssignToReg struct {
	RegList []rawDef `json:"RegList"`
}

// callingConvention reads the anonymous CCAssignToReg records. Their order
// follows the calling convention description: general purpose argument
// registers (single, then pairs), general purpose return registers, then
// the same four lists for the vector registers.
func (d *decoder) callingConvention() (CallingConvention, error) {
	names := d.instanceOf[classCCAssignToReg]
	if len(names) < 8 {
		return CallingConvention{}, fmt.Errorf("found %d register assignment records, want 8", len(names))
	}
	var lists [8][]string
	for i := range lists {
		var raw rawCCAssignToReg
		if err := d.record(names[i], &raw); err != nil {
			return CallingConvention{}, err
		}
		for _, reg := range raw.RegList {
			lists[i] = append(lists[i], reg.Def)
		}
	}
	return CallingConvention{
		GPRArgs:     lists[0],
		GPRArgPairs: lists[1],
		GPRRet:      lists[2],
		GPRRetPairs: lists[3],
		EXTArgs:     lists[4],
		EXTArgPairs: lists[5],
		EXTRet:      lists[6],
		EXTRetPairs: lists[7],
	}, nil
}

type rawCalleeSaved struct {
	SaveList rawDag `json:"SaveList"`
}

func (d *decoder) calleeSaved() ([]Member, error) {
	if _, ok := d.records[recordCalleeSaved]; !ok {
		return nil, nil
	}
	var raw rawCalleeSaved
	if err := d.record(recordCalleeSaved, &raw); err != nil {
		return nil, err
	}
	return dagMembers(raw.SaveList)
}
