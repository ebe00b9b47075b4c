// Package snapshot renders a built instruction model as deterministic JSON,
// so that two builds can be compared and a generator only rewrites its
// output when the model changed.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/mod/semver"

	"github.com/Rot127/rz-hexagon/isa"
)

// FormatVersion is the version of the snapshot layout. Snapshots with a
// different major version cannot be compared.
const FormatVersion = "v1.0.0"

type Snapshot struct {
	Format            string           `json:"format"`
	Instructions      []Instruction    `json:"instructions"`
	SubInstructions   []SubInstruction `json:"sub_instructions"`
	Duplexes          []Duplex         `json:"duplexes"`
	RegisterClasses   []RegisterClass  `json:"register_classes"`
	CallingConvention []RegisterGroup  `json:"calling_convention"`
}

type Instruction struct {
	Name     string    `json:"name"`
	Enum     string    `json:"enum"`
	Syntax   string    `json:"syntax"`
	Class    uint8     `json:"class"`
	Encoding Encoding  `json:"encoding"`
	Versions []string  `json:"versions,omitempty"`
	Operands []Operand `json:"operands,omitempty"`
}

type SubInstruction struct {
	Name     string    `json:"name"`
	SubClass string    `json:"sub_class"`
	Syntax   string    `json:"syntax"`
	Encoding Encoding  `json:"encoding"`
	Operands []Operand `json:"operands,omitempty"`
}

type Duplex struct {
	Name     string    `json:"name"`
	Enum     string    `json:"enum"`
	Syntax   string    `json:"syntax"`
	Class    string    `json:"class"`
	Low      string    `json:"low"`
	High     string    `json:"high"`
	Encoding Encoding  `json:"encoding"`
	Operands []Operand `json:"operands,omitempty"`
}

type Encoding struct {
	Template string `json:"template"`
	Mask     string `json:"mask"`
	Test     string `json:"test"`
}

type Operand struct {
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Decoding []string `json:"decoding,omitempty"`
}

type RegisterClass struct {
	Name      string     `json:"name"`
	Enum      string     `json:"enum"`
	Size      uint       `json:"size"`
	Registers []Register `json:"registers"`
}

type Register struct {
	Name       string   `json:"name"`
	Enum       string   `json:"enum"`
	AsmName    string   `json:"asm_name"`
	HWEncoding uint     `json:"hw_encoding"`
	Aliases    []string `json:"aliases,omitempty"`
}

type RegisterGroup struct {
	Name      string   `json:"name"`
	Registers []string `json:"registers"`
}

// FromModel captures everything a generator emits from m, in model order.
func FromModel(m *isa.Model) *Snapshot {
	s := &Snapshot{
		Format:            FormatVersion,
		Instructions:      []Instruction{},
		SubInstructions:   []SubInstruction{},
		Duplexes:          []Duplex{},
		RegisterClasses:   []RegisterClass{},
		CallingConvention: []RegisterGroup{},
	}

	for _, insn := range m.Registry.Normal() {
		var versions []string
		for _, v := range insn.Versions.Sorted() {
			versions = append(versions, v.String())
		}
		s.Instructions = append(s.Instructions, Instruction{
			Name:     insn.Name,
			Enum:     insn.EnumName(),
			Syntax:   insn.Syntax,
			Class:    insn.Class,
			Encoding: encoding(insn.Encoding),
			Versions: versions,
			Operands: operands(insn.Operands, insn.Encoding),
		})
	}

	for _, sub := range m.Registry.Sub() {
		s.SubInstructions = append(s.SubInstructions, SubInstruction{
			Name:     sub.Name,
			SubClass: sub.SubClass,
			Syntax:   sub.Syntax,
			Encoding: encoding(sub.Encoding),
			Operands: operands(sub.Operands, sub.Encoding),
		})
	}

	for _, d := range m.Registry.Duplex() {
		s.Duplexes = append(s.Duplexes, Duplex{
			Name:     d.Name,
			Enum:     d.EnumName(),
			Syntax:   d.Syntax,
			Class:    d.Class.String(),
			Low:      d.Low.Name,
			High:     d.High.Name,
			Encoding: encoding(d.Encoding),
			Operands: operands(d.Operands(), d.Encoding),
		})
	}

	for _, rc := range m.Registers.Classes() {
		class := RegisterClass{
			Name:      rc.Name,
			Enum:      rc.EnumName(),
			Size:      rc.Size,
			Registers: []Register{},
		}
		for _, r := range rc.Registers() {
			class.Registers = append(class.Registers, Register{
				Name:       r.Name,
				Enum:       r.EnumName(),
				AsmName:    r.AsmName,
				HWEncoding: r.HWEncoding,
				Aliases:    r.Aliases,
			})
		}
		s.RegisterClasses = append(s.RegisterClasses, class)
	}

	for _, g := range m.CallingConvention.Groups() {
		regs := g.Registers
		if regs == nil {
			regs = []string{}
		}
		s.CallingConvention = append(s.CallingConvention, RegisterGroup{Name: g.Name, Registers: regs})
	}
	return s
}

func encoding(e isa.Encoding) Encoding {
	return Encoding{
		Template: e.Template(),
		Mask:     fmt.Sprintf("%#08x", uint32(e.Mask())),
		Test:     fmt.Sprintf("%#08x", uint32(e.Test())),
	}
}

func operands(ops []isa.Operand, e isa.Encoding) []Operand {
	var ret []Operand
	for _, op := range ops {
		var steps []string
		for _, step := range e.Decoding(op.Name) {
			steps = append(steps, step.String())
		}
		ret = append(ret, Operand{Name: op.Name, Type: op.Type, Decoding: steps})
	}
	return ret
}

// Marshal returns the indented JSON form of s, ending in a newline.
func (s *Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Unmarshal parses a snapshot and checks that its format is compatible with
// FormatVersion.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if !semver.IsValid(s.Format) {
		return nil, fmt.Errorf("snapshot format %q is not a valid version", s.Format)
	}
	if semver.Major(s.Format) != semver.Major(FormatVersion) {
		return nil, fmt.Errorf("snapshot format %s is incompatible with %s", s.Format, FormatVersion)
	}
	return &s, nil
}

// Read loads a snapshot file. It returns the raw file contents along with
// the parsed snapshot.
func Read(name string) (*Snapshot, []byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	s, err := Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return s, data, nil
}

// WriteFile writes data to name unless the file already holds exactly
// data. It reports whether the file was written.
func WriteFile(name string, data []byte) (written bool, err error) {
	old, err := os.ReadFile(name)
	switch {
	case err == nil && bytes.Equal(old, data):
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := os.WriteFile(name, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return true, nil
}
