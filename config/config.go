// Package config holds the hardware constants the model builder needs but
// which the tblgen dump does not carry: instruction word widths, the duplex
// word layout and classification table, and the register-class filters.
//
// Default returns the values for Hexagon. A TOML file can override any of
// them.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Encoding   Encoding   `toml:"encoding"`
	Duplex     Duplex     `toml:"duplex"`
	Registers  Registers  `toml:"registers"`
	Validation Validation `toml:"validation"`
}

// BitRange is an inclusive range of bit positions, Hi >= Lo.
type BitRange struct {
	Hi uint `toml:"hi"`
	Lo uint `toml:"lo"`
}

func (r BitRange) Width() uint {
	return r.Hi - r.Lo + 1
}

type Encoding struct {
	// WordWidth is the width of a normal instruction word.
	WordWidth uint `toml:"word_width"`
	// SubWidth is the width of a sub-instruction.
	SubWidth uint `toml:"sub_width"`
	// SubType is the declared instruction type tag of sub-instructions.
	SubType string `toml:"sub_type"`
	// OpcodeClass holds the fixed high bits selecting a normal
	// instruction's opcode class.
	OpcodeClass BitRange `toml:"opcode_class"`
}

type Duplex struct {
	NamePrefix string `toml:"name_prefix"`
	LowShift   uint   `toml:"low_shift"`
	HighShift  uint   `toml:"high_shift"`

	// The duplex class is split: its upper bits live in ClassHigh and its
	// lowest bit in ClassLow.
	ClassHigh BitRange `toml:"class_high"`
	ClassLow  uint     `toml:"class_low"`
	// Parse holds the packet parse bits, which are zero for a duplex.
	Parse BitRange `toml:"parse"`

	// OrderSameClass requires, for two members of the same sub-class,
	// that the high member has the numerically smaller opcode.
	OrderSameClass bool `toml:"order_same_class"`

	// LowOnly and HighOnly are glob patterns matched against a
	// sub-instruction's name and its sub-class.
	LowOnly  []string `toml:"low_only"`
	HighOnly []string `toml:"high_only"`

	Reserved []uint8      `toml:"reserved_classes"`
	Classes  []ClassEntry `toml:"class"`
}

// ClassEntry maps a (low, high) pair of sub-classes to a duplex class.
type ClassEntry struct {
	Value uint8  `toml:"value"`
	Low   string `toml:"low"`
	High  string `toml:"high"`
}

type Registers struct {
	ExcludedClasses  []string            `toml:"excluded_classes"`
	FakeRegisters    []string            `toml:"fake_registers"`
	ClassFakeMembers map[string][]string `toml:"class_fake_members"`
	ReversePattern   string              `toml:"reverse_pattern"`
}

type Validation struct {
	MaxSyntaxLen int `toml:"max_syntax_len"`
}

// Default returns the Hexagon configuration.
func Default() *Config {
	return &Config{
		Encoding: Encoding{
			WordWidth:   32,
			SubWidth:    13,
			SubType:     "TypeSUBINSN",
			OpcodeClass: BitRange{Hi: 31, Lo: 28},
		},
		Duplex: Duplex{
			NamePrefix:     "X2_AUTOJOIN_",
			LowShift:       0,
			HighShift:      16,
			ClassHigh:      BitRange{Hi: 31, Lo: 29},
			ClassLow:       13,
			Parse:          BitRange{Hi: 15, Lo: 14},
			OrderSameClass: true,
			LowOnly: []string{
				"SL2_jumpr31*",
				"SL2_return*",
				"SL2_deallocframe",
				"SS2_allocframe",
			},
			Reserved: []uint8{0xf},
			Classes: []ClassEntry{
				{Value: 0x0, Low: "L1", High: "L1"},
				{Value: 0x1, Low: "L2", High: "L1"},
				{Value: 0x2, Low: "L2", High: "L2"},
				{Value: 0x3, Low: "A", High: "A"},
				{Value: 0x4, Low: "L1", High: "A"},
				{Value: 0x5, Low: "L2", High: "A"},
				{Value: 0x6, Low: "S1", High: "A"},
				{Value: 0x7, Low: "S2", High: "A"},
				{Value: 0x8, Low: "S1", High: "L1"},
				{Value: 0x9, Low: "S1", High: "L2"},
				{Value: 0xa, Low: "S1", High: "S1"},
				{Value: 0xb, Low: "S2", High: "S1"},
				{Value: 0xc, Low: "S2", High: "L1"},
				{Value: 0xd, Low: "S2", High: "L2"},
				{Value: 0xe, Low: "S2", High: "S2"},
			},
		},
		Registers: Registers{
			// VectRegRev holds reversed vector pairs (V0:1 instead of
			// V1:0); V62Regs and V65Regs aggregate the registers new in
			// an architecture revision; UsrBits is an LLVM fake class.
			ExcludedClasses: []string{"UsrBits", "VectRegRev", "V65Regs", "V62Regs"},
			FakeRegisters:   []string{"VTMP"},
			// C8 is listed a second time as USR, which also names c8 as
			// an alternative.
			ClassFakeMembers: map[string][]string{
				"CtrRegs": {"C8"},
			},
			ReversePattern: `WR\d{1,2}`,
		},
		Validation: Validation{
			MaxSyntaxLen: 128,
		},
	}
}

// Load reads a TOML file over the defaults. Keys the configuration does not
// know about are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the widths and bit positions fit in an instruction
// word and that the classification table is well formed. It does not check
// that the duplex slots avoid the class and parse bits; a layout that does
// not is reported when pairs are packed.
func (c *Config) Validate() error {
	enc := c.Encoding
	if enc.WordWidth == 0 || enc.WordWidth > 32 {
		return fmt.Errorf("encoding.word_width %d out of range 1..32", enc.WordWidth)
	}
	if enc.SubWidth == 0 || enc.SubWidth > enc.WordWidth {
		return fmt.Errorf("encoding.sub_width %d out of range 1..%d", enc.SubWidth, enc.WordWidth)
	}
	if err := checkRange("encoding.opcode_class", enc.OpcodeClass, enc.WordWidth); err != nil {
		return err
	}

	dup := c.Duplex
	if dup.LowShift+enc.SubWidth > enc.WordWidth {
		return fmt.Errorf("duplex.low_shift %d leaves no room for a %d bit sub-instruction", dup.LowShift, enc.SubWidth)
	}
	if dup.HighShift+enc.SubWidth > enc.WordWidth {
		return fmt.Errorf("duplex.high_shift %d leaves no room for a %d bit sub-instruction", dup.HighShift, enc.SubWidth)
	}
	if err := checkRange("duplex.class_high", dup.ClassHigh, enc.WordWidth); err != nil {
		return err
	}
	if err := checkRange("duplex.parse", dup.Parse, enc.WordWidth); err != nil {
		return err
	}
	if dup.ClassLow >= enc.WordWidth {
		return fmt.Errorf("duplex.class_low %d outside the instruction word", dup.ClassLow)
	}

	limit := uint(1) << (dup.ClassHigh.Width() + 1)
	seen := make(map[[2]string]uint8)
	for _, e := range dup.Classes {
		if uint(e.Value) >= limit {
			return fmt.Errorf("duplex class %#x does not fit in %d bits", e.Value, dup.ClassHigh.Width()+1)
		}
		for _, r := range dup.Reserved {
			if e.Value == r {
				return fmt.Errorf("duplex class %#x is reserved", e.Value)
			}
		}
		if e.Low == "" || e.High == "" {
			return fmt.Errorf("duplex class %#x needs both a low and a high sub-class", e.Value)
		}
		key := [2]string{e.Low, e.High}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("sub-class pair (%s, %s) mapped to both %#x and %#x", e.Low, e.High, prev, e.Value)
		}
		seen[key] = e.Value
	}

	if c.Validation.MaxSyntaxLen <= 0 {
		return fmt.Errorf("validation.max_syntax_len must be positive")
	}
	return nil
}

func checkRange(name string, r BitRange, width uint) error {
	if r.Hi < r.Lo {
		return fmt.Errorf("%s: hi %d below lo %d", name, r.Hi, r.Lo)
	}
	if r.Hi >= width {
		return fmt.Errorf("%s: bit %d outside the %d bit word", name, r.Hi, width)
	}
	return nil
}
