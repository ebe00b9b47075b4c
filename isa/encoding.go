package isa

import (
	"fmt"
	"strconv"
	"strings"
)

type FieldKind uint8

const (
	FieldFixed FieldKind = iota
	FieldOperand
)

func (k FieldKind) String() string {
	switch k {
	case FieldFixed:
		return "fixed"
	case FieldOperand:
		return "operand"
	default:
		return fmt.Sprintf("FieldKind(%d)", uint8(k))
	}
}

// EncodingField is a contiguous run of bits in an instruction word: either
// fixed bits with a literal value, or bits of one operand.
type EncodingField struct {
	Kind FieldKind
	Hi   uint // Most significant bit, inclusive.
	Lo   uint // Least significant bit, inclusive.

	// Value holds the literal bits of a fixed field, right-aligned.
	Value Bits32

	// Operand names the operand an operand field carries bits of, and
	// Letter is the template letter it was written with. OperandLo is
	// the position of bit Lo within the operand's value.
	Operand   string
	Letter    byte
	OperandLo uint
}

func (f EncodingField) Width() uint {
	return f.Hi - f.Lo + 1
}

func (f EncodingField) Mask() Bits32 {
	return rangeMask(f.Hi, f.Lo)
}

func (f EncodingField) String() string {
	if f.Kind == FieldFixed {
		return fmt.Sprintf("[%d:%d]=%0*b", f.Hi, f.Lo, int(f.Width()), uint32(f.Value))
	}
	return fmt.Sprintf("[%d:%d]=%s{%d:%d}", f.Hi, f.Lo, f.Operand, f.OperandLo+f.Width()-1, f.OperandLo)
}

// Encoding is the ordered list of fields of one instruction, most
// significant first. The field widths add up to Width.
type Encoding struct {
	Width  uint
	Fields []EncodingField
}

// ParseEncoding turns a bit template into an Encoding. Errors wrap
// ErrMalformedEncoding.
//
// The template is written most significant bit first. Runs of '0' and '1'
// become fixed fields and each run of one letter becomes a field of the
// operand the letter is bound to in operands. A letter must form a single
// run; an operand whose bits are scattered over the word is declared with
// one letter per sub-field, all bound to the same operand name.
func ParseEncoding(template string, width uint, operands map[byte]string) (Encoding, error) {
	if width == 0 || width > 32 {
		return Encoding{}, errorf(ErrMalformedEncoding, "", "unsupported encoding width %d", width)
	}
	if uint(len(template)) != width {
		return Encoding{}, errorf(ErrMalformedEncoding, "", "template %q has %d bits, want %d", template, len(template), width)
	}

	var fields []EncodingField
	done := make(map[byte]bool)
	for i := 0; i < len(template); {
		c := template[i]
		fixed := c == '0' || c == '1'

		j := i + 1
		for j < len(template) {
			next := template[j]
			if fixed && next != '0' && next != '1' {
				break
			}
			if !fixed && next != c {
				break
			}
			j++
		}

		// i and j count from the most significant end.
		f := EncodingField{
			Hi: width - 1 - uint(i),
			Lo: width - uint(j),
		}
		if fixed {
			v, err := strconv.ParseUint(template[i:j], 2, 32)
			if err != nil {
				return Encoding{}, errorf(ErrMalformedEncoding, "", "template %q: %v", template, err)
			}
			f.Kind = FieldFixed
			f.Value = Bits32(v)
		} else {
			name, ok := operands[c]
			if !ok {
				return Encoding{}, errorf(ErrMalformedEncoding, "", "template %q: no operand for %q", template, c)
			}
			if done[c] {
				return Encoding{}, errorf(ErrMalformedEncoding, "", "template %q: bits of %q are not contiguous", template, c)
			}
			done[c] = true
			f.Kind = FieldOperand
			f.Operand = name
			f.Letter = c
		}
		fields = append(fields, f)
		i = j
	}

	// Sub-fields of one operand concatenate in template order, so the
	// least significant operand bits come from the last sub-field.
	offsets := make(map[string]uint)
	for k := len(fields) - 1; k >= 0; k-- {
		f := &fields[k]
		if f.Kind != FieldOperand {
			continue
		}
		f.OperandLo = offsets[f.Operand]
		offsets[f.Operand] += f.Width()
	}

	return Encoding{Width: width, Fields: fields}, nil
}

// Mask returns the mask of all fixed bits.
func (e Encoding) Mask() Bits32 {
	var m Bits32
	for _, f := range e.Fields {
		if f.Kind == FieldFixed {
			m |= f.Mask()
		}
	}
	return m
}

// Test returns the value of the fixed bits with all operand bits zero. An
// instruction word w matches the encoding when w&Mask() == Test().
func (e Encoding) Test() Bits32 {
	var v Bits32
	for _, f := range e.Fields {
		if f.Kind == FieldFixed {
			v |= f.Value << f.Lo
		}
	}
	return v
}

// Occupied returns the mask of every bit the encoding has a field for.
func (e Encoding) Occupied() Bits32 {
	var m Bits32
	for _, f := range e.Fields {
		m |= f.Mask()
	}
	return m
}

// Bits returns the fixed value of bits hi down to lo. ok is false when any
// of those bits belongs to an operand.
func (e Encoding) Bits(hi, lo uint) (v Bits32, ok bool) {
	m := rangeMask(hi, lo)
	if e.Mask()&m != m {
		return 0, false
	}
	return (e.Test() & m) >> lo, true
}

// Shift returns a copy of the encoding moved n bits up.
func (e Encoding) Shift(n uint) Encoding {
	fields := make([]EncodingField, len(e.Fields))
	for i, f := range e.Fields {
		f.Hi += n
		f.Lo += n
		fields[i] = f
	}
	return Encoding{Width: e.Width + n, Fields: fields}
}

// Operands returns the operand names in the order the encoding first
// mentions them.
func (e Encoding) Operands() []string {
	var ret []string
	seen := make(map[string]bool)
	for _, f := range e.Fields {
		if f.Kind == FieldOperand && !seen[f.Operand] {
			seen[f.Operand] = true
			ret = append(ret, f.Operand)
		}
	}
	return ret
}

// Template renders the encoding back into a template string.
func (e Encoding) Template() string {
	var b strings.Builder
	for _, f := range e.Fields {
		if f.Kind == FieldFixed {
			fmt.Fprintf(&b, "%0*b", int(f.Width()), uint32(f.Value))
			continue
		}
		b.WriteString(strings.Repeat(string(f.Letter), int(f.Width())))
	}
	return b.String()
}

func (e Encoding) String() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, " ")
}

// DecodeStep is one "mask, then shift" operation. The results of all the
// steps of an operand, ORed together, give the operand's value.
type DecodeStep struct {
	Mask       Bits32
	RightShift int
}

func (s DecodeStep) String() string {
	switch {
	case s.RightShift == 0:
		return fmt.Sprintf("(inst & %#08x)", uint32(s.Mask))
	case s.RightShift < 0:
		return fmt.Sprintf("((inst & %#08x) << %d)", uint32(s.Mask), -s.RightShift)
	default:
		return fmt.Sprintf("((inst & %#08x) >> %d)", uint32(s.Mask), s.RightShift)
	}
}

// Decoding returns the decode steps for one operand, most significant
// sub-field first. It returns nil for an operand the encoding does not
// carry.
func (e Encoding) Decoding(operand string) []DecodeStep {
	var ret []DecodeStep
	for _, f := range e.Fields {
		if f.Kind != FieldOperand || f.Operand != operand {
			continue
		}
		ret = append(ret, DecodeStep{
			Mask:       f.Mask(),
			RightShift: int(f.Lo) - int(f.OperandLo),
		})
	}
	return ret
}

// Extract applies the decode steps of operand to an instruction word.
func (e Encoding) Extract(word Bits32, operand string) uint32 {
	var v uint32
	for _, s := range e.Decoding(operand) {
		masked := uint32(word & s.Mask)
		if s.RightShift < 0 {
			v |= masked << uint(-s.RightShift)
		} else {
			v |= masked >> uint(s.RightShift)
		}
	}
	return v
}
