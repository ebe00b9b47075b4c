package isa

import (
	"fmt"
	"path"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Rot127/rz-hexagon/config"
)

// DuplexClass is the 4-bit class of a duplex word, selecting which
// sub-instruction groups its two halves come from.
type DuplexClass uint8

// DuplexInvalid marks a pair of sub-classes that cannot form a duplex.
const DuplexInvalid DuplexClass = 0xff

func (c DuplexClass) String() string {
	if c == DuplexInvalid {
		return "INVALID"
	}
	return fmt.Sprintf("%#x", uint8(c))
}

// DuplexInstruction is a 32-bit word holding two sub-instructions.
type DuplexInstruction struct {
	Name     string
	Syntax   string
	Class    DuplexClass
	Low      *SubInstruction
	High     *SubInstruction
	Encoding Encoding
}

func (d *DuplexInstruction) EnumName() string {
	return InstructionEnumPrefix + makeIdentUpper(d.Name)
}

// Operands returns the operands of the high member followed by those of
// the low member.
func (d *DuplexInstruction) Operands() []Operand {
	ret := make([]Operand, 0, len(d.High.Operands)+len(d.Low.Operands))
	ret = append(ret, d.High.Operands...)
	return append(ret, d.Low.Operands...)
}

// SynthesisStats counts what happened to the pairs of one Synthesize call.
type SynthesisStats struct {
	Pairs    int // Pairs considered.
	Invalid  int // No duplex class for the two sub-classes.
	Slot     int // A member is not allowed in the slot it was paired into.
	Order    int // Same sub-class, but the high opcode is not the smaller.
	Overlap  int // The packed members share bits.
	Accepted int
}

type Synthesizer struct {
	cfg       config.Duplex
	wordWidth uint
	table     map[[2]string]DuplexClass
	log       logrus.FieldLogger

	stats SynthesisStats
}

func NewSynthesizer(cfg *config.Config, log logrus.FieldLogger) (*Synthesizer, error) {
	for _, patterns := range [][]string{cfg.Duplex.LowOnly, cfg.Duplex.HighOnly} {
		for _, p := range patterns {
			if _, err := path.Match(p, ""); err != nil {
				return nil, fmt.Errorf("duplex slot pattern %q: %w", p, err)
			}
		}
	}

	s := &Synthesizer{
		cfg:       cfg.Duplex,
		wordWidth: cfg.Encoding.WordWidth,
		table:     make(map[[2]string]DuplexClass, len(cfg.Duplex.Classes)),
		log:       log,
	}
	for _, e := range cfg.Duplex.Classes {
		s.table[[2]string{e.Low, e.High}] = DuplexClass(e.Value)
	}
	return s, nil
}

// Classify returns the duplex class for a low and a high sub-class, or
// DuplexInvalid.
func (s *Synthesizer) Classify(low, high string) DuplexClass {
	if c, ok := s.table[[2]string{low, high}]; ok {
		return c
	}
	return DuplexInvalid
}

// Stats returns the counters of the last Synthesize call.
func (s *Synthesizer) Stats() SynthesisStats {
	return s.stats
}

// Synthesize pairs every sub-instruction with every other one, itself
// included, and returns the pairs that form a valid duplex. The result is
// ordered by the position of the low member in subs, then by that of the
// high member.
func (s *Synthesizer) Synthesize(subs []*SubInstruction) ([]*DuplexInstruction, error) {
	s.stats = SynthesisStats{}
	if err := checkDistinct(subs); err != nil {
		return nil, err
	}
	reserved := s.reservedMask()

	var ret []*DuplexInstruction
	byName := make(map[string]*DuplexInstruction)
	for _, low := range subs {
		for _, high := range subs {
			s.stats.Pairs++

			class := s.Classify(low.SubClass, high.SubClass)
			if class == DuplexInvalid {
				s.stats.Invalid++
				continue
			}
			if matchesAny(s.cfg.HighOnly, low) || matchesAny(s.cfg.LowOnly, high) {
				s.stats.Slot++
				continue
			}
			if s.cfg.OrderSameClass && low.SubClass == high.SubClass && high.Encoding.Test() >= low.Encoding.Test() {
				s.stats.Order++
				continue
			}

			lowEnc := low.Encoding.Shift(s.cfg.LowShift)
			highEnc := high.Encoding.Shift(s.cfg.HighShift)
			if lowEnc.Occupied()&highEnc.Occupied() != 0 {
				s.stats.Overlap++
				continue
			}

			name := s.cfg.NamePrefix + high.Name + "_" + low.Name
			if prev, ok := byName[name]; ok {
				return nil, errorf(ErrDuplicateDefinition, name, "pairs (high %s, low %s) and (high %s, low %s) get the same name",
					prev.High.Name, prev.Low.Name, high.Name, low.Name)
			}
			for _, m := range []struct {
				sub *SubInstruction
				enc Encoding
			}{{low, lowEnc}, {high, highEnc}} {
				if clash := m.enc.Occupied() & reserved; clash != 0 {
					return nil, errorf(ErrConstraintViolation, name, "%s occupies reserved duplex bits %s", m.sub.Name, clash)
				}
			}

			enc, err := s.pack(class, lowEnc, highEnc)
			if err != nil {
				return nil, withName(err, name)
			}
			d := &DuplexInstruction{
				Name:     name,
				Syntax:   high.Syntax + "; " + low.Syntax,
				Class:    class,
				Low:      low,
				High:     high,
				Encoding: enc,
			}
			ret = append(ret, d)
			byName[name] = d
			s.stats.Accepted++
		}
	}

	s.log.WithFields(logrus.Fields{
		"pairs":    s.stats.Pairs,
		"invalid":  s.stats.Invalid,
		"slot":     s.stats.Slot,
		"order":    s.stats.Order,
		"overlap":  s.stats.Overlap,
		"accepted": s.stats.Accepted,
	}).Info("Generated duplex instructions")
	return ret, nil
}

// reservedMask covers the class and parse bits of a duplex word.
func (s *Synthesizer) reservedMask() Bits32 {
	return rangeMask(s.cfg.ClassHigh.Hi, s.cfg.ClassHigh.Lo) |
		rangeMask(s.cfg.Parse.Hi, s.cfg.Parse.Lo) |
		rangeMask(s.cfg.ClassLow, s.cfg.ClassLow)
}

// pack merges the class bits, the parse bits and both shifted members into
// one encoding. Bits nobody claims become fixed zero fields.
func (s *Synthesizer) pack(class DuplexClass, low, high Encoding) (Encoding, error) {
	fields := []EncodingField{
		{Kind: FieldFixed, Hi: s.cfg.ClassHigh.Hi, Lo: s.cfg.ClassHigh.Lo, Value: Bits32(class >> 1)},
		{Kind: FieldFixed, Hi: s.cfg.Parse.Hi, Lo: s.cfg.Parse.Lo},
		{Kind: FieldFixed, Hi: s.cfg.ClassLow, Lo: s.cfg.ClassLow, Value: Bits32(class & 1)},
	}
	fields = append(fields, high.Fields...)
	fields = append(fields, low.Fields...)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Hi > fields[j].Hi
	})

	var ret []EncodingField
	next := int(s.wordWidth) - 1 // Highest bit not yet covered.
	for _, f := range fields {
		if int(f.Hi) > next {
			return Encoding{}, errorf(ErrConstraintViolation, "", "field %s overlaps another duplex field", f)
		}
		if int(f.Hi) < next {
			ret = append(ret, EncodingField{Kind: FieldFixed, Hi: uint(next), Lo: f.Hi + 1})
		}
		ret = append(ret, f)
		next = int(f.Lo) - 1
	}
	if next >= 0 {
		ret = append(ret, EncodingField{Kind: FieldFixed, Hi: uint(next), Lo: 0})
	}
	return Encoding{Width: s.wordWidth, Fields: ret}, nil
}

func matchesAny(patterns []string, sub *SubInstruction) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, sub.Name); ok {
			return true
		}
		if ok, _ := path.Match(p, sub.SubClass); ok {
			return true
		}
	}
	return false
}

// checkDistinct rejects two sub-instructions of one sub-class that a
// decoder could not tell apart.
func checkDistinct(subs []*SubInstruction) error {
	type key struct {
		class      string
		test, mask Bits32
	}
	seen := make(map[key]string)
	for _, sub := range subs {
		k := key{sub.SubClass, sub.Encoding.Test(), sub.Encoding.Mask()}
		if prev, ok := seen[k]; ok && prev != sub.Name {
			return errorf(ErrConstraintViolation, sub.Name, "encoding is identical to %s in sub-class %s", prev, sub.SubClass)
		}
		seen[k] = sub.Name
	}
	return nil
}
