package isa

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/Rot127/rz-hexagon/catalog"
	"github.com/Rot127/rz-hexagon/config"
)

// Kind is what a catalog descriptor turns into.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNormal
	KindSub
	KindPseudo
	KindDuplex
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNormal:
		return "normal"
	case KindSub:
		return "sub"
	case KindPseudo:
		return "pseudo"
	case KindDuplex:
		return "duplex"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Classify decides what a descriptor is from its declared flags and type
// alone. Pseudo instructions are assembler placeholders without a real
// encoding; a descriptor without a name or template is invalid.
func Classify(desc *catalog.Instruction, subType string) Kind {
	switch {
	case desc.IsPseudo:
		return KindPseudo
	case desc.Name == "" || desc.Encoding == "":
		return KindInvalid
	case desc.Type == subType:
		return KindSub
	default:
		return KindNormal
	}
}

// Registry holds the normal, sub- and duplex instructions of a model, each
// in catalog order, and guarantees that no two of them share a name.
type Registry struct {
	normal []*Instruction
	sub    []*SubInstruction
	duplex []*DuplexInstruction

	normalByName map[string]*Instruction
	subByName    map[string]*SubInstruction
	duplexByName map[string]*DuplexInstruction

	names map[string]Kind
}

// NewRegistry parses every descriptor that is not skipped by Classify.
// Duplexes are added later by the builder, once they are synthesized.
func NewRegistry(descs []catalog.Instruction, cfg *config.Config, log logrus.FieldLogger) (*Registry, error) {
	r := &Registry{
		normalByName: make(map[string]*Instruction),
		subByName:    make(map[string]*SubInstruction),
		duplexByName: make(map[string]*DuplexInstruction),
		names:        make(map[string]Kind),
	}

	var pseudo, invalid int
	for i := range descs {
		desc := &descs[i]
		switch Classify(desc, cfg.Encoding.SubType) {
		case KindPseudo:
			log.WithField("name", desc.Name).Debug("Pseudo instruction passed")
			pseudo++
		case KindInvalid:
			log.WithField("name", desc.Name).Warn("Instruction without an encoding passed")
			invalid++
		case KindSub:
			sub, err := newSubInstruction(desc, cfg.Encoding.SubWidth)
			if err != nil {
				return nil, err
			}
			if err := r.claim(sub.Name, KindSub); err != nil {
				return nil, err
			}
			r.sub = append(r.sub, sub)
			r.subByName[sub.Name] = sub
		case KindNormal:
			insn, err := newInstruction(desc, cfg.Encoding.WordWidth, cfg.Encoding.OpcodeClass)
			if err != nil {
				return nil, err
			}
			if err := r.claim(insn.Name, KindNormal); err != nil {
				return nil, err
			}
			r.normal = append(r.normal, insn)
			r.normalByName[insn.Name] = insn
		}
	}

	log.WithFields(logrus.Fields{
		"normal":  len(r.normal),
		"sub":     len(r.sub),
		"pseudo":  pseudo,
		"invalid": invalid,
	}).Info("Parsed instructions")
	return r, nil
}

func (r *Registry) claim(name string, kind Kind) error {
	if prev, ok := r.names[name]; ok {
		return errorf(ErrDuplicateDefinition, name, "already defined as a %s instruction", prev)
	}
	r.names[name] = kind
	return nil
}

func (r *Registry) addDuplexes(ds []*DuplexInstruction) error {
	for _, d := range ds {
		if err := r.claim(d.Name, KindDuplex); err != nil {
			return err
		}
		r.duplex = append(r.duplex, d)
		r.duplexByName[d.Name] = d
	}
	return nil
}

// Normal returns the normal instructions in catalog order.
func (r *Registry) Normal() []*Instruction {
	return slices.Clone(r.normal)
}

// Sub returns the sub-instructions in catalog order.
func (r *Registry) Sub() []*SubInstruction {
	return slices.Clone(r.sub)
}

// Duplex returns the duplex instructions in synthesis order.
func (r *Registry) Duplex() []*DuplexInstruction {
	return slices.Clone(r.duplex)
}

func (r *Registry) Instruction(name string) (*Instruction, bool) {
	insn, ok := r.normalByName[name]
	return insn, ok
}

func (r *Registry) SubInstruction(name string) (*SubInstruction, bool) {
	sub, ok := r.subByName[name]
	return sub, ok
}

func (r *Registry) DuplexInstruction(name string) (*DuplexInstruction, bool) {
	d, ok := r.duplexByName[name]
	return d, ok
}

// KindOf reports which namespace name was registered in.
func (r *Registry) KindOf(name string) (Kind, bool) {
	k, ok := r.names[name]
	return k, ok
}

// ByClass returns the normal instructions of one opcode class, in catalog
// order.
func (r *Registry) ByClass(class uint8) []*Instruction {
	var ret []*Instruction
	for _, insn := range r.normal {
		if insn.Class == class {
			ret = append(ret, insn)
		}
	}
	return ret
}
