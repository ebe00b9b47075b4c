package isa

import (
	"github.com/Rot127/rz-hexagon/config"
)

// Validate checks the invariants an emitter relies on: every syntax string
// fits the configured buffer with its terminating NUL, names are unique
// across all instruction kinds and every calling convention register
// exists. The first violation is returned.
func Validate(m *Model, cfg config.Validation) error {
	for _, insn := range m.Registry.normal {
		if err := checkSyntax(insn.Name, insn.Syntax, cfg.MaxSyntaxLen); err != nil {
			return err
		}
	}
	for _, d := range m.Registry.duplex {
		if err := checkSyntax(d.Name, d.Syntax, cfg.MaxSyntaxLen); err != nil {
			return err
		}
	}

	names := make(map[string]Kind)
	claim := func(name string, kind Kind) error {
		if prev, ok := names[name]; ok {
			return errorf(ErrDuplicateDefinition, name, "defined as both a %s and a %s instruction", prev, kind)
		}
		names[name] = kind
		return nil
	}
	for _, insn := range m.Registry.normal {
		if err := claim(insn.Name, KindNormal); err != nil {
			return err
		}
	}
	for _, sub := range m.Registry.sub {
		if err := claim(sub.Name, KindSub); err != nil {
			return err
		}
	}
	for _, d := range m.Registry.duplex {
		if err := claim(d.Name, KindDuplex); err != nil {
			return err
		}
	}

	for _, g := range m.CallingConvention.Groups() {
		for _, reg := range g.Registers {
			if _, ok := m.Registers.Lookup(reg); !ok {
				return errorf(ErrUnresolvedReference, reg, "%s register is in no register class", g.Name)
			}
		}
	}
	return nil
}

func checkSyntax(name, syntax string, limit int) error {
	if len(syntax) >= limit {
		return errorf(ErrSyntaxTooLong, name, "syntax needs %d bytes, at most %d fit", len(syntax)+1, limit)
	}
	return nil
}
