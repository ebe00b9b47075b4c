// Package isa builds the instruction model of the Hexagon architecture from
// a catalog: the normal and sub-instructions with their bit encodings, the
// duplex instructions synthesized from pairs of sub-instructions, and the
// hardware registers.
//
// A Model is built once by Build and is not modified afterwards.
package isa

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Rot127/rz-hexagon/catalog"
	"github.com/Rot127/rz-hexagon/config"
)

type Model struct {
	Registry          *Registry
	Registers         *RegisterCatalog
	CallingConvention CallingConvention

	// DuplexStats records why sub-instruction pairs were not made into
	// duplexes.
	DuplexStats SynthesisStats
}

type Options struct {
	// Log receives progress messages. It defaults to the logrus standard
	// logger.
	Log logrus.FieldLogger
}

// Build constructs and validates a model. Any error aborts the build; no
// partial model is returned. A nil cfg means config.Default().
func Build(cat *catalog.Catalog, cfg *config.Config, opts Options) (*Model, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	regs, err := NewRegisterCatalog(cat, cfg.Registers, log)
	if err != nil {
		return nil, err
	}
	registry, err := NewRegistry(cat.Instructions, cfg, log)
	if err != nil {
		return nil, err
	}

	syn, err := NewSynthesizer(cfg, log)
	if err != nil {
		return nil, err
	}
	duplexes, err := syn.Synthesize(registry.sub)
	if err != nil {
		return nil, err
	}
	if err := registry.addDuplexes(duplexes); err != nil {
		return nil, err
	}

	cc, err := NewCallingConvention(cat.CallingConvention, cat.CalleeSaved)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Registry:          registry,
		Registers:         regs,
		CallingConvention: cc,
		DuplexStats:       syn.Stats(),
	}
	if err := Validate(m, cfg.Validation); err != nil {
		return nil, err
	}
	return m, nil
}
