package isa

import (
	"regexp"
	"slices"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Rot127/rz-hexagon/catalog"
	"github.com/Rot127/rz-hexagon/config"
)

const RegisterClassEnumPrefix = "HEX_REG_CLASS_"

type HardwareRegister struct {
	Name       string
	AsmName    string
	Class      string
	HWEncoding uint
	Size       uint // In bits.
	Aliases    []string
}

func (r *HardwareRegister) EnumName() string {
	return RegisterEnumPrefix + makeIdentSnake(r.Class) + "_" + makeIdentUpper(r.Name)
}

// RegisterClass is an ordered collection of registers.
type RegisterClass struct {
	Name string
	Size uint

	regs   []*HardwareRegister
	byName map[string]*HardwareRegister
}

func (c *RegisterClass) EnumName() string {
	return RegisterClassEnumPrefix + makeIdentSnake(c.Name)
}

// Registers returns the registers in member list order.
func (c *RegisterClass) Registers() []*HardwareRegister {
	return slices.Clone(c.regs)
}

// ByEncoding returns the registers ordered by hardware encoding.
func (c *RegisterClass) ByEncoding() []*HardwareRegister {
	ret := slices.Clone(c.regs)
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].HWEncoding < ret[j].HWEncoding
	})
	return ret
}

func (c *RegisterClass) Register(name string) (*HardwareRegister, bool) {
	r, ok := c.byName[name]
	return r, ok
}

func (c *RegisterClass) Len() int {
	return len(c.regs)
}

// RegisterCatalog holds the register classes of a model in catalog order.
type RegisterCatalog struct {
	classes []*RegisterClass
	byName  map[string]*RegisterClass
}

// NewRegisterCatalog builds a RegisterClass for every class of cat that is
// not excluded by cfg.
func NewRegisterCatalog(cat *catalog.Catalog, cfg config.Registers, log logrus.FieldLogger) (*RegisterCatalog, error) {
	var reverse *regexp.Regexp
	if cfg.ReversePattern != "" {
		var err error
		reverse, err = regexp.Compile(cfg.ReversePattern)
		if err != nil {
			return nil, errorf(ErrMalformedEncoding, "", "reverse register pattern: %v", err)
		}
	}
	excluded := stringSet(cfg.ExcludedClasses)
	fake := stringSet(cat.FakeRegisters, cfg.FakeRegisters)

	ret := &RegisterCatalog{
		byName: make(map[string]*RegisterClass),
	}
	var total int
	for _, rc := range cat.RegisterClasses {
		if excluded[rc.Name] {
			log.WithField("class", rc.Name).Debug("Register class excluded")
			continue
		}
		if _, ok := ret.byName[rc.Name]; ok {
			return nil, errorf(ErrDuplicateDefinition, rc.Name, "register class defined twice")
		}

		names, err := resolveMembers(rc.Name, rc.Members)
		if err != nil {
			return nil, err
		}
		classFake := stringSet(cfg.ClassFakeMembers[rc.Name])

		// Double register classes leave Size at 0 and rely on the
		// alignment instead.
		size := rc.Size
		if size == 0 {
			size = rc.Alignment
		}

		class := &RegisterClass{
			Name:   rc.Name,
			Size:   size,
			byName: make(map[string]*HardwareRegister),
		}
		encodings := make(map[uint]string)
		for _, name := range names {
			if fake[name] || classFake[name] {
				continue
			}
			if reverse != nil && reverse.MatchString(name) {
				continue
			}

			desc, ok := cat.Registers[name]
			if !ok {
				return nil, errorf(ErrUnresolvedReference, rc.Name, "member %s has no register definition", name)
			}
			if _, ok := class.byName[name]; ok {
				return nil, errorf(ErrDuplicateDefinition, rc.Name, "register %s listed twice", name)
			}
			if prev, ok := encodings[desc.HWEncoding]; ok {
				return nil, errorf(ErrDuplicateDefinition, rc.Name, "registers %s and %s share hardware encoding %d", prev, name, desc.HWEncoding)
			}
			encodings[desc.HWEncoding] = name

			reg := &HardwareRegister{
				Name:       name,
				AsmName:    desc.AsmName,
				Class:      rc.Name,
				HWEncoding: desc.HWEncoding,
				Size:       size,
				Aliases:    slices.Clone(desc.AltNames),
			}
			class.regs = append(class.regs, reg)
			class.byName[name] = reg
		}

		ret.classes = append(ret.classes, class)
		ret.byName[class.Name] = class
		total += len(class.regs)
	}

	log.WithFields(logrus.Fields{
		"registers": total,
		"classes":   len(ret.classes),
	}).Info("Parsed hardware registers")
	return ret, nil
}

// resolveMembers flattens a member list into register names.
func resolveMembers(owner string, members []catalog.Member) ([]string, error) {
	var names []string
	for _, m := range members {
		if m.Def != "" {
			names = append(names, m.Def)
			continue
		}
		seq, err := UnfoldSequence(m.Sequence)
		if err != nil {
			return nil, errorf(ErrUnresolvedReference, owner, "%v", err)
		}
		names = append(names, seq...)
	}
	return names, nil
}

// Classes returns the register classes in catalog order.
func (c *RegisterCatalog) Classes() []*RegisterClass {
	return slices.Clone(c.classes)
}

func (c *RegisterCatalog) Class(name string) (*RegisterClass, bool) {
	rc, ok := c.byName[name]
	return rc, ok
}

// Lookup finds a register by name in the first class that has it.
func (c *RegisterCatalog) Lookup(name string) (*HardwareRegister, bool) {
	for _, rc := range c.classes {
		if r, ok := rc.byName[name]; ok {
			return r, true
		}
	}
	return nil, false
}

func stringSet(lists ...[]string) map[string]bool {
	ret := make(map[string]bool)
	for _, l := range lists {
		for _, s := range l {
			ret[s] = true
		}
	}
	return ret
}
