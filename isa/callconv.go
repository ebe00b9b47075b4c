package isa

import (
	"github.com/Rot127/rz-hexagon/catalog"
)

// CallingConvention lists the argument and return registers, single
// registers first and then register pairs, for the general purpose (GPR)
// and the extended vector (EXT) register files.
type CallingConvention struct {
	GPRArgs     []string
	GPRRet      []string
	EXTArgs     []string
	EXTRet      []string
	CalleeSaved []string
}

// RegisterGroup is a named, ordered list of register names.
type RegisterGroup struct {
	Name      string
	Registers []string
}

func NewCallingConvention(cc catalog.CallingConvention, calleeSaved []catalog.Member) (CallingConvention, error) {
	csr, err := resolveMembers("callee saved registers", calleeSaved)
	if err != nil {
		return CallingConvention{}, err
	}
	return CallingConvention{
		GPRArgs:     concat(cc.GPRArgs, cc.GPRArgPairs),
		GPRRet:      concat(cc.GPRRet, cc.GPRRetPairs),
		EXTArgs:     concat(cc.EXTArgs, cc.EXTArgPairs),
		EXTRet:      concat(cc.EXTRet, cc.EXTRetPairs),
		CalleeSaved: csr,
	}, nil
}

// Groups returns the register lists under the names emitters use for them.
func (cc CallingConvention) Groups() []RegisterGroup {
	return []RegisterGroup{
		{Name: "GPR_args", Registers: cc.GPRArgs},
		{Name: "GPR_ret", Registers: cc.GPRRet},
		{Name: "EXT_args", Registers: cc.EXTArgs},
		{Name: "EXT_ret", Registers: cc.EXTRet},
		{Name: "callee_saved", Registers: cc.CalleeSaved},
	}
}

func concat(a, b []string) []string {
	ret := make([]string, 0, len(a)+len(b))
	ret = append(ret, a...)
	return append(ret, b...)
}
