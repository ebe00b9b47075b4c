package isa

import (
	"strings"
	"unicode"
)

// Prefixes of the enumerator names an emitter generates.
const (
	InstructionEnumPrefix = "HEX_INS_"
	RegisterEnumPrefix    = "HEX_REG_"
)

// makeIdentUpper turns an instruction or register name into an upper case
// C identifier fragment. Anything that is not a letter or digit becomes an
// underscore.
func makeIdentUpper(inp string) string {
	var b strings.Builder
	for i, r := range inp {
		switch {
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// makeIdentSnake splits a CamelCase class name at its word boundaries,
// so "GeneralDoubleLow8Regs" becomes "GENERAL_DOUBLE_LOW8_REGS".
func makeIdentSnake(inp string) string {
	var b strings.Builder
	runes := []rune(inp)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
