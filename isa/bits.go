package isa

import (
	"fmt"
)

// Bits32 holds the bits of one instruction word.
type Bits32 uint32

func (v Bits32) String() string {
	return fmt.Sprintf("0b%032b", uint32(v))
}

// rangeMask returns the mask covering bits top down to bottom, inclusive.
func rangeMask(top, bottom uint) Bits32 {
	return Bits32((uint64(1) << (top + 1)) - (uint64(1) << bottom))
}
