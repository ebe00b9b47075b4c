package isa

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ArchVersion is a Hexagon architecture revision, such as 65 for V65.
type ArchVersion uint8

// Versions is the set of architecture revisions an instruction is
// predicated on.
type Versions map[ArchVersion]struct{}

func (v ArchVersion) String() string {
	return fmt.Sprintf("V%d", uint8(v))
}

// ParseArchVersion reads a version predicate such as "HasV65" or
// "UseHVXV68". ok is false for predicates that are not about the
// architecture revision.
func ParseArchVersion(pred string) (v ArchVersion, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(pred, "HasV"):
		rest = pred[len("HasV"):]
	case strings.HasPrefix(pred, "UseHVXV"):
		rest = pred[len("UseHVXV"):]
	default:
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 8)
	if err != nil {
		return 0, false
	}
	return ArchVersion(n), true
}

func (vs Versions) Has(v ArchVersion) bool {
	_, ok := vs[v]
	return ok
}

func (vs Versions) Add(v ArchVersion) {
	vs[v] = struct{}{}
}

// Sorted returns the versions in ascending order.
func (vs Versions) Sorted() []ArchVersion {
	ret := make([]ArchVersion, 0, len(vs))
	for v := range vs {
		ret = append(ret, v)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i] < ret[j]
	})
	return ret
}

// Min returns the oldest version in the set, or 0 for an empty set.
func (vs Versions) Min() ArchVersion {
	sorted := vs.Sorted()
	if len(sorted) == 0 {
		return 0
	}
	return sorted[0]
}

func (vs Versions) String() string {
	var buf strings.Builder
	for i, v := range vs.Sorted() {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(v.String())
	}
	return buf.String()
}
