package isa

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// (sequence "R%u", 0, 31), as tblgen prints it.
	tblgenSequence = regexp.MustCompile(`^\(sequence\s+"([^"]*)"\s*,\s*(\d+)\s*,\s*(\d+)\s*\)$`)

	// R0..R3 or R0..3
	compactSequence = regexp.MustCompile(`^([A-Za-z_]+)(\d+)\.\.([A-Za-z_]*)(\d+)$`)
)

// UnfoldSequence expands a register sequence into the names it denotes, in
// order. A sequence whose first index is larger than its last counts down.
func UnfoldSequence(seq string) ([]string, error) {
	seq = strings.TrimSpace(seq)

	if m := tblgenSequence.FindStringSubmatch(seq); m != nil {
		format := m[1]
		if strings.Count(format, "%u") != 1 {
			return nil, fmt.Errorf("sequence %q: format must contain exactly one %%u", seq)
		}
		first, last, err := sequenceBounds(seq, m[2], m[3])
		if err != nil {
			return nil, err
		}
		return unfold(first, last, func(n int) string {
			return strings.Replace(format, "%u", strconv.Itoa(n), 1)
		}), nil
	}

	if m := compactSequence.FindStringSubmatch(seq); m != nil {
		prefix := m[1]
		if m[3] != "" && m[3] != prefix {
			return nil, fmt.Errorf("sequence %q mixes the prefixes %s and %s", seq, prefix, m[3])
		}
		first, last, err := sequenceBounds(seq, m[2], m[4])
		if err != nil {
			return nil, err
		}
		return unfold(first, last, func(n int) string {
			return prefix + strconv.Itoa(n)
		}), nil
	}

	return nil, fmt.Errorf("%q is not a register sequence", seq)
}

func sequenceBounds(seq, rawFirst, rawLast string) (first, last int, err error) {
	first, err = strconv.Atoi(rawFirst)
	if err != nil {
		return 0, 0, fmt.Errorf("sequence %q: %w", seq, err)
	}
	last, err = strconv.Atoi(rawLast)
	if err != nil {
		return 0, 0, fmt.Errorf("sequence %q: %w", seq, err)
	}
	return first, last, nil
}

func unfold(first, last int, name func(int) string) []string {
	step := 1
	if last < first {
		step = -1
	}
	var ret []string
	for n := first; ; n += step {
		ret = append(ret, name(n))
		if n == last {
			break
		}
	}
	return ret
}
