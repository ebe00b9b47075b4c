package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
	"rsc.io/diff"
)

// Compare reports the structural differences between two marshaled
// snapshots. The report is empty when changed is false.
func Compare(previous, current []byte, color bool) (report string, changed bool, err error) {
	delta, err := gojsondiff.New().Compare(previous, current)
	if err != nil {
		return "", false, fmt.Errorf("failed to compare snapshots: %w", err)
	}
	if !delta.Modified() {
		return "", false, nil
	}

	var left map[string]interface{}
	if err := json.Unmarshal(previous, &left); err != nil {
		return "", false, fmt.Errorf("failed to parse previous snapshot: %w", err)
	}
	f := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       color,
	})
	report, err = f.Format(delta)
	if err != nil {
		return "", true, fmt.Errorf("failed to format snapshot diff: %w", err)
	}
	return report, true, nil
}

// TextDiff returns a line based diff of two marshaled snapshots.
func TextDiff(previous, current []byte) string {
	return diff.Format(string(previous), string(current))
}
