// Package audit builds human-readable change summaries for the audit log.
package audit

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Snapshot is a flat field->value view of an entity, taken before and after
// a mutation.
type Snapshot map[string]string

// longFieldThreshold is the value length beyond which a field is diffed as
// free text instead of printed old -> new.
const longFieldThreshold = 64

// DiffSnapshots renders the changed fields between two snapshots, one line
// per field, sorted by field name. Returns "" when nothing changed.
func DiffSnapshots(before, after Snapshot) string {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	var lines []string
	for _, k := range names {
		oldV, newV := before[k], after[k]
		if oldV == newV {
			continue
		}
		if len(oldV) > longFieldThreshold || len(newV) > longFieldThreshold {
			lines = append(lines, fmt.Sprintf("%s: %s", k, DiffText(oldV, newV)))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %q -> %q", k, oldV, newV))
	}
	return strings.Join(lines, "\n")
}

// DiffText produces a compact inline summary of a free-text change using
// [-deleted-] and [+inserted+] markers, with unchanged runs elided.
func DiffText(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-")
			b.WriteString(truncate(d.Text, 40))
			b.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("[+")
			b.WriteString(truncate(d.Text, 40))
			b.WriteString("+]")
		case diffmatchpatch.DiffEqual:
			if len(d.Text) > 20 {
				b.WriteString(head(d.Text, 8))
				b.WriteString(" … ")
				b.WriteString(tail(d.Text, 8))
			} else {
				b.WriteString(d.Text)
			}
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return head(s, n) + "…"
}

// head returns at most n bytes from the start of s, backing off so a
// multi-byte rune is never split.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// tail returns at most n bytes from the end of s, on a rune boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
