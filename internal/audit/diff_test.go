package audit

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDiffSnapshotsNoChange(t *testing.T) {
	s := Snapshot{"status": "PENDING", "location": "Mundra"}
	assert.Equal(t, "", DiffSnapshots(s, s))
}

func TestDiffSnapshotsChangedFields(t *testing.T) {
	before := Snapshot{"status": "PENDING", "location": "Mundra", "asset": "Shredder"}
	after := Snapshot{"status": "COMPLETED", "location": "Mundra", "asset": "Shredder line"}

	got := DiffSnapshots(before, after)
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 2)
	// Sorted by field name: asset before status.
	assert.Contains(t, lines[0], `asset: "Shredder" -> "Shredder line"`)
	assert.Contains(t, lines[1], `status: "PENDING" -> "COMPLETED"`)
}

func TestDiffSnapshotsAddedAndRemovedFields(t *testing.T) {
	before := Snapshot{"cha": "Seabird"}
	after := Snapshot{"engineer": "Rao"}

	got := DiffSnapshots(before, after)
	assert.Contains(t, got, `cha: "Seabird" -> ""`)
	assert.Contains(t, got, `engineer: "" -> "Rao"`)
}

func TestDiffSnapshotsLongFieldUsesTextDiff(t *testing.T) {
	long := strings.Repeat("All primary checks completed. ", 4)
	before := Snapshot{"body": long + "No deviations."}
	after := Snapshot{"body": long + "Two minor deviations."}

	got := DiffSnapshots(before, after)
	assert.Contains(t, got, "[-")
	assert.Contains(t, got, "[+")
	assert.NotContains(t, got, `-> "`)
}

func TestDiffText(t *testing.T) {
	got := DiffText("fee 1000", "fee 1500")
	assert.Contains(t, got, "[-")
	assert.Contains(t, got, "[+")

	// Long unchanged runs are elided.
	long := strings.Repeat("x", 50)
	got = DiffText(long+"a", long+"b")
	assert.Contains(t, got, "…")
}

func TestDiffTextMultiByteStaysValidUTF8(t *testing.T) {
	// Elision cuts 8 bytes off each end of the unchanged run; with 3-byte
	// runes those offsets land mid-rune unless the cut backs off.
	long := strings.Repeat("日", 30)
	got := DiffText(long+"a", long+"b")
	assert.True(t, utf8.ValidString(got), "elided run split a rune: %q", got)
	assert.Contains(t, got, "…")

	// Truncation of a long inserted run must also land on a rune boundary.
	got = DiffText("x", "x"+long)
	assert.True(t, utf8.ValidString(got), "truncated insert split a rune: %q", got)
	assert.Contains(t, got, "…")

	assert.Equal(t, "日日", tail(strings.Repeat("日", 4), 8))
	assert.Equal(t, "日日", head(strings.Repeat("日", 4), 8))
}
