package elementpath

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"simple", "visit", true},
		{"dotted", "visit.date", true},
		{"underscore and digits", "beneficiary_code2", true},
		{"unicode letters", "número.año", true},
		{"combining mark after letter", "e\u0301tat", true},
		{"empty", "", false},
		{"empty segment", "visit..date", false},
		{"trailing dot", "visit.", false},
		{"leading digit", "2visit", false},
		{"leading underscore", "_id", false},
		{"leading combining mark", "\u0301tat", false},
		{"hyphen", "visit-date", false},
		{"space", "visit date", false},
		{"operator", "=", false},
		{"placeholder", "?", false},
		{"quoted literal", "'abc'", false},
		{"reserved keyword", "select", false},
		{"reserved keyword mixed case", "SeLeCt", false},
		{"reserved segment", "visit.order", false},
		{"reserved metadata", "savepoint_type", false},
		{"reserved calculates", "Calculates", false},
		{"keyword as prefix is fine", "selected", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.path))
		})
	}
}

func TestIsValid_LengthBoundary(t *testing.T) {
	assert.True(t, IsValid(strings.Repeat("a", MaxLength)))
	assert.False(t, IsValid(strings.Repeat("a", MaxLength+1)))

	// length counts characters, not bytes
	assert.True(t, IsValid(strings.Repeat("é", MaxLength)))
}

func TestIsReserved(t *testing.T) {
	for _, name := range []string{"where", "WHERE", "current_timestamp", "form_id", "locale", "vacuum"} {
		assert.True(t, IsReserved(name), name)
	}
	for _, name := range []string{"visit", "code", "timestamp"} {
		assert.False(t, IsReserved(name), name)
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates("a.b.c")
	want := []Candidate{
		{Name: "a.b.c", Depth: 3},
		{Name: "a_b_c", Depth: 3},
		{Name: "a.b", Depth: 2},
		{Name: "a_b", Depth: 2},
		{Name: "a", Depth: 1},
	}
	assert.Equal(t, want, got)

	assert.Equal(t, []Candidate{{Name: "code", Depth: 1}}, Candidates("code"))
}

func TestSplitJoin(t *testing.T) {
	segments := Split("visit.date")
	assert.Equal(t, []string{"visit", "date"}, segments)
	assert.Equal(t, "visit.date", Join(segments...))
}
