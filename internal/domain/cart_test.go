package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupProductIDs(t *testing.T) {
	got := GroupProductIDs([]string{"p", "q", "p", "r", "p"})

	assert.Equal(t, []CartEntry{
		{ProductID: "p", Quantity: 3},
		{ProductID: "q", Quantity: 1},
		{ProductID: "r", Quantity: 1},
	}, got)
	assert.Empty(t, GroupProductIDs(nil))
}

func TestRemoveOne(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		id    string
		want  []string
		found bool
	}{
		{"removes last occurrence", []string{"p", "q", "p"}, "p", []string{"p", "q"}, true},
		{"removes only unit", []string{"q", "p"}, "p", []string{"q"}, true},
		{"absent id", []string{"q"}, "p", []string{"q"}, false},
		{"empty", nil, "p", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, found := RemoveOne(tc.ids, tc.id)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRemoveOne_DoesNotMutateInput(t *testing.T) {
	ids := []string{"p", "q", "p"}
	_, _ = RemoveOne(ids, "q")
	assert.Equal(t, []string{"p", "q", "p"}, ids)
}

func TestSetCount(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		qty  int
		want []string
	}{
		{"grow", []string{"p", "q"}, 3, []string{"p", "q", "p", "p"}},
		{"shrink keeps first copies", []string{"p", "q", "p", "p"}, 1, []string{"p", "q"}},
		{"zero removes", []string{"p", "q", "p"}, 0, []string{"q"}},
		{"negative treated as zero", []string{"p"}, -2, []string{}},
		{"add new", []string{"q"}, 2, []string{"q", "p", "p"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SetCount(tc.ids, "p", tc.qty)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, max(tc.qty, 0), CountOf(got, "p"))
		})
	}
}

func TestRepeat(t *testing.T) {
	assert.Equal(t, []string{"p", "p", "p"}, Repeat("p", 3))
	assert.Empty(t, Repeat("p", 0))
}
