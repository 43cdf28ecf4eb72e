package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Product Status Tests
// ============================================================================

func TestValidStatuses_ContainsAll(t *testing.T) {
	expected := []string{ProductStatusPending, ProductStatusApproved, ProductStatusRejected}
	assert.ElementsMatch(t, expected, ValidStatuses())
}

func TestIsValidStatus_Invalid(t *testing.T) {
	assert.False(t, IsValidStatus("unknown"))
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsValidStatus("APPROVED"))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{ProductStatusPending, ProductStatusApproved, true},
		{ProductStatusPending, ProductStatusRejected, true},
		{ProductStatusApproved, ProductStatusRejected, true},
		{ProductStatusRejected, ProductStatusApproved, true},
		{ProductStatusApproved, ProductStatusApproved, true},
		{ProductStatusApproved, ProductStatusPending, false},
		{ProductStatusRejected, ProductStatusPending, false},
		{ProductStatusPending, "archived", false},
		{"", ProductStatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

// ============================================================================
// Category Tests
// ============================================================================

func TestNormalizeCategories(t *testing.T) {
	got := NormalizeCategories([]string{" AI ", "Dev Tools", "", "AI", "  ", "Design"})
	assert.Equal(t, []string{"AI", "Dev Tools", "Design"}, got)
}

func TestNormalizeCategories_Empty(t *testing.T) {
	assert.Empty(t, NormalizeCategories(nil))
	assert.Empty(t, NormalizeCategories([]string{" ", ""}))
}

func TestHasCategory_CaseSensitive(t *testing.T) {
	p := &Product{Categories: []string{"AI", "Productivity"}}
	assert.True(t, p.HasCategory("AI"))
	assert.False(t, p.HasCategory("ai"))
	assert.False(t, p.HasCategory("Design"))
}
