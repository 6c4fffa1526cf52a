package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name    string
		rules   []schema.CategoryRule
		wantErr bool
	}{
		{name: "no rules", rules: nil, wantErr: true},
		{name: "exact", rules: []schema.CategoryRule{{Title: "Ops", Kind: schema.ExactRule, Match: []string{"ops"}}}},
		{name: "wildcard without title", rules: []schema.CategoryRule{{Kind: schema.WildcardRule, Match: []string{"team-*"}}}},
		{name: "group without title", rules: []schema.CategoryRule{{Kind: schema.GroupRule, Match: []string{"x"}}}, wantErr: true},
		{name: "unknown kind", rules: []schema.CategoryRule{{Title: "X", Kind: "regex", Match: []string{"x"}}}, wantErr: true},
		{name: "empty match", rules: []schema.CategoryRule{{Title: "X", Kind: schema.ExactRule}}, wantErr: true},
		{name: "bad glob", rules: []schema.CategoryRule{{Title: "X", Kind: schema.GroupRule, Match: []string{"[a-"}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRules(tt.rules)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.ErrorIs(t, ValidateRules(nil), ErrNoRules)
}

var testRules = []schema.CategoryRule{
	{Title: "Operations", Kind: schema.ExactRule, Match: []string{"ops"}},
	{Title: "Infra", Kind: schema.GroupRule, Match: []string{"infra-*", "network"}, Display: schema.Ptr(false)},
	{Kind: schema.WildcardRule, Match: []string{"team-*"}},
	{Title: "Infra", Kind: schema.ExactRule, Match: []string{"legacy-infra"}},
}

func TestApplyRules(t *testing.T) {
	snaps := []schema.TaskSnapshot{
		snap("T1", week1, schema.OpenStatus, "ops", 1),
		snap("T2", week1, schema.OpenStatus, "infra-dns", 1),
		snap("T3", week1, schema.OpenStatus, "network", 1),
		snap("T4", week1, schema.OpenStatus, "team-b", 1),
		snap("T5", week1, schema.OpenStatus, "misc", 1),
		snap("T6", week1, schema.OpenStatus, "legacy-infra", 1),
	}
	got := ApplyRules(snaps, testRules)

	var categories []string
	for _, s := range got {
		categories = append(categories, s.Category)
	}
	assert.Equal(t, []string{"Operations", "Infra", "Infra", "team-b", "Infra"}, categories)
	assert.Equal(t, "misc", snaps[4].Category, "input is not modified")
}

func TestDeriveCategoryMeta(t *testing.T) {
	raw := []string{"team-b", "ops", "team-a", "team-b", "misc"}
	got := DeriveCategoryMeta("ABC", raw, testRules)

	assert.Equal(t, []schema.CategoryMeta{
		{Source: "ABC", Category: "Operations", SortOrder: 0, Zoom: true},
		{Source: "ABC", Category: "Infra", SortOrder: 1, Zoom: false},
		{Source: "ABC", Category: "team-a", SortOrder: 2, Zoom: true},
		{Source: "ABC", Category: "team-b", SortOrder: 3, Zoom: true},
	}, got)
}

func TestRecategorizeRetroactive(t *testing.T) {
	snaps := []schema.TaskSnapshot{
		snap("T1", week1, schema.OpenStatus, "Docs", 1),
		snap("T1", week2, schema.OpenStatus, "Infra", 1),
		snap("T2", week1, schema.OpenStatus, "Docs", 1), // gone by week2, keeps its own latest
		snap("T3", week1, schema.OpenStatus, "Infra", 1),
		snap("T3", week2, schema.OpenStatus, "Infra", 1),
	}
	got, changed := RecategorizeRetroactive(snaps)
	assert.Equal(t, 1, changed)
	assert.Equal(t, "Infra", got[0].Category)
	assert.Equal(t, "Docs", got[2].Category)
	assert.Equal(t, "Docs", snaps[0].Category, "input is not modified")

	again, changed := RecategorizeRetroactive(got)
	assert.Equal(t, 0, changed)
	assert.Equal(t, got, again)
}

func TestApplyPointsAndDefaults(t *testing.T) {
	unpointed := snap("T2", week2, schema.OpenStatus, "Infra", 0)
	unpointed.Points = nil
	snaps := []schema.TaskSnapshot{
		snap("T1", week1, schema.OpenStatus, "Infra", 1),
		snap("T1", week2, schema.OpenStatus, "Infra", 8),
		unpointed,
	}

	retro := ApplyPointsRetroactive(snaps)
	assert.Equal(t, 8.0, *retro[0].Points)
	assert.Equal(t, 1.0, *snaps[0].Points)

	defaulted := ApplyDefaultPoints(snaps, 2)
	assert.Equal(t, 2.0, *defaulted[2].Points)
	assert.Equal(t, 1.0, *defaulted[0].Points)
	assert.Nil(t, snaps[2].Points)
}

func TestExcludeResolvedBefore(t *testing.T) {
	snaps := []schema.TaskSnapshot{
		snap("OLD", week1, schema.ResolvedStatus, "Infra", 1),
		snap("OLD", week2, schema.ResolvedStatus, "Infra", 1),
		snap("NEW", week1, schema.OpenStatus, "Infra", 1),
		snap("NEW", week2, schema.ResolvedStatus, "Infra", 1),
	}
	got := ExcludeResolvedBefore(snaps, week1)
	require.Len(t, got, 2)
	for _, s := range got {
		assert.Equal(t, "NEW", s.TaskID)
	}
	assert.Len(t, ExcludeResolvedBefore(snaps, week1.AddDate(0, 0, -1)), 4)
}

func TestPrepareOrder(t *testing.T) {
	snaps := []schema.TaskSnapshot{
		snap("OLD", week1, schema.ResolvedStatus, "ops", 1),
		snap("T1", week1, schema.OpenStatus, "infra-dns", 0),
		snap("T1", week2, schema.OpenStatus, "ops", 0),
		snap("T2", week2, schema.OpenStatus, "misc", 1),
	}
	snaps[1].Points = nil
	snaps[2].Points = nil

	opts := contract.SourceOptions{
		ResolvedCutoff:        week1,
		RetroactiveCategories: true,
		DefaultPoints:         schema.Ptr(3.0),
	}
	got, stats := Prepare(snaps, opts, testRules)

	assert.Equal(t, PrepareStats{Input: 4, ExcludedRows: 1, UnmatchedRows: 1, Recategorized: 1, Output: 2}, stats)
	require.Len(t, got, 2)
	for _, s := range got {
		assert.Equal(t, "T1", s.TaskID)
		assert.Equal(t, "Operations", s.Category)
		assert.Equal(t, 3.0, *s.Points)
	}
	assert.Equal(t, "ops", snaps[0].Category, "input is not modified")
}

func TestComputeIdempotent(t *testing.T) {
	var snaps []schema.TaskSnapshot
	for i := range 8 {
		d := week1.AddDate(0, 0, 7*i)
		for j := range 6 {
			status := schema.OpenStatus
			if j < i {
				status = schema.ResolvedStatus
			}
			snaps = append(snaps, snap(string(rune('A'+j)), d, status, "Infra", float64(j+1)))
		}
	}
	opts := ComputeOptions{Grid: NewGrid(time.Time{})}

	first := Compute("ABC", snaps, opts)
	second := Compute("ABC", snaps, opts)
	assert.Equal(t, first, second)
	assert.Equal(t, "ABC", first.Source)
	assert.NotEmpty(t, first.Velocity)
	assert.NotEmpty(t, first.RecentlyClosed)
	// The first week is all open and the last two are all resolved.
	assert.Len(t, first.TallBacklog, 13)
}

func TestComputeAsOf(t *testing.T) {
	snaps := []schema.TaskSnapshot{
		snap("T1", week1, schema.OpenStatus, "Infra", 2),
		snap("T1", week2, schema.ResolvedStatus, "Infra", 2),
		snap("T1", week3, schema.ResolvedStatus, "Infra", 2),
	}
	set := Compute("ABC", snaps, ComputeOptions{AsOf: week2, Grid: NewGrid(time.Time{})})
	for _, e := range set.TallBacklog {
		assert.False(t, e.Date.After(week2))
	}
	require.Len(t, set.Velocity, 2)
	// No snapshot the day before week2, so T1 counts as newly closed there.
	require.Len(t, set.RecentlyClosedTasks, 1)
	assert.Equal(t, week2, set.RecentlyClosedTasks[0].Date)
}
