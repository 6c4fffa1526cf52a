package core

import (
	"errors"
	"fmt"
	"path"
	"slices"

	"github.com/huangsam/tranche/schema"
)

// ErrNoRules is returned when a rules file defines no rules.
var ErrNoRules = errors.New("no category rules defined")

// ValidateRules checks every rule for a known kind, usable patterns and a title where one is needed.
func ValidateRules(rules []schema.CategoryRule) error {
	if len(rules) == 0 {
		return ErrNoRules
	}
	for i, r := range rules {
		if _, ok := schema.ValidRuleKinds[r.Kind]; !ok {
			return fmt.Errorf("rule %d: invalid kind %q (must be exact, wildcard or group)", i+1, r.Kind)
		}
		if len(r.Match) == 0 {
			return fmt.Errorf("rule %d: match must list at least one pattern", i+1)
		}
		if r.Kind != schema.WildcardRule && r.Title == "" {
			return fmt.Errorf("rule %d: %s rules require a title", i+1, r.Kind)
		}
		if r.Kind == schema.ExactRule {
			continue
		}
		for _, p := range r.Match {
			if _, err := path.Match(p, ""); err != nil {
				return fmt.Errorf("rule %d: bad pattern %q: %w", i+1, p, err)
			}
		}
	}
	return nil
}

// matchRule reports whether raw satisfies the rule and returns the category it maps to.
func matchRule(r schema.CategoryRule, raw string) (string, bool) {
	for _, p := range r.Match {
		if r.Kind == schema.ExactRule {
			if p == raw {
				return r.Title, true
			}
			continue
		}
		if ok, _ := path.Match(p, raw); ok {
			if r.Kind == schema.WildcardRule {
				return raw, true
			}
			return r.Title, true
		}
	}
	return "", false
}

// ApplyRules relabels a copy of snapshots with the first rule matching each row's raw
// category. Rows that no rule matches are dropped.
func ApplyRules(snapshots []schema.TaskSnapshot, rules []schema.CategoryRule) []schema.TaskSnapshot {
	out := make([]schema.TaskSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		for _, r := range rules {
			if category, ok := matchRule(r, s.Category); ok {
				s.Category = category
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// DeriveCategoryMeta numbers the categories produced by rules in rule order. Wildcard
// rules expand into one category per distinct raw category they match, in name order.
// A category produced twice keeps its first position.
func DeriveCategoryMeta(source string, rawCategories []string, rules []schema.CategoryRule) []schema.CategoryMeta {
	raw := slices.Clone(rawCategories)
	slices.Sort(raw)
	raw = slices.Compact(raw)

	var metas []schema.CategoryMeta
	seen := make(map[string]struct{})
	add := func(category string, zoom bool) {
		if _, dup := seen[category]; dup {
			return
		}
		seen[category] = struct{}{}
		metas = append(metas, schema.CategoryMeta{
			Source:    source,
			Category:  category,
			SortOrder: len(metas),
			Zoom:      zoom,
		})
	}

	for _, r := range rules {
		if r.Kind != schema.WildcardRule {
			add(r.Title, r.Displayed())
			continue
		}
		for _, c := range raw {
			if _, ok := matchRule(r, c); ok {
				add(c, r.Displayed())
			}
		}
	}
	return metas
}
