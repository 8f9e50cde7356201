package content

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"clinicfront/models"
)

var ErrSectionNotFound = errors.New("content: section not found")

// SortSections orders sections by their order field, keeping API order for ties.
func SortSections(sections []models.Section) []models.Section {
	out := make([]models.Section, len(sections))
	copy(out, sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ActiveSections filters and sorts for the public About page.
func ActiveSections(sections []models.Section) []models.Section {
	var out []models.Section
	for _, s := range SortSections(sections) {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// MoveSection moves the section with id one step up (delta -1) or down
// (delta +1) and renumbers order to 0..n-1. Moving past either end is a no-op.
func MoveSection(sections []models.Section, id models.ID, delta int) ([]models.Section, error) {
	out := SortSections(sections)
	idx := -1
	for i, s := range out {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrSectionNotFound
	}
	target := idx + delta
	if target >= 0 && target < len(out) {
		out[idx], out[target] = out[target], out[idx]
	}
	for i := range out {
		out[i].Order = i
	}
	return out, nil
}

// OrderChanges returns the sections whose order differs from before.
func OrderChanges(before, after []models.Section) []models.Section {
	prev := make(map[models.ID]int, len(before))
	for _, s := range before {
		prev[s.ID] = s.Order
	}
	var changed []models.Section
	for _, s := range after {
		if old, ok := prev[s.ID]; !ok || old != s.Order {
			changed = append(changed, s)
		}
	}
	return changed
}

// PersistOrder patches the order of every changed section. It stops at the
// first failure; sections already patched keep their new order.
func (m *Manager) PersistOrder(ctx context.Context, before, after []models.Section) (int, error) {
	changed := OrderChanges(before, after)
	for i, s := range changed {
		if err := m.api.PatchRecord(ctx, SectionResource.Path, s.ID, map[string]any{"order": s.Order}); err != nil {
			return i, fmt.Errorf("content: reorder section %s: %w", s.ID, err)
		}
	}
	return len(changed), nil
}
