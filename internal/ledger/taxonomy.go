// Package ledger implements the categorization and aggregation engine:
// the two-level group/subgroup taxonomy, the ordered transaction book,
// the orphan reconciliation scan, statement aggregation, and CSV export.
//
// Everything here is pure in-memory state over core types; persistence and
// activity logging live in the service layer.
package ledger

import (
	"strings"

	"github.com/google/uuid"

	"spendsense/internal/core"
)

// Taxonomy is the ordered collection of ledger groups. Lookups are lenient:
// a missing id is reported through the bool result, never an error, and
// duplicate display names are permitted.
type Taxonomy struct {
	Groups []core.LedgerGroup
}

// AddGroup appends a new group and returns its assigned id.
func (t *Taxonomy) AddGroup(name string, dir core.Direction) (string, error) {
	g := core.LedgerGroup{
		ID:        "group-" + uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Direction: dir,
		Subgroups: []core.LedgerSubgroup{},
	}
	if err := g.Validate(); err != nil {
		return "", err
	}
	t.Groups = append(t.Groups, g)
	return g.ID, nil
}

// RemoveGroup drops the group unconditionally. Transactions referencing it
// are untouched; they become orphans until the reconciliation scan says
// otherwise.
func (t *Taxonomy) RemoveGroup(id string) {
	kept := t.Groups[:0]
	for _, g := range t.Groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	t.Groups = kept
}

// AddSubgroup appends a subgroup to the named group. A blank name or an
// unknown group is a silent no-op, reported through the bool result.
func (t *Taxonomy) AddSubgroup(groupID, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for i := range t.Groups {
		if t.Groups[i].ID != groupID {
			continue
		}
		sub := core.LedgerSubgroup{
			ID:      "sub-" + uuid.NewString(),
			Name:    name,
			GroupID: groupID,
		}
		t.Groups[i].Subgroups = append(t.Groups[i].Subgroups, sub)
		return sub.ID, true
	}
	return "", false
}

// RemoveSubgroup drops the subgroup from its group, unconditionally.
func (t *Taxonomy) RemoveSubgroup(groupID, subgroupID string) {
	for i := range t.Groups {
		if t.Groups[i].ID != groupID {
			continue
		}
		kept := t.Groups[i].Subgroups[:0]
		for _, s := range t.Groups[i].Subgroups {
			if s.ID != subgroupID {
				kept = append(kept, s)
			}
		}
		t.Groups[i].Subgroups = kept
		return
	}
}

func (t Taxonomy) FindGroup(id string) (core.LedgerGroup, bool) {
	for _, g := range t.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return core.LedgerGroup{}, false
}

// FindSubgroup resolves a subgroup within its owning group. Both ids must
// resolve and the subgroup must belong to that group.
func (t Taxonomy) FindSubgroup(groupID, subgroupID string) (core.LedgerSubgroup, bool) {
	g, ok := t.FindGroup(groupID)
	if !ok {
		return core.LedgerSubgroup{}, false
	}
	for _, s := range g.Subgroups {
		if s.ID == subgroupID {
			return s, true
		}
	}
	return core.LedgerSubgroup{}, false
}

// SubgroupName is a display helper over FindSubgroup.
func (t Taxonomy) SubgroupName(groupID, subgroupID string) (string, bool) {
	s, ok := t.FindSubgroup(groupID, subgroupID)
	if !ok {
		return "", false
	}
	return s.Name, true
}

// GroupOfSubgroup finds the group owning the given subgroup id, the lookup
// the manual-entry form needs when only a subgroup was chosen.
func (t Taxonomy) GroupOfSubgroup(subgroupID string) (core.LedgerGroup, bool) {
	for _, g := range t.Groups {
		for _, s := range g.Subgroups {
			if s.ID == subgroupID {
				return g, true
			}
		}
	}
	return core.LedgerGroup{}, false
}
