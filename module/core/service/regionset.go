package service

import (
	"sort"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

// RegionSet tracks what the caller wants watched against what the
// monitoring service has acknowledged. It is not safe for concurrent use;
// the owning Synchronizer serializes access.
type RegionSet struct {
	desired   map[string]domain.Region
	confirmed map[string]domain.Region
}

func NewRegionSet() *RegionSet {
	return &RegionSet{
		desired:   make(map[string]domain.Region),
		confirmed: make(map[string]domain.Region),
	}
}

// SetDesired replaces the desired set with regions and returns the diff
// against the confirmed set. Invalid regions are left out of desired and
// returned in Diff.Invalid. Later duplicates of an id win.
func (s *RegionSet) SetDesired(regions []domain.Region) domain.Diff {
	desired := make(map[string]domain.Region, len(regions))
	var invalid []domain.InvalidRegion
	for _, r := range regions {
		if err := r.Validate(); err != nil {
			invalid = append(invalid, domain.InvalidRegion{Region: r, Err: err})
			continue
		}
		desired[r.ID] = r
	}
	s.desired = desired

	diff := s.Diff()
	diff.Invalid = invalid
	return diff
}

// Diff computes the delta for the current desired set. A desired region
// whose value differs from its confirmed counterpart is re-added.
func (s *RegionSet) Diff() domain.Diff {
	var diff domain.Diff
	for id, r := range s.desired {
		if c, ok := s.confirmed[id]; !ok || c != r {
			diff.ToAdd = append(diff.ToAdd, r)
		}
	}
	for id := range s.confirmed {
		if _, ok := s.desired[id]; !ok {
			diff.ToRemove = append(diff.ToRemove, id)
		}
	}
	sortRegions(diff.ToAdd)
	sort.Strings(diff.ToRemove)
	return diff
}

// MarkConfirmed records a successful remote change. Applying the same
// confirmation twice is a no-op.
func (s *RegionSet) MarkConfirmed(added []domain.Region, removedIDs []string) {
	for _, r := range added {
		s.confirmed[r.ID] = r
	}
	for _, id := range removedIDs {
		delete(s.confirmed, id)
	}
}

func (s *RegionSet) Desired() []domain.Region {
	return values(s.desired)
}

func (s *RegionSet) Confirmed() []domain.Region {
	return values(s.confirmed)
}

func (s *RegionSet) IsConfirmed(id string) bool {
	_, ok := s.confirmed[id]
	return ok
}

func values(m map[string]domain.Region) []domain.Region {
	out := make([]domain.Region, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sortRegions(out)
	return out
}

func sortRegions(regions []domain.Region) {
	sort.Slice(regions, func(i, j int) bool { return regions[i].ID < regions[j].ID })
}
