package gridcore

import "tably/internal/baserpc"

// SortState reconciles the server-persisted sort with an optimistic local
// override. The override is applied the moment the user changes anything, so
// the grid reflects the new order with zero latency; the persistence call
// confirms or rolls it back afterwards.
//
// States: unknown (metadata not loaded), committed (server-confirmed, no
// override), pending (override present, mutation in flight or unconfirmed).
type SortState struct {
	committed   baserpc.SortConfig
	override    baserpc.SortConfig
	hasOverride bool
	known       bool
}

// Known reports whether the server sort has been loaded at least once. The
// sort participates in query keys only once known, so the initial load does
// not fetch under a transiently wrong key.
func (s *SortState) Known() bool { return s.known }

// SetCommitted installs the server-confirmed sort (from table metadata).
func (s *SortState) SetCommitted(sort baserpc.SortConfig) {
	s.committed = CloneSort(sort)
	s.known = true
}

// Committed returns the last server-confirmed sort.
func (s *SortState) Committed() baserpc.SortConfig { return s.committed }

// Pending reports whether an optimistic override is active.
func (s *SortState) Pending() bool { return s.hasOverride }

// Effective is the sort the UI and query keys use: the override when one is
// active, else the committed value.
func (s *SortState) Effective() baserpc.SortConfig {
	if s.hasOverride {
		return s.override
	}
	return s.committed
}

// Apply installs an optimistic override. nil means "unsorted".
func (s *SortState) Apply(sort baserpc.SortConfig) {
	s.override = CloneSort(sort)
	s.hasOverride = true
}

// Confirm records the server-confirmed value after a successful persistence
// call. The override is cleared only once it matches the confirmation, so a
// lagging confirmation cannot flicker an older order through the UI.
func (s *SortState) Confirm(sort baserpc.SortConfig) {
	s.committed = CloneSort(sort)
	s.known = true
	if s.hasOverride && SortEqual(s.override, s.committed) {
		s.override = nil
		s.hasOverride = false
	}
}

// Rollback drops the override after a failed persistence call, reverting
// the effective sort to the last server-confirmed value.
func (s *SortState) Rollback() {
	s.override = nil
	s.hasOverride = false
}

// Prune drops entries referencing deleted columns from both the committed
// sort and any active override. Self-healing, never an error.
func (s *SortState) Prune(columns []baserpc.Column) {
	s.committed = PruneSort(s.committed, columns)
	if s.hasOverride {
		s.override = PruneSort(s.override, columns)
	}
}
