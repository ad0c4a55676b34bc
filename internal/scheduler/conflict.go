package scheduler

// ConflictCheckResult lists the committed sessions that overlap a candidate.
type ConflictCheckResult struct {
	HasConflicts   bool
	Conflicts      []Session
	TotalConflicts int
}

// CheckConflicts reports every committed session whose interval intersects the
// candidate. Intervals are half-open, so back-to-back sessions and empty
// intervals never conflict. Entries sharing the candidate's ID are ignored and
// committed is never modified.
func CheckConflicts(candidate Session, committed []Session) ConflictCheckResult {
	result := ConflictCheckResult{}
	target := candidate.Range()
	for _, existing := range committed {
		if candidate.ID != "" && existing.ID == candidate.ID {
			continue
		}
		if target.Overlaps(existing.Range()) {
			result.Conflicts = append(result.Conflicts, existing)
		}
	}
	result.TotalConflicts = len(result.Conflicts)
	result.HasConflicts = result.TotalConflicts > 0
	return result
}

// ConflictIDs returns the IDs of the conflicting sessions in input order.
func (r ConflictCheckResult) ConflictIDs() []string {
	if len(r.Conflicts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.Conflicts))
	for _, session := range r.Conflicts {
		ids = append(ids, session.ID)
	}
	return ids
}
