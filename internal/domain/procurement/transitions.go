package procurement

// edges is the status graph. Terminal states have no entry.
var edges = map[Status][]Status{
	StatusRequested: {StatusPending, StatusRejected},
	StatusPending:   {StatusInTransit, StatusRejected},
	StatusInTransit: {StatusDelivered},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusPending, StatusRejected, StatusInTransit, StatusDelivered:
		return true
	}
	return false
}

// IsTerminal reports whether s has no outgoing edges.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusDelivered
}

// CanTransition reports whether the edge from -> to exists.
func CanTransition(from, to Status) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s Status) []Status {
	out := make([]Status, len(edges[s]))
	copy(out, edges[s])
	return out
}
