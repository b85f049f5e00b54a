package store

import "sort"

// RunQuery applies a Query to an in-memory candidate set. Selection walks
// ids newest-first before the limit, so a truncated page always retains the
// most recently created records; the retained rows are then sorted.
func RunQuery(notes []*Note, q Query) []*Note {
	selected := make([]*Note, 0, len(notes))
	for _, n := range notes {
		if q.Match == nil || matches(q.Match, n) {
			selected = append(selected, n)
		}
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].ID > selected[j].ID
	})

	if q.Limit > 0 && len(selected) > q.Limit {
		selected = selected[:q.Limit]
	}

	sort.SliceStable(selected, func(i, j int) bool {
		var less bool
		switch q.SortKey {
		case SortByCreated:
			less = selected[i].CreateAt < selected[j].CreateAt
		case SortByID:
			less = selected[i].ID < selected[j].ID
		default:
			less = selected[i].OrderStamp() < selected[j].OrderStamp()
		}
		if q.Reverse {
			return !less && notEqualBy(selected[i], selected[j], q.SortKey)
		}
		return less
	})

	return selected
}

func notEqualBy(a, b *Note, key SortKey) bool {
	switch key {
	case SortByCreated:
		return a.CreateAt != b.CreateAt
	case SortByID:
		return a.ID != b.ID
	default:
		return a.OrderStamp() != b.OrderStamp()
	}
}

// matches evaluates a predicate, treating a panic as "excluded" so a bad
// match function can never take down a reactive pass.
func matches(match func(*Note) bool, n *Note) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return match(n)
}
