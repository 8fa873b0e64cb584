package event

// Diff is the outcome of reconciling an existing collection against a desired one.
// Items present on both sides are in neither list: there is no update in place.
type Diff[E any, D any] struct {
	ToAdd    []D
	ToRemove []E
}

func (d Diff[E, D]) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Sync computes desired-existing (ToAdd) and existing-desired (ToRemove) by key.
// Both outputs keep input order. Duplicate keys in desired collapse to the first
// occurrence; duplicate keys in existing are all removed when the key is not desired.
func Sync[E any, D any, K comparable](existing []E, desired []D, existingKey func(E) K, desiredKey func(D) K) Diff[E, D] {
	want := make(map[K]struct{}, len(desired))
	for _, item := range desired {
		want[desiredKey(item)] = struct{}{}
	}

	have := make(map[K]struct{}, len(existing))
	var diff Diff[E, D]
	for _, item := range existing {
		key := existingKey(item)
		have[key] = struct{}{}
		if _, ok := want[key]; !ok {
			diff.ToRemove = append(diff.ToRemove, item)
		}
	}

	queued := make(map[K]struct{}, len(desired))
	for _, item := range desired {
		key := desiredKey(item)
		if _, ok := have[key]; ok {
			continue
		}
		if _, ok := queued[key]; ok {
			continue
		}
		queued[key] = struct{}{}
		diff.ToAdd = append(diff.ToAdd, item)
	}
	return diff
}

// SyncKeys is Sync over plain keys.
func SyncKeys[K comparable](existing []K, desired []K) Diff[K, K] {
	identity := func(k K) K { return k }
	return Sync(existing, desired, identity, identity)
}
