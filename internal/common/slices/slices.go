package slices

// Map returns a new slice containing mapFunc(e) for each element e of s, in order.
func Map[S ~[]E, E any, V any](s S, mapFunc func(E) V) []V {
	if s == nil {
		return nil
	}
	rv := make([]V, len(s))
	for i, e := range s {
		rv[i] = mapFunc(e)
	}
	return rv
}

// Filter returns the elements of s for which predicate returns true, in order.
func Filter[S ~[]E, E any](s S, predicate func(E) bool) S {
	if s == nil {
		return nil
	}
	rv := make(S, 0, len(s))
	for _, e := range s {
		if predicate(e) {
			rv = append(rv, e)
		}
	}
	return rv
}

// Flatten merges a slice of slices into a single slice.
func Flatten[S ~[]E, E any](s []S) S {
	n := 0
	allNil := true
	for _, si := range s {
		n += len(si)
		allNil = allNil && si == nil
	}
	if allNil {
		return nil
	}
	rv := make(S, n)
	i := 0
	for _, si := range s {
		for _, e := range si {
			rv[i] = e
			i++
		}
	}
	return rv
}

// Concatenate returns a single slice created by concatenating the input slices.
func Concatenate[S ~[]E, E any](s ...S) S {
	return Flatten(s)
}

// Unique returns a copy of s with duplicate elements removed, keeping only the first occurrence.
func Unique[S ~[]E, E comparable](s S) S {
	if s == nil {
		return nil
	}
	rv := make(S, 0)
	seen := make(map[E]bool)
	for _, v := range s {
		if !seen[v] {
			rv = append(rv, v)
			seen[v] = true
		}
	}
	return rv
}

// Intersect returns the unique elements of s that are present in every one of others,
// in the order in which they first appear in s.
func Intersect[S ~[]E, E comparable](s S, others ...S) S {
	if s == nil {
		return nil
	}
	keep := make([]map[E]bool, len(others))
	for i, other := range others {
		keep[i] = make(map[E]bool, len(other))
		for _, e := range other {
			keep[i][e] = true
		}
	}
	return Filter(Unique(s), func(e E) bool {
		for _, k := range keep {
			if !k[e] {
				return false
			}
		}
		return true
	})
}
