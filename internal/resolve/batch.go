package resolve

import "iter"

// Batches yields consecutive groups of at most size names, in input order,
// without materializing more than one group at a time. The concatenation of
// all groups is exactly the input list. A size below one yields nothing.
func Batches(names []string, size int) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		if size < 1 {
			return
		}
		for start := 0; start < len(names); start += size {
			end := min(start+size, len(names))
			if !yield(names[start:end]) {
				return
			}
		}
	}
}
