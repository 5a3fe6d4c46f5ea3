package pipeline

// DedupPolicy selects how ambiguous duplicate keys are resolved. Scraping
// sources return the same logical item more than once per run (pagination
// overlap, retried sub-requests), and platforms differ in whether a
// tie-break is safe.
type DedupPolicy int

const (
	// DropAmbiguous removes every member of a key group with more than one
	// survivor. No reliable tie-break exists without business context.
	DropAmbiguous DedupPolicy = iota
	// KeepFirst keeps the first occurrence of each key, in input order.
	KeepFirst
)

// Dedupe filters a raw batch down to unambiguous items. Items flagged by
// isNoise (explicit error markers, "no results" sentinels) are removed
// first; the policy then decides the fate of key groups with more than one
// survivor. Input order is preserved. An empty batch yields an empty
// result; callers must not treat that as an error.
func Dedupe[T any](items []T, keyFn func(T) string, isNoise func(T) bool, policy DedupPolicy) []T {
	surviving := make([]T, 0, len(items))
	counts := make(map[string]int, len(items))
	for _, item := range items {
		if isNoise != nil && isNoise(item) {
			continue
		}
		surviving = append(surviving, item)
		counts[keyFn(item)]++
	}

	out := make([]T, 0, len(surviving))
	seen := make(map[string]struct{}, len(surviving))
	for _, item := range surviving {
		key := keyFn(item)
		switch policy {
		case KeepFirst:
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		default:
			if counts[key] != 1 {
				continue
			}
			out = append(out, item)
		}
	}
	return out
}
