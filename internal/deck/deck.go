package deck

// DefaultSet is used whenever a room is created with a missing or
// unknown card set id.
const DefaultSet = "fibonacci"

var sets = map[string][]string{
	"fibonacci": {"0", "1", "2", "3", "5", "8", "13", "21", "34", "55", "89", "?", "☕"},
	"tshirt":    {"XS", "S", "M", "L", "XL", "XXL", "?", "☕"},
	"powers":    {"0", "1", "2", "4", "8", "16", "32", "64", "?", "☕"},
}

// Resolve maps a requested card set id to a known one, falling back to
// DefaultSet for unknown ids. There is no error channel for room
// creation, so invalid input is coerced rather than rejected.
func Resolve(id string) string {
	if _, ok := sets[id]; ok {
		return id
	}
	return DefaultSet
}

// Cards returns the ordered labels of a card set. The returned slice is
// a copy; the catalog itself is immutable.
func Cards(id string) []string {
	labels := sets[Resolve(id)]
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// IDs lists the known card set ids.
func IDs() []string {
	out := make([]string, 0, len(sets))
	for id := range sets {
		out = append(out, id)
	}
	return out
}
