package authz

// CombinationMode is the rule for comparing an actual value set against a
// required value set.
type CombinationMode string

const (
	// HasAny allows when at least one required value is held.
	HasAny CombinationMode = "HAS_ANY"
	// HasAll allows when every required value is held.
	HasAll CombinationMode = "HAS_ALL"
	// DoesNotHaveAny allows when at least one required value is NOT held.
	// This is "not all required values are present", not "none are present".
	DoesNotHaveAny CombinationMode = "DOES_NOT_HAVE_ANY"
	// DoesNotHaveAll allows when every required value is NOT held.
	DoesNotHaveAll CombinationMode = "DOES_NOT_HAVE_ALL"
)

// Evaluate compares the actual values a principal holds against a required
// set under the given combination mode. An empty required set never blocks.
// Unknown modes deny.
func Evaluate[V ~string](actual, required []V, mode CombinationMode) bool {
	if len(required) == 0 {
		return true
	}

	held := make(map[V]struct{}, len(actual))
	for _, v := range actual {
		held[v] = struct{}{}
	}

	switch mode {
	case HasAny:
		for _, v := range required {
			if _, ok := held[v]; ok {
				return true
			}
		}
		return false
	case HasAll:
		for _, v := range required {
			if _, ok := held[v]; !ok {
				return false
			}
		}
		return true
	case DoesNotHaveAny:
		for _, v := range required {
			if _, ok := held[v]; !ok {
				return true
			}
		}
		return false
	case DoesNotHaveAll:
		for _, v := range required {
			if _, ok := held[v]; ok {
				return false
			}
		}
		return true
	default:
		// Fail closed on modes this build does not know about.
		return false
	}
}
