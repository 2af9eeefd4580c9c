package attrs

import "fmt"

// ExtractString extracts a string value from a key-value attribute slice.
// The slice should be formatted as [key1, value1, key2, value2, ...].
// Returns empty string if the key is not found or the value is not a string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
	}
	return ""
}

// ToStrings flattens a key-value attribute slice into a map, rendering values
// with %v. Keys listed in skip are left out.
func ToStrings(attrs []any, skip ...string) map[string]string {
	out := make(map[string]string, len(attrs)/2)
outer:
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok {
			continue
		}
		for _, s := range skip {
			if s == k {
				continue outer
			}
		}
		out[k] = fmt.Sprintf("%v", attrs[i+1])
	}
	return out
}
