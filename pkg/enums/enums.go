// Package enums holds the string enums shared by models, payloads and
// handlers. Each mirrors a Postgres enum type.
package enums

import (
	"fmt"
	"slices"
)

func parse[T ~string](value string, known []T, what string) (T, error) {
	if v := T(value); slices.Contains(known, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", what, value)
}
