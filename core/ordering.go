package core

import (
	"strings"

	"github.com/trezcool/olympia/core/keycase"
)

// OrderingParam is the query parameter list endpoints sort on, eg. `ordering=-created_at,name`.
const OrderingParam = "ordering"

type Ordering struct {
	Field     string // camelCase, as in the payload types
	Ascending bool
}

// String renders the ordering in wire format.
func (ord Ordering) String() string {
	field := keycase.ToSnakeKey(ord.Field)
	if ord.Ascending {
		return field
	}
	return "-" + field
}

// ParseOrderings parses a comma-separated list of fields, each optionally prefixed with "-" for
// descending order, eg. "-createdAt,lastName".
func ParseOrderings(s string) []Ordering {
	var ords []Ordering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ords = append(ords, Ordering{Field: keycase.ToCamelKey(field), Ascending: !descending})
	}
	return ords
}

// JoinOrderings renders orderings as the value of OrderingParam.
func JoinOrderings(ords []Ordering) string {
	fields := make([]string, 0, len(ords))
	for _, ord := range ords {
		fields = append(fields, ord.String())
	}
	return strings.Join(fields, ",")
}
