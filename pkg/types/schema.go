package types

import "strings"

// ColumnNotFound marks a logical field with no matching header column.
const ColumnNotFound = -1

// Schema maps the logical license fields to column indices resolved from a
// header row. Columns are discovered by name, never by position: each field
// binds to the first header whose lower-cased text contains one of its
// substrings. Resolve once per operation and pass the result by value.
type Schema struct {
	Order      int
	Serial     int
	Token      int
	Activated  int
	Terminated int
}

// Header substrings, in priority order, for each logical field. The order
// column prefers the explicit "clientorder" naming and falls back to any
// column mentioning "order".
var (
	orderSubstrings = []string{"clientorder", "order"}
	serialSubstring = "serial"
	tokenSubstring  = "token"
	activeSubstring = "activated"
	termSubstring   = "terminated"
)

// ResolveSchema resolves the column index of every logical field from the
// header row. Unmatched fields are set to ColumnNotFound; callers decide
// which fields are mandatory for the operation at hand.
func ResolveSchema(header []string) Schema {
	return Schema{
		Order:      findColumn(header, orderSubstrings...),
		Serial:     findColumn(header, serialSubstring),
		Token:      findColumn(header, tokenSubstring),
		Activated:  findColumn(header, activeSubstring),
		Terminated: findColumn(header, termSubstring),
	}
}

// findColumn returns the index of the first header containing the first
// substring that matches anywhere in the row. Substrings are tried in
// priority order: a later substring is only consulted when the earlier one
// matches no column at all. Matching is case-insensitive.
func findColumn(header []string, substrings ...string) int {
	for _, sub := range substrings {
		for i, name := range header {
			if name == "" {
				continue
			}
			if strings.Contains(strings.ToLower(name), sub) {
				return i
			}
		}
	}
	return ColumnNotFound
}

// HasOrder reports whether an order column was resolved.
func (s Schema) HasOrder() bool { return s.Order != ColumnNotFound }

// HasSerial reports whether a serial column was resolved.
func (s Schema) HasSerial() bool { return s.Serial != ColumnNotFound }

// HasToken reports whether a token balance column was resolved.
func (s Schema) HasToken() bool { return s.Token != ColumnNotFound }

// HasActivated reports whether an activated flag column was resolved.
func (s Schema) HasActivated() bool { return s.Activated != ColumnNotFound }

// HasTerminated reports whether a terminated flag column was resolved.
func (s Schema) HasTerminated() bool { return s.Terminated != ColumnNotFound }
