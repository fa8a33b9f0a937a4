// Package gridcore holds the client-side semantics of the grid: the query
// cache, the windowed row sequence, virtualization math, sort and filter
// state, and the cell edit controller. It is UI-toolkit agnostic; the tview
// layer at the repository root drives it.
package gridcore

import (
	"strings"

	"tably/internal/baserpc"
)

const (
	// PageSize is the fixed row page size for windowed fetches.
	PageSize = 50

	// BulkAddMax caps a single bulk row addition.
	BulkAddMax = 100000

	// Column widths are in terminal cells.
	DefaultColumnWidth = 18
	MinColumnWidth     = 12
	MaxColumnWidth     = 42

	// RowHeight is one terminal cell per row.
	RowHeight = 1
)

// RequiredColumns are lazily ensured to exist on every table.
var RequiredColumns = []struct {
	Name string
	Type baserpc.FieldType
}{
	{"Name", baserpc.FieldText},
	{"Notes", baserpc.FieldLongText},
	{"Assignee", baserpc.FieldText},
	{"Status", baserpc.FieldText},
	{"Attachments", baserpc.FieldText},
}

// ClampColumnWidth bounds a user-resized width.
func ClampColumnWidth(w int) int {
	if w < MinColumnWidth {
		return MinColumnWidth
	}
	if w > MaxColumnWidth {
		return MaxColumnWidth
	}
	return w
}

// FieldIcon is the display glyph for a column type, recorded at creation
// time. Nothing is inferred from the column name afterwards.
func FieldIcon(t baserpc.FieldType) string {
	switch t {
	case baserpc.FieldLongText:
		return "¶"
	case baserpc.FieldNumber:
		return "#"
	default:
		return "A"
	}
}

// OperatorsFor returns the operators valid for a column type, in menu order.
func OperatorsFor(t baserpc.FieldType) []baserpc.Operator {
	if t == baserpc.FieldNumber {
		return []baserpc.Operator{
			baserpc.OpEq, baserpc.OpNeq,
			baserpc.OpLt, baserpc.OpGt,
			baserpc.OpLte, baserpc.OpGte,
			baserpc.OpIsEmpty, baserpc.OpIsNotEmpty,
		}
	}
	return []baserpc.Operator{
		baserpc.OpContains, baserpc.OpDoesNotContain,
		baserpc.OpIs, baserpc.OpIsNot,
		baserpc.OpIsEmpty, baserpc.OpIsNotEmpty,
	}
}

// DefaultOperator is the operator a fresh condition gets for a column type.
func DefaultOperator(t baserpc.FieldType) baserpc.Operator {
	if t == baserpc.FieldNumber {
		return baserpc.OpEq
	}
	return baserpc.OpContains
}

// OperatorValid reports whether op applies to a column of type t.
func OperatorValid(op baserpc.Operator, t baserpc.FieldType) bool {
	for _, valid := range OperatorsFor(t) {
		if op == valid {
			return true
		}
	}
	return false
}

// OperatorNeedsValue reports whether op compares against a user value.
func OperatorNeedsValue(op baserpc.Operator) bool {
	return op != baserpc.OpIsEmpty && op != baserpc.OpIsNotEmpty
}

// SortEqual compares two sort configs structurally, entry order significant.
func SortEqual(a, b baserpc.SortConfig) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FilterEqual compares two filters structurally.
func FilterEqual(a, b *baserpc.Filter) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	}
	if a.Connector != b.Connector || len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if !filterItemEqual(a.Items[i], b.Items[i]) {
			return false
		}
	}
	return true
}

func filterItemEqual(a, b baserpc.FilterItem) bool {
	switch {
	case a.Condition != nil && b.Condition != nil:
		return *a.Condition == *b.Condition
	case a.Group != nil && b.Group != nil:
		if a.Group.Connector != b.Group.Connector ||
			len(a.Group.Conditions) != len(b.Group.Conditions) {
			return false
		}
		for i := range a.Group.Conditions {
			if a.Group.Conditions[i] != b.Group.Conditions[i] {
				return false
			}
		}
		return true
	}
	return false
}

// QueryKey is the canonical cache key for one windowed row sequence:
// (table, limit, sort once known, filter once known). The string form is
// built structurally, never from JSON, so field order cannot perturb it.
type QueryKey struct {
	TableID string
	Limit   int
	Sort    baserpc.SortConfig // nil until known
	Filter  *baserpc.Filter    // nil until known / when empty
}

// String renders the key canonically for map storage.
func (k QueryKey) String() string {
	var b strings.Builder
	b.WriteString("rows/")
	b.WriteString(k.TableID)
	b.WriteString("/limit=")
	writeInt(&b, k.Limit)
	if k.Sort != nil {
		b.WriteString("/sort=")
		for i, s := range k.Sort {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s.ColumnID)
			b.WriteByte(':')
			b.WriteString(string(s.Direction))
		}
	}
	if k.Filter != nil {
		b.WriteString("/filter=")
		writeFilter(&b, k.Filter)
	}
	return b.String()
}

func writeInt(b *strings.Builder, n int) {
	if n < 0 {
		b.WriteByte('-')
		n = -n
	}
	if n >= 10 {
		writeInt(b, n/10)
	}
	b.WriteByte(byte('0' + n%10))
}

func writeFilter(b *strings.Builder, f *baserpc.Filter) {
	b.WriteString(string(f.Connector))
	b.WriteByte('(')
	for i, item := range f.Items {
		if i > 0 {
			b.WriteByte(';')
		}
		switch {
		case item.Condition != nil:
			writeCondition(b, *item.Condition)
		case item.Group != nil:
			b.WriteString(string(item.Group.Connector))
			b.WriteByte('[')
			for j, c := range item.Group.Conditions {
				if j > 0 {
					b.WriteByte(';')
				}
				writeCondition(b, c)
			}
			b.WriteByte(']')
		}
	}
	b.WriteByte(')')
}

func writeCondition(b *strings.Builder, c baserpc.Condition) {
	b.WriteString(c.ColumnID)
	b.WriteByte('|')
	b.WriteString(string(c.Operator))
	b.WriteByte('|')
	b.WriteString(c.Value)
}

// CloneSort copies a sort config so callers can mutate their copy freely.
func CloneSort(s baserpc.SortConfig) baserpc.SortConfig {
	if s == nil {
		return nil
	}
	return append(baserpc.SortConfig(nil), s...)
}

// CloneFilter deep-copies a filter.
func CloneFilter(f *baserpc.Filter) *baserpc.Filter {
	if f == nil {
		return nil
	}
	out := &baserpc.Filter{Connector: f.Connector, Items: make([]baserpc.FilterItem, len(f.Items))}
	for i, item := range f.Items {
		switch {
		case item.Condition != nil:
			c := *item.Condition
			out.Items[i].Condition = &c
		case item.Group != nil:
			g := baserpc.ConditionGroup{
				Connector:  item.Group.Connector,
				Conditions: append([]baserpc.Condition(nil), item.Group.Conditions...),
			}
			out.Items[i].Group = &g
		}
	}
	return out
}

// PruneSort drops entries referencing columns that no longer exist.
// Returns the input unchanged (same slice) when nothing was pruned.
func PruneSort(s baserpc.SortConfig, columns []baserpc.Column) baserpc.SortConfig {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.ID] = true
	}
	dropped := false
	for _, e := range s {
		if !known[e.ColumnID] {
			dropped = true
			break
		}
	}
	if !dropped {
		return s
	}
	out := make(baserpc.SortConfig, 0, len(s))
	for _, e := range s {
		if known[e.ColumnID] {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortUsesColumn reports whether any sort entry references the column.
func SortUsesColumn(s baserpc.SortConfig, columnID string) bool {
	for _, e := range s {
		if e.ColumnID == columnID {
			return true
		}
	}
	return false
}

// FilterUsesColumn reports whether any condition references the column.
func FilterUsesColumn(f *baserpc.Filter, columnID string) bool {
	if f == nil {
		return false
	}
	for _, item := range f.Items {
		switch {
		case item.Condition != nil:
			if item.Condition.ColumnID == columnID {
				return true
			}
		case item.Group != nil:
			for _, c := range item.Group.Conditions {
				if c.ColumnID == columnID {
					return true
				}
			}
		}
	}
	return false
}
