package gridcore

import (
	"strings"

	"tably/internal/baserpc"
)

// FilterState holds the user's in-progress filter tree. Filters are
// session-local and never persisted; the effective query clause is derived
// by normalizing the tree against the current column set.
type FilterState struct {
	tree *baserpc.Filter
}

// Tree returns the editing tree as-is, including conditions that are not
// yet complete enough to reach the server.
func (f *FilterState) Tree() *baserpc.Filter { return f.tree }

// SetTree replaces the editing tree. nil clears all filtering.
func (f *FilterState) SetTree(tree *baserpc.Filter) {
	f.tree = tree
}

// Active reports whether the tree has any items at all (edited, not
// necessarily effective).
func (f *FilterState) Active() bool {
	return f.tree != nil && len(f.tree.Items) > 0
}

// Effective derives the filter clause sent with row queries. An empty
// normalized result returns nil, equivalent to no filter.
func (f *FilterState) Effective(columns []baserpc.Column) *baserpc.Filter {
	return NormalizeFilter(f.tree, columns)
}

// Prune rewrites the editing tree in place after a column deletion so stale
// conditions do not linger in the editor.
func (f *FilterState) Prune(columns []baserpc.Column) {
	f.tree = NormalizeFilter(f.tree, columns)
}

// NormalizeFilter drops conditions whose column no longer exists, whose
// operator is invalid for the column's current type, or whose operator
// requires a value none of which is trimmed-non-empty. Groups that lose all
// conditions are omitted. The result is a fresh tree; nil means no filter.
// Normalizing an already-normalized tree is the identity.
func NormalizeFilter(f *baserpc.Filter, columns []baserpc.Column) *baserpc.Filter {
	if f == nil {
		return nil
	}
	types := make(map[string]baserpc.FieldType, len(columns))
	for _, c := range columns {
		types[c.ID] = c.Type
	}

	keep := func(c baserpc.Condition) bool {
		t, ok := types[c.ColumnID]
		if !ok {
			return false
		}
		if !OperatorValid(c.Operator, t) {
			return false
		}
		if OperatorNeedsValue(c.Operator) && strings.TrimSpace(c.Value) == "" {
			return false
		}
		return true
	}

	out := &baserpc.Filter{Connector: f.Connector}
	for _, item := range f.Items {
		switch {
		case item.Condition != nil:
			if keep(*item.Condition) {
				c := *item.Condition
				out.Items = append(out.Items, baserpc.FilterItem{Condition: &c})
			}
		case item.Group != nil:
			g := baserpc.ConditionGroup{Connector: item.Group.Connector}
			for _, c := range item.Group.Conditions {
				if keep(c) {
					g.Conditions = append(g.Conditions, c)
				}
			}
			if len(g.Conditions) > 0 {
				out.Items = append(out.Items, baserpc.FilterItem{Group: &g})
			}
		}
	}
	if len(out.Items) == 0 {
		return nil
	}
	return out
}

// RetargetCondition points a condition at a new column. When the current
// operator is invalid for the new column's type it resets to that type's
// default; otherwise it is preserved. The value is kept either way.
func RetargetCondition(c *baserpc.Condition, col baserpc.Column) {
	c.ColumnID = col.ID
	if !OperatorValid(c.Operator, col.Type) {
		c.Operator = DefaultOperator(col.Type)
	}
}

// NewCondition builds a fresh condition for a column with the type's
// default operator.
func NewCondition(col baserpc.Column) baserpc.Condition {
	return baserpc.Condition{ColumnID: col.ID, Operator: DefaultOperator(col.Type)}
}
