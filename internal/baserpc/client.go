package baserpc

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a base, table, column or row id does not
// resolve to an existing record on the service.
var ErrNotFound = errors.New("not found")

// FieldType identifies how a column's cell values are interpreted.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldLongText FieldType = "long_text"
	FieldNumber   FieldType = "number"
)

// Base is a workspace containing tables.
type Base struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BaseDetail is the expanded view of a single base.
type BaseDetail struct {
	Name   string  `json:"name"`
	Tables []Table `json:"tables"`
}

type Table struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Column carries an explicit metadata record set at creation time;
// nothing is inferred from the column name at render time.
type Column struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	Icon string    `json:"icon"`
}

// TableMeta is the per-table metadata the grid needs before it can fetch rows.
// Sort is the server-persisted sort for the table; nil means unsorted.
type TableMeta struct {
	Table    Table      `json:"table"`
	Columns  []Column   `json:"columns"`
	RowCount int        `json:"rowCount"`
	Sort     SortConfig `json:"sort"`
}

// Row maps column ids to string cell values. A missing entry is an empty cell.
type Row struct {
	ID    string            `json:"id"`
	Cells map[string]string `json:"cells"`
}

// Cell returns the value for a column, or "" when the row has none.
func (r Row) Cell(columnID string) string {
	return r.Cells[columnID]
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortEntry is one key of a multi-key sort. List position is significant:
// the first entry is the primary key, the second breaks ties, and so on.
type SortEntry struct {
	ColumnID  string        `json:"columnId"`
	Direction SortDirection `json:"direction"`
}

type SortConfig []SortEntry

type Connector string

const (
	ConnectorAnd Connector = "and"
	ConnectorOr  Connector = "or"
)

type Operator string

const (
	OpContains       Operator = "contains"
	OpDoesNotContain Operator = "does_not_contain"
	OpIs             Operator = "is"
	OpIsNot          Operator = "is_not"
	OpIsEmpty        Operator = "is_empty"
	OpIsNotEmpty     Operator = "is_not_empty"
	OpEq             Operator = "eq"
	OpNeq            Operator = "neq"
	OpLt             Operator = "lt"
	OpGt             Operator = "gt"
	OpLte            Operator = "lte"
	OpGte            Operator = "gte"
)

// Condition is a single column predicate.
type Condition struct {
	ColumnID string   `json:"columnId"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// ConditionGroup joins several conditions with one connector.
type ConditionGroup struct {
	Connector  Connector   `json:"connector"`
	Conditions []Condition `json:"conditions"`
}

// FilterItem is either a bare condition or a group; exactly one side is set.
type FilterItem struct {
	Condition *Condition      `json:"condition,omitempty"`
	Group     *ConditionGroup `json:"group,omitempty"`
}

// Filter combines all top-level items with a single connector.
type Filter struct {
	Connector Connector    `json:"connector"`
	Items     []FilterItem `json:"items"`
}

type GetRowsRequest struct {
	TableID string     `json:"tableId"`
	Limit   int        `json:"limit"`
	Sort    SortConfig `json:"sort,omitempty"`
	Filter  *Filter    `json:"filter,omitempty"`
	Cursor  string     `json:"cursor,omitempty"`
}

// GetRowsResponse is one page of rows. NextCursor is opaque; "" means the
// result set is exhausted.
type GetRowsResponse struct {
	Rows       []Row  `json:"rows"`
	NextCursor string `json:"nextCursor"`
}

type AddColumnRequest struct {
	TableID string    `json:"tableId"`
	Name    string    `json:"name"`
	ID      string    `json:"id,omitempty"`
	Type    FieldType `json:"type,omitempty"`
	Icon    string    `json:"icon,omitempty"`
}

// AddRowsRequest creates Count empty rows. IDs is supplied for small
// additions so the client's optimistic rows match the server records exactly;
// it is omitted for bulk additions.
type AddRowsRequest struct {
	TableID string   `json:"tableId"`
	Count   int      `json:"count"`
	IDs     []string `json:"ids,omitempty"`
}

type UpdateCellRequest struct {
	RowID    string `json:"rowId"`
	ColumnID string `json:"columnId"`
	Value    string `json:"value"`
}

// SetTableSortRequest persists the table's sort. A nil Sort clears it.
type SetTableSortRequest struct {
	TableID string     `json:"tableId"`
	Sort    SortConfig `json:"sort"`
}

// User is the opaque identity supplied by the session boundary.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client is the typed RPC surface of the base service. Implementations must
// be safe for use from multiple goroutines.
type Client interface {
	ListBases(ctx context.Context) ([]Base, error)
	CreateBase(ctx context.Context) (*Base, error)
	RenameBase(ctx context.Context, baseID, name string) error
	DeleteBase(ctx context.Context, baseID string) error
	TouchBase(ctx context.Context, baseID string) error
	GetBase(ctx context.Context, baseID string) (*BaseDetail, error)

	AddTable(ctx context.Context, baseID string) (*Table, error)
	DeleteTable(ctx context.Context, tableID string) error
	GetTableMeta(ctx context.Context, tableID string) (*TableMeta, error)

	AddColumn(ctx context.Context, req AddColumnRequest) (*Column, error)
	DeleteColumn(ctx context.Context, columnID string) error

	GetRows(ctx context.Context, req GetRowsRequest) (*GetRowsResponse, error)
	AddRows(ctx context.Context, req AddRowsRequest) error
	DeleteRow(ctx context.Context, rowID string) error
	UpdateCell(ctx context.Context, req UpdateCellRequest) error

	SetTableSort(ctx context.Context, req SetTableSortRequest) error

	WhoAmI(ctx context.Context) (*User, error)
	SignOut(ctx context.Context) error
}
