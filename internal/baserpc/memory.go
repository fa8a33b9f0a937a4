package baserpc

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryClient is an in-process implementation of Client. It backs demo mode
// and the test suite with the same pagination, sorting and filtering
// semantics the grid expects from the real service.
type MemoryClient struct {
	mu sync.Mutex

	bases   []*memoryBase
	user    User
	touched map[string]int // baseID -> touch counter
	nextSeq int

	// FailNext, when non-empty, makes the next mutation fail with this
	// message. Tests use it to exercise optimistic rollback.
	FailNext string
}

type memoryBase struct {
	id     string
	name   string
	tables []*memoryTable
}

type memoryTable struct {
	id      string
	baseID  string
	name    string
	columns []Column
	rows    []Row
	sort    SortConfig
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		user:    User{Name: "Demo User", Email: "demo@example.com"},
		touched: map[string]int{},
	}
}

func (m *MemoryClient) failNext() error {
	if m.FailNext != "" {
		msg := m.FailNext
		m.FailNext = ""
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (m *MemoryClient) findTable(tableID string) (*memoryTable, error) {
	for _, b := range m.bases {
		for _, t := range b.tables {
			if t.id == tableID {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("table %s: %w", tableID, ErrNotFound)
}

func (m *MemoryClient) ListBases(ctx context.Context) ([]Base, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Base, 0, len(m.bases))
	for _, b := range m.bases {
		out = append(out, Base{ID: b.id, Name: b.name})
	}
	return out, nil
}

func (m *MemoryClient) CreateBase(ctx context.Context) (*Base, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return nil, err
	}
	m.nextSeq++
	b := &memoryBase{id: uuid.NewString(), name: fmt.Sprintf("Untitled Base %d", m.nextSeq)}
	m.bases = append(m.bases, b)
	return &Base{ID: b.id, Name: b.name}, nil
}

func (m *MemoryClient) RenameBase(ctx context.Context, baseID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	for _, b := range m.bases {
		if b.id == baseID {
			b.name = name
			return nil
		}
	}
	return fmt.Errorf("base %s: %w", baseID, ErrNotFound)
}

func (m *MemoryClient) DeleteBase(ctx context.Context, baseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	for i, b := range m.bases {
		if b.id == baseID {
			m.bases = append(m.bases[:i], m.bases[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("base %s: %w", baseID, ErrNotFound)
}

func (m *MemoryClient) TouchBase(ctx context.Context, baseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[baseID]++
	return nil
}

func (m *MemoryClient) GetBase(ctx context.Context, baseID string) (*BaseDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bases {
		if b.id == baseID {
			detail := &BaseDetail{Name: b.name}
			for _, t := range b.tables {
				detail.Tables = append(detail.Tables, Table{ID: t.id, Name: t.name})
			}
			return detail, nil
		}
	}
	return nil, fmt.Errorf("base %s: %w", baseID, ErrNotFound)
}

func (m *MemoryClient) AddTable(ctx context.Context, baseID string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return nil, err
	}
	for _, b := range m.bases {
		if b.id == baseID {
			t := &memoryTable{
				id:     uuid.NewString(),
				baseID: baseID,
				name:   fmt.Sprintf("Table %d", len(b.tables)+1),
			}
			b.tables = append(b.tables, t)
			return &Table{ID: t.id, Name: t.name}, nil
		}
	}
	return nil, fmt.Errorf("base %s: %w", baseID, ErrNotFound)
}

func (m *MemoryClient) DeleteTable(ctx context.Context, tableID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	for _, b := range m.bases {
		for i, t := range b.tables {
			if t.id == tableID {
				b.tables = append(b.tables[:i], b.tables[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("table %s: %w", tableID, ErrNotFound)
}

func (m *MemoryClient) GetTableMeta(ctx context.Context, tableID string) (*TableMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.findTable(tableID)
	if err != nil {
		return nil, err
	}
	meta := &TableMeta{
		Table:    Table{ID: t.id, Name: t.name},
		Columns:  append([]Column(nil), t.columns...),
		RowCount: len(t.rows),
		Sort:     append(SortConfig(nil), t.sort...),
	}
	if len(meta.Sort) == 0 {
		meta.Sort = nil
	}
	return meta, nil
}

func (m *MemoryClient) AddColumn(ctx context.Context, req AddColumnRequest) (*Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return nil, err
	}
	t, err := m.findTable(req.TableID)
	if err != nil {
		return nil, err
	}
	col := Column{ID: req.ID, Name: req.Name, Type: req.Type, Icon: req.Icon}
	if col.ID == "" {
		col.ID = uuid.NewString()
	}
	if col.Type == "" {
		col.Type = FieldText
	}
	t.columns = append(t.columns, col)
	return &col, nil
}

func (m *MemoryClient) DeleteColumn(ctx context.Context, columnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	for _, b := range m.bases {
		for _, t := range b.tables {
			for i, c := range t.columns {
				if c.ID != columnID {
					continue
				}
				t.columns = append(t.columns[:i], t.columns[i+1:]...)
				for _, r := range t.rows {
					delete(r.Cells, columnID)
				}
				// A persisted sort referencing the column is dropped
				// server-side as well.
				kept := t.sort[:0]
				for _, s := range t.sort {
					if s.ColumnID != columnID {
						kept = append(kept, s)
					}
				}
				t.sort = kept
				return nil
			}
		}
	}
	return fmt.Errorf("column %s: %w", columnID, ErrNotFound)
}

func (m *MemoryClient) GetRows(ctx context.Context, req GetRowsRequest) (*GetRowsResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.findTable(req.TableID)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		if req.Filter == nil || evalFilter(req.Filter, r, t.columns) {
			rows = append(rows, r)
		}
	}
	if len(req.Sort) > 0 {
		sortRows(rows, req.Sort, t.columns)
	}

	offset := 0
	if req.Cursor != "" {
		offset, err = strconv.Atoi(req.Cursor)
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("invalid cursor %q", req.Cursor)
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	if offset > len(rows) {
		offset = len(rows)
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}

	resp := &GetRowsResponse{Rows: copyRows(rows[offset:end])}
	if end < len(rows) {
		resp.NextCursor = strconv.Itoa(end)
	}
	return resp, nil
}

func (m *MemoryClient) AddRows(ctx context.Context, req AddRowsRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	t, err := m.findTable(req.TableID)
	if err != nil {
		return err
	}
	for i := 0; i < req.Count; i++ {
		id := ""
		if i < len(req.IDs) {
			id = req.IDs[i]
		}
		if id == "" {
			id = uuid.NewString()
		}
		t.rows = append(t.rows, Row{ID: id, Cells: map[string]string{}})
	}
	return nil
}

func (m *MemoryClient) DeleteRow(ctx context.Context, rowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	for _, b := range m.bases {
		for _, t := range b.tables {
			for i, r := range t.rows {
				if r.ID == rowID {
					t.rows = append(t.rows[:i], t.rows[i+1:]...)
					return nil
				}
			}
		}
	}
	return fmt.Errorf("row %s: %w", rowID, ErrNotFound)
}

func (m *MemoryClient) UpdateCell(ctx context.Context, req UpdateCellRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	for _, b := range m.bases {
		for _, t := range b.tables {
			for i, r := range t.rows {
				if r.ID != req.RowID {
					continue
				}
				if r.Cells == nil {
					r.Cells = map[string]string{}
					t.rows[i] = r
				}
				r.Cells[req.ColumnID] = req.Value
				return nil
			}
		}
	}
	return fmt.Errorf("row %s: %w", req.RowID, ErrNotFound)
}

func (m *MemoryClient) SetTableSort(ctx context.Context, req SetTableSortRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	t, err := m.findTable(req.TableID)
	if err != nil {
		return err
	}
	t.sort = append(SortConfig(nil), req.Sort...)
	return nil
}

func (m *MemoryClient) WhoAmI(ctx context.Context) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.user
	return &u, nil
}

func (m *MemoryClient) SignOut(ctx context.Context) error {
	return nil
}

// SeedDemo populates the client with a small base so the UI has something to
// show in demo mode. Returns the base and table ids.
func (m *MemoryClient) SeedDemo() (baseID, tableID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := &memoryBase{id: uuid.NewString(), name: "Product Catalog"}
	t := &memoryTable{id: uuid.NewString(), baseID: b.id, name: "Products"}

	nameCol := Column{ID: uuid.NewString(), Name: "Name", Type: FieldText, Icon: "A"}
	notesCol := Column{ID: uuid.NewString(), Name: "Notes", Type: FieldLongText, Icon: "¶"}
	assigneeCol := Column{ID: uuid.NewString(), Name: "Assignee", Type: FieldText, Icon: "A"}
	statusCol := Column{ID: uuid.NewString(), Name: "Status", Type: FieldText, Icon: "A"}
	attachCol := Column{ID: uuid.NewString(), Name: "Attachments", Type: FieldText, Icon: "A"}
	priceCol := Column{ID: uuid.NewString(), Name: "Price", Type: FieldNumber, Icon: "#"}
	t.columns = []Column{nameCol, notesCol, assigneeCol, statusCol, attachCol, priceCol}

	names := []string{"Widget", "Gadget", "Sprocket", "Flange", "Grommet", "Bracket", "Washer", "Gasket"}
	statuses := []string{"Todo", "In progress", "Done"}
	for i := 0; i < 240; i++ {
		t.rows = append(t.rows, Row{
			ID: uuid.NewString(),
			Cells: map[string]string{
				nameCol.ID:   fmt.Sprintf("%s %d", names[i%len(names)], i+1),
				statusCol.ID: statuses[i%len(statuses)],
				priceCol.ID:  strconv.Itoa((i*7)%500 + 1),
			},
		})
	}

	b.tables = append(b.tables, t)
	m.bases = append(m.bases, b)
	return b.id, t.id
}

func copyRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		cells := make(map[string]string, len(r.Cells))
		for k, v := range r.Cells {
			cells[k] = v
		}
		out[i] = Row{ID: r.ID, Cells: cells}
	}
	return out
}

func columnType(columns []Column, columnID string) FieldType {
	for _, c := range columns {
		if c.ID == columnID {
			return c.Type
		}
	}
	return FieldText
}

// sortRows orders rows by the sort entries in precedence order. Numeric
// columns compare as numbers with empty cells first; everything else compares
// case-insensitively. The sort is stable so the insertion order breaks ties.
func sortRows(rows []Row, cfg SortConfig, columns []Column) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, entry := range cfg {
			a := rows[i].Cell(entry.ColumnID)
			b := rows[j].Cell(entry.ColumnID)
			c := compareCells(a, b, columnType(columns, entry.ColumnID))
			if c == 0 {
				continue
			}
			if entry.Direction == SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareCells(a, b string, t FieldType) int {
	if t == FieldNumber {
		switch {
		case a == "" && b == "":
			return 0
		case a == "":
			return -1
		case b == "":
			return 1
		}
		af, aerr := strconv.ParseFloat(a, 64)
		bf, berr := strconv.ParseFloat(b, 64)
		if aerr == nil && berr == nil {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func evalFilter(f *Filter, row Row, columns []Column) bool {
	if len(f.Items) == 0 {
		return true
	}
	results := make([]bool, 0, len(f.Items))
	for _, item := range f.Items {
		switch {
		case item.Condition != nil:
			results = append(results, evalCondition(*item.Condition, row, columns))
		case item.Group != nil:
			results = append(results, evalGroup(*item.Group, row, columns))
		}
	}
	return combine(results, f.Connector)
}

func evalGroup(g ConditionGroup, row Row, columns []Column) bool {
	if len(g.Conditions) == 0 {
		return true
	}
	results := make([]bool, 0, len(g.Conditions))
	for _, c := range g.Conditions {
		results = append(results, evalCondition(c, row, columns))
	}
	return combine(results, g.Connector)
}

func combine(results []bool, connector Connector) bool {
	if connector == ConnectorOr {
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}

func evalCondition(c Condition, row Row, columns []Column) bool {
	v := row.Cell(c.ColumnID)
	switch c.Operator {
	case OpIsEmpty:
		return strings.TrimSpace(v) == ""
	case OpIsNotEmpty:
		return strings.TrimSpace(v) != ""
	case OpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	case OpDoesNotContain:
		return !strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	case OpIs:
		return v == c.Value
	case OpIsNot:
		return v != c.Value
	}

	// Numeric operators: rows whose cell does not parse never match.
	vf, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return false
	}
	cf, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return false
	}
	switch c.Operator {
	case OpEq:
		return vf == cf
	case OpNeq:
		return vf != cf
	case OpLt:
		return vf < cf
	case OpGt:
		return vf > cf
	case OpLte:
		return vf <= cf
	case OpGte:
		return vf >= cf
	}
	return false
}
