package gridcore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tably/internal/baserpc"
)

// Session is the per-table grid state: columns, row count, sort, filter,
// selection and the active row window, with every mutation wired through
// the optimistic lifecycle. It is discarded and rebuilt whenever the active
// table or base changes.
//
// All methods run on the UI event loop; async completions re-enter through
// the cache's scheduler.
type Session struct {
	client baserpc.Client
	cache  *Cache

	TableID   string
	TableName string
	Columns   []baserpc.Column

	Sort   SortState
	Filter FilterState
	Edit   *EditController

	window      *RowWindow
	rowCount    int
	metaApplied bool
	widths      map[string]int

	ensuredRequired map[string]bool

	// Status receives non-blocking user-visible messages (rollbacks,
	// save failures). ReportError receives the underlying errors for
	// capture. Either may be nil.
	Status      func(msg string)
	ReportError func(err error)
}

func NewSession(client baserpc.Client, cache *Cache) *Session {
	return &Session{
		client:          client,
		cache:           cache,
		Edit:            NewEditController(),
		widths:          map[string]int{},
		ensuredRequired: map[string]bool{},
	}
}

func (s *Session) status(format string, args ...any) {
	if s.Status != nil {
		s.Status(fmt.Sprintf(format, args...))
	}
}

func (s *Session) report(err error) {
	if s.ReportError != nil {
		s.ReportError(err)
	}
}

func (s *Session) metaKey() string { return "meta/" + s.TableID }

// LoadTable switches the session to a table and starts the metadata fetch.
// All per-table state is rebuilt from scratch.
func (s *Session) LoadTable(tableID string) {
	if s.window != nil {
		s.cache.Drop(s.window.Key().String())
	}
	s.TableID = tableID
	s.TableName = ""
	s.Columns = nil
	s.Sort = SortState{}
	s.Filter = FilterState{}
	s.Edit = NewEditController()
	s.window = nil
	s.rowCount = 0
	s.metaApplied = false
	s.fetchMeta()
}

func (s *Session) fetchMeta() {
	tableID := s.TableID
	s.cache.Fetch(s.metaKey(), func(ctx context.Context) (any, error) {
		return s.client.GetTableMeta(ctx, tableID)
	})
}

// Sync folds completed fetches into session state and keeps the row window
// aligned with the current query key. The UI calls it on every cache change
// and before each draw; it is idempotent.
func (s *Session) Sync() {
	if s.TableID == "" {
		return
	}
	res := s.cache.Lookup(s.metaKey())
	if res.State == StateReady && !s.metaApplied {
		meta := res.Data.(*baserpc.TableMeta)
		s.TableName = meta.Table.Name
		s.Columns = append([]baserpc.Column(nil), meta.Columns...)
		s.rowCount = meta.RowCount
		s.Sort.SetCommitted(meta.Sort)
		s.metaApplied = true
		s.ensureRequiredColumns()
	}
	if !s.Sort.Known() {
		// Sort participates in the query key only once known; fetching
		// rows earlier would populate a transiently mismatched key.
		return
	}
	key := QueryKey{
		TableID: s.TableID,
		Limit:   PageSize,
		Sort:    s.Sort.Effective(),
		Filter:  s.Filter.Effective(s.Columns),
	}
	if s.window == nil || s.window.Key().String() != key.String() {
		if s.window != nil {
			// The merged sequence restarts under a new key; drafts keyed to
			// the old row positions would surface on the wrong cells.
			s.Edit.ClearAllDrafts()
		}
		s.window = NewRowWindow(s.cache, s.client, key)
	}
	s.window.Ensure()
	s.Edit.SetDims(len(s.window.Rows()), len(s.Columns))
}

// MetaErr reports a failed metadata load (the inline "could not load"
// state). RetryMeta reloads it.
func (s *Session) MetaErr() error {
	res := s.cache.Lookup(s.metaKey())
	if res.State == StateError {
		return res.Err
	}
	return nil
}

func (s *Session) RetryMeta() { s.fetchMeta() }

// Window returns the active row window; nil until the sort is known.
func (s *Session) Window() *RowWindow { return s.window }

// Rows is the merged, deduplicated loaded sequence.
func (s *Session) Rows() []baserpc.Row {
	if s.window == nil {
		return nil
	}
	return s.window.Rows()
}

// RowCount is the server-authoritative total with optimistic adjustments.
func (s *Session) RowCount() int { return s.rowCount }

// VirtualRowCount includes the trailing loading sentinel while the server
// holds more rows than are loaded.
func (s *Session) VirtualRowCount() int {
	n := len(s.Rows())
	if s.window != nil && s.window.HasMore() {
		return n + 1
	}
	return n
}

// ColumnWidth returns the user width for a column, defaulted and clamped.
func (s *Session) ColumnWidth(columnID string) int {
	if w, ok := s.widths[columnID]; ok {
		return w
	}
	return DefaultColumnWidth
}

// SetColumnWidth records a resize, clamped to bounds.
func (s *Session) SetColumnWidth(columnID string, w int) {
	s.widths[columnID] = ClampColumnWidth(w)
}

// Widths exposes the resize map for persistence.
func (s *Session) Widths() map[string]int { return s.widths }

// RestoreWidths seeds the resize map from persisted state.
func (s *Session) RestoreWidths(widths map[string]int) {
	for id, w := range widths {
		s.widths[id] = ClampColumnWidth(w)
	}
}

// ColumnByID finds a column in the current set.
func (s *Session) ColumnByID(id string) (baserpc.Column, bool) {
	for _, c := range s.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return baserpc.Column{}, false
}

// ensureRequiredColumns creates the fixed required columns missing from the
// loaded set, one independent mutation each, with pre-generated ids so the
// optimistic insert matches the server record exactly. Runs at most once
// per table per session.
func (s *Session) ensureRequiredColumns() {
	if s.ensuredRequired[s.TableID] {
		return
	}
	s.ensuredRequired[s.TableID] = true

	have := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		have[c.Name] = true
	}
	for _, req := range RequiredColumns {
		if have[req.Name] {
			continue
		}
		s.createColumn(baserpc.Column{
			ID:   uuid.NewString(),
			Name: req.Name,
			Type: req.Type,
			Icon: FieldIcon(req.Type),
		})
	}
}

// AddColumn creates a user column with an explicit type.
func (s *Session) AddColumn(name string, fieldType baserpc.FieldType) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s.createColumn(baserpc.Column{
		ID:   uuid.NewString(),
		Name: name,
		Type: fieldType,
		Icon: FieldIcon(fieldType),
	})
}

func (s *Session) createColumn(col baserpc.Column) {
	req := baserpc.AddColumnRequest{TableID: s.TableID, Name: col.Name, ID: col.ID, Type: col.Type, Icon: col.Icon}
	s.cache.Mutate(context.Background(), func(ctx context.Context) error {
		_, err := s.client.AddColumn(ctx, req)
		return err
	}, MutationHooks{
		BeforeSend: func() func() {
			s.Columns = append(s.Columns, col)
			return func() {
				for i, c := range s.Columns {
					if c.ID == col.ID {
						s.Columns = append(s.Columns[:i], s.Columns[i+1:]...)
						break
					}
				}
			}
		},
		OnError: func(err error) {
			s.report(fmt.Errorf("add column %q: %w", col.Name, err))
			s.status("could not add column %q", col.Name)
		},
	})
}

// DeleteColumn removes a column and prunes dependent sort entries and
// filter conditions. On failure the previous column, sort and filter state
// is restored from the snapshot taken at mutation start.
func (s *Session) DeleteColumn(columnID string) {
	col, ok := s.ColumnByID(columnID)
	if !ok {
		return
	}
	s.cache.Mutate(context.Background(), func(ctx context.Context) error {
		return s.client.DeleteColumn(ctx, columnID)
	}, MutationHooks{
		BeforeSend: func() func() {
			prevColumns := append([]baserpc.Column(nil), s.Columns...)
			prevSort := s.Sort
			prevFilter := CloneFilter(s.Filter.Tree())

			for i, c := range s.Columns {
				if c.ID == columnID {
					s.Columns = append(s.Columns[:i], s.Columns[i+1:]...)
					break
				}
			}
			s.Sort.Prune(s.Columns)
			s.Filter.Prune(s.Columns)
			return func() {
				s.Columns = prevColumns
				s.Sort = prevSort
				s.Filter.SetTree(prevFilter)
			}
		},
		OnSuccess: func() {
			if s.window != nil {
				s.window.Invalidate()
			}
		},
		OnError: func(err error) {
			s.report(fmt.Errorf("delete column %q: %w", col.Name, err))
			s.status("could not delete column %q", col.Name)
		},
	})
}

// AddRow appends one empty row with a pre-generated id. Unfiltered windows
// splice it optimistically; filtered windows wait for the refetch.
func (s *Session) AddRow() string {
	id := uuid.NewString()
	row := baserpc.Row{ID: id, Cells: map[string]string{}}
	req := baserpc.AddRowsRequest{TableID: s.TableID, Count: 1, IDs: []string{id}}

	var spliced bool
	s.cache.Mutate(context.Background(), func(ctx context.Context) error {
		return s.client.AddRows(ctx, req)
	}, MutationHooks{
		BeforeSend: func() func() {
			s.rowCount++
			var revert func()
			if s.window != nil {
				revert, spliced = s.window.OptimisticInsert(row)
			}
			return func() {
				s.rowCount--
				if spliced {
					revert()
				}
			}
		},
		OnSuccess: func() {
			if !spliced && s.window != nil {
				s.window.Invalidate()
			}
		},
		OnError: func(err error) {
			s.report(fmt.Errorf("add row: %w", err))
			s.status("could not add row")
		},
	})
	return id
}

// AddRowsBulk creates up to BulkAddMax empty rows. Too large to splice:
// the row count is bumped optimistically and the window refetches on
// success.
func (s *Session) AddRowsBulk(count int) {
	if count <= 0 {
		return
	}
	if count > BulkAddMax {
		count = BulkAddMax
	}
	req := baserpc.AddRowsRequest{TableID: s.TableID, Count: count}
	s.cache.Mutate(context.Background(), func(ctx context.Context) error {
		return s.client.AddRows(ctx, req)
	}, MutationHooks{
		BeforeSend: func() func() {
			s.rowCount += count
			return func() { s.rowCount -= count }
		},
		OnSuccess: func() {
			if s.window != nil {
				s.window.Invalidate()
			}
		},
		OnError: func(err error) {
			s.report(fmt.Errorf("add %d rows: %w", count, err))
			s.status("could not add rows")
		},
	})
}

// DeleteRow removes a row optimistically.
func (s *Session) DeleteRow(rowID string) {
	s.cache.Mutate(context.Background(), func(ctx context.Context) error {
		return s.client.DeleteRow(ctx, rowID)
	}, MutationHooks{
		BeforeSend: func() func() {
			s.rowCount--
			var revert func()
			if s.window != nil {
				revert = s.window.RemoveRowLocal(rowID)
			}
			return func() {
				s.rowCount++
				if revert != nil {
					revert()
				}
			}
		},
		OnError: func(err error) {
			s.report(fmt.Errorf("delete row: %w", err))
			s.status("could not delete row")
		},
	})
}

// CommitCell persists an edited cell value. Numeric values are normalized
// first; a value equal to the committed one clears the draft and sends
// nothing. The cached row is rewritten before the call goes out, and when
// the edited column participates in the active sort or filter the window is
// invalidated on success, because the row's position or membership may have
// changed in a way the client cannot recompute.
func (s *Session) CommitCell(rowID string, col baserpc.Column, value string) {
	if col.Type == baserpc.FieldNumber {
		if !ValidNumberDraft(value) {
			return
		}
		value = NormalizeNumber(value)
	}

	committed := ""
	for _, r := range s.Rows() {
		if r.ID == rowID {
			committed = r.Cell(col.ID)
			break
		}
	}
	if value == committed {
		s.Edit.ClearDraft(rowID, col.ID)
		return
	}

	req := baserpc.UpdateCellRequest{RowID: rowID, ColumnID: col.ID, Value: value}
	s.cache.Mutate(context.Background(), func(ctx context.Context) error {
		return s.client.UpdateCell(ctx, req)
	}, MutationHooks{
		BeforeSend: func() func() {
			var revert func()
			if s.window != nil {
				revert, _ = s.window.UpdateCellLocal(rowID, col.ID, value)
			}
			s.Edit.ClearDraft(rowID, col.ID)
			return func() {
				if revert != nil {
					revert()
				}
			}
		},
		OnSuccess: func() {
			if s.window == nil {
				return
			}
			key := s.window.Key()
			if SortUsesColumn(key.Sort, col.ID) || FilterUsesColumn(key.Filter, col.ID) {
				s.window.Invalidate()
			}
		},
		OnError: func(err error) {
			s.report(fmt.Errorf("update cell: %w", err))
			s.status("could not save cell")
		},
	})
}

// ApplySort installs an optimistic sort override, persists it, and rolls
// back to the last server-confirmed sort on failure. An order identical to
// the effective one issues nothing.
func (s *Session) ApplySort(next baserpc.SortConfig) {
	if SortEqual(next, s.Sort.Effective()) {
		return
	}
	req := baserpc.SetTableSortRequest{TableID: s.TableID, Sort: CloneSort(next)}
	s.cache.Mutate(context.Background(), func(ctx context.Context) error {
		return s.client.SetTableSort(ctx, req)
	}, MutationHooks{
		BeforeSend: func() func() {
			s.Sort.Apply(next)
			return func() { s.Sort.Rollback() }
		},
		OnSuccess: func() {
			s.Sort.Confirm(next)
		},
		OnError: func(err error) {
			s.report(fmt.Errorf("set sort: %w", err))
			s.status("could not save sort")
		},
	})
}

// SetFilterTree replaces the session-local filter tree. The query key
// change takes effect on the next Sync.
func (s *Session) SetFilterTree(tree *baserpc.Filter) {
	s.Filter.SetTree(tree)
}

// FindNext searches the loaded window for the next row whose value in the
// given column contains the query, case-insensitively, starting after
// fromIndex and wrapping once. Returns -1 when nothing matches.
func (s *Session) FindNext(columnID, query string, fromIndex int) int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return -1
	}
	rows := s.Rows()
	n := len(rows)
	if n == 0 {
		return -1
	}
	for i := 1; i <= n; i++ {
		idx := (fromIndex + i) % n
		if strings.Contains(strings.ToLower(rows[idx].Cell(columnID)), query) {
			return idx
		}
	}
	return -1
}
