package gridcore

import (
	"context"
	"testing"

	"tably/internal/baserpc"
)

// newTestSession boots a session against a fresh MemoryClient table with a
// synchronous cache, so every mutation settles before the call returns.
func newTestSession(t *testing.T) (*Session, *baserpc.MemoryClient) {
	t.Helper()
	ctx := context.Background()
	mc := baserpc.NewMemoryClient()
	base, err := mc.CreateBase(ctx)
	if err != nil {
		t.Fatal(err)
	}
	table, err := mc.AddTable(ctx, base.ID)
	if err != nil {
		t.Fatal(err)
	}

	sess := NewSession(mc, NewCache(nil))
	sess.LoadTable(table.ID)
	sess.Sync()
	return sess, mc
}

func requireColumn(t *testing.T, sess *Session, name string) baserpc.Column {
	t.Helper()
	for _, c := range sess.Columns {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found in %v", name, sess.Columns)
	return baserpc.Column{}
}

func TestSessionEnsuresRequiredColumns(t *testing.T) {
	sess, mc := newTestSession(t)

	for _, req := range RequiredColumns {
		col := requireColumn(t, sess, req.Name)
		if col.Type != req.Type {
			t.Errorf("column %q type = %q, want %q", req.Name, col.Type, req.Type)
		}
	}

	// The bootstrap is idempotent per table per session.
	meta, err := mc.GetTableMeta(context.Background(), sess.TableID)
	if err != nil {
		t.Fatal(err)
	}
	before := len(meta.Columns)
	sess.Sync()
	sess.Sync()
	meta, err = mc.GetTableMeta(context.Background(), sess.TableID)
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Columns) != before {
		t.Errorf("columns grew from %d to %d on repeated Sync", before, len(meta.Columns))
	}
}

func TestSessionAddThenEditRollback(t *testing.T) {
	sess, mc := newTestSession(t)
	sess.Sync()
	nameCol := requireColumn(t, sess, "Name")

	rowID := sess.AddRow()
	sess.Sync()

	rows := sess.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows after add = %d, want 1", len(rows))
	}
	if rows[0].ID != rowID {
		t.Fatalf("row id = %q, want %q", rows[0].ID, rowID)
	}
	for _, c := range sess.Columns {
		if v := rows[0].Cell(c.ID); v != "" {
			t.Errorf("new row cell %q = %q, want empty", c.Name, v)
		}
	}
	if sess.RowCount() != 1 {
		t.Errorf("RowCount() = %d, want 1", sess.RowCount())
	}

	// Commit an edit and verify it reached the server.
	sess.CommitCell(rowID, nameCol, "Widget")
	sess.Sync()
	if got := sess.Rows()[0].Cell(nameCol.ID); got != "Widget" {
		t.Fatalf("cell after commit = %q, want Widget", got)
	}
	resp, err := mc.GetRows(context.Background(), baserpc.GetRowsRequest{TableID: sess.TableID, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Rows[0].Cell(nameCol.ID); got != "Widget" {
		t.Fatalf("server cell = %q, want Widget", got)
	}

	// A failing mutation reverts the cell to its pre-edit value.
	var statusMsg string
	sess.Status = func(msg string) { statusMsg = msg }
	mc.FailNext = "write refused"
	sess.CommitCell(rowID, nameCol, "Gadget")
	sess.Sync()
	if got := sess.Rows()[0].Cell(nameCol.ID); got != "Widget" {
		t.Errorf("cell after failed commit = %q, want Widget", got)
	}
	if statusMsg == "" {
		t.Error("no status message after failed commit")
	}
}

func TestSessionAddRowRollback(t *testing.T) {
	sess, mc := newTestSession(t)
	sess.Sync()

	mc.FailNext = "insert refused"
	sess.AddRow()
	sess.Sync()

	if got := len(sess.Rows()); got != 0 {
		t.Errorf("rows after failed add = %d, want 0", got)
	}
	if got := sess.RowCount(); got != 0 {
		t.Errorf("RowCount() after failed add = %d, want 0", got)
	}
}

func TestSessionSortRollback(t *testing.T) {
	sess, mc := newTestSession(t)
	sess.Sync()
	nameCol := requireColumn(t, sess, "Name")

	asc := baserpc.SortConfig{{ColumnID: nameCol.ID, Direction: baserpc.SortAsc}}
	sess.ApplySort(asc)
	if !SortEqual(sess.Sort.Effective(), asc) {
		t.Fatalf("effective sort = %v, want %v", sess.Sort.Effective(), asc)
	}
	if sess.Sort.Pending() {
		t.Fatal("sort still pending after synchronous confirm")
	}

	mc.FailNext = "sort refused"
	desc := baserpc.SortConfig{{ColumnID: nameCol.ID, Direction: baserpc.SortDesc}}
	sess.ApplySort(desc)
	if !SortEqual(sess.Sort.Effective(), asc) {
		t.Errorf("effective sort after failed apply = %v, want %v", sess.Sort.Effective(), asc)
	}
}

func TestSessionBulkAdd(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.Sync()

	sess.AddRowsBulk(200)
	if got := sess.RowCount(); got != 200 {
		t.Fatalf("RowCount() after bulk add = %d, want 200", got)
	}
	sess.Sync()
	// First page only; the sentinel accounts for the rest.
	if got := len(sess.Rows()); got != PageSize {
		t.Errorf("loaded rows = %d, want %d", got, PageSize)
	}
	if got := sess.VirtualRowCount(); got != PageSize+1 {
		t.Errorf("VirtualRowCount() = %d, want %d", got, PageSize+1)
	}
}

func TestSessionDeleteColumnPrunesSortAndFilter(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.Sync()
	statusCol := requireColumn(t, sess, "Status")

	sess.ApplySort(baserpc.SortConfig{{ColumnID: statusCol.ID, Direction: baserpc.SortAsc}})
	sess.SetFilterTree(&baserpc.Filter{
		Connector: baserpc.ConnectorAnd,
		Items: []baserpc.FilterItem{{Condition: &baserpc.Condition{
			ColumnID: statusCol.ID, Operator: baserpc.OpIs, Value: "Done",
		}}},
	})

	sess.DeleteColumn(statusCol.ID)
	sess.Sync()

	if _, ok := sess.ColumnByID(statusCol.ID); ok {
		t.Fatal("deleted column still present")
	}
	if SortUsesColumn(sess.Sort.Effective(), statusCol.ID) {
		t.Error("sort still references deleted column")
	}
	if sess.Filter.Effective(sess.Columns) != nil {
		t.Error("filter still effective after its only column was deleted")
	}
}

func TestSessionQueryKeyChangeClearsDrafts(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.Sync()
	nameCol := requireColumn(t, sess, "Name")

	rowID := sess.AddRow()
	sess.Sync()
	sess.Edit.SetDraft(rowID, nameCol.ID, "half-typed")

	// A sort change rebuilds the window under a new key; buffered drafts
	// must not survive into the restarted sequence.
	sess.ApplySort(baserpc.SortConfig{{ColumnID: nameCol.ID, Direction: baserpc.SortAsc}})
	sess.Sync()

	if _, ok := sess.Edit.Draft(rowID, nameCol.ID); ok {
		t.Error("draft survived the query-key change")
	}
}

func TestSessionFindNext(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.Sync()
	nameCol := requireColumn(t, sess, "Name")

	ids := []string{sess.AddRow(), sess.AddRow(), sess.AddRow()}
	sess.Sync()
	values := []string{"alpha", "beta", "alphabet"}
	for i, id := range ids {
		sess.CommitCell(id, nameCol, values[i])
	}
	sess.Sync()

	if got := sess.FindNext(nameCol.ID, "alpha", 0); got != 2 {
		t.Errorf("FindNext from 0 = %d, want 2", got)
	}
	if got := sess.FindNext(nameCol.ID, "alpha", 2); got != 0 {
		t.Errorf("FindNext wraps to %d, want 0", got)
	}
	if got := sess.FindNext(nameCol.ID, "missing", 0); got != -1 {
		t.Errorf("FindNext for missing = %d, want -1", got)
	}
}
