package main

import (
	"context"
	"strings"
	"testing"

	"github.com/rivo/tview"

	"tably/internal/baserpc"
	"tably/internal/gridcore"
)

// newTestEditor boots an Editor over a fresh MemoryClient table with a
// synchronous cache, without running the tview event loop.
func newTestEditor(t *testing.T) (*Editor, *baserpc.MemoryClient) {
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

	session := gridcore.NewSession(mc, gridcore.NewCache(nil))
	session.LoadTable(table.ID)
	session.Sync()

	e := &Editor{
		app:     tview.NewApplication(),
		pages:   tview.NewPages(),
		session: session,
		client:  mc,
		editRow: -1,
		editCol: -1,
	}
	e.grid = NewGridView(session)
	return e, mc
}

func editorColumn(t *testing.T, e *Editor, name string) (baserpc.Column, int) {
	t.Helper()
	for i, c := range e.session.Columns {
		if c.Name == name {
			return c, i
		}
	}
	t.Fatalf("column %q not found", name)
	return baserpc.Column{}, -1
}

// openDraft simulates an open cell editor holding a buffered value, the
// state the overlay leaves behind while the user is typing.
func openDraft(e *Editor, row, col int, rowID, columnID, value string) {
	e.editing = true
	e.editRow, e.editCol = row, col
	e.session.Edit.StartEdit()
	e.session.Edit.SetDraft(rowID, columnID, value)
	e.editText = func() string { return value }
}

func TestSelectionChangeCommitsOpenEdit(t *testing.T) {
	e, mc := newTestEditor(t)
	nameCol, colIdx := editorColumn(t, e, "Name")

	rowID := e.session.AddRow()
	e.session.Sync()

	openDraft(e, 0, colIdx, rowID, nameCol.ID, "Widget")

	// Selecting another cell blurs the editor.
	e.onSelectionChange(0, colIdx+1)

	if e.editing {
		t.Fatal("editor still open after selection change")
	}
	resp, err := mc.GetRows(context.Background(), baserpc.GetRowsRequest{
		TableID: e.session.TableID, Limit: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Rows[0].Cell(nameCol.ID); got != "Widget" {
		t.Errorf("server value after blur = %q, want %q", got, "Widget")
	}
	if _, ok := e.session.Edit.Draft(rowID, nameCol.ID); ok {
		t.Error("draft still buffered after commit")
	}
}

func TestEscapeDiscardsOpenEdit(t *testing.T) {
	e, mc := newTestEditor(t)
	nameCol, colIdx := editorColumn(t, e, "Name")

	rowID := e.session.AddRow()
	e.session.Sync()
	e.session.CommitCell(rowID, nameCol, "Widget")
	e.session.Sync()

	openDraft(e, 0, colIdx, rowID, nameCol.ID, "Gadget")

	e.exitEditMode(false)

	if e.editing {
		t.Fatal("editor still open after cancel")
	}
	resp, err := mc.GetRows(context.Background(), baserpc.GetRowsRequest{
		TableID: e.session.TableID, Limit: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Rows[0].Cell(nameCol.ID); got != "Widget" {
		t.Errorf("server value after cancel = %q, want %q", got, "Widget")
	}
	if _, ok := e.session.Edit.Draft(rowID, nameCol.ID); ok {
		t.Error("draft survived cancel")
	}
}

func TestStatusLineCarriesRowTotal(t *testing.T) {
	e, _ := newTestEditor(t)
	nameCol, _ := editorColumn(t, e, "Name")

	rowID := e.session.AddRow()
	e.session.Sync()
	e.session.CommitCell(rowID, nameCol, "Widget")
	e.session.Sync()

	e.statusBar = tview.NewTextView().SetDynamicColors(true)
	e.grid.Select(0, 0)
	e.updateStatusWithCellContent()

	got := e.statusBar.GetText(true)
	if !strings.Contains(got, "row 1 of 1") {
		t.Errorf("status %q does not mention the row total", got)
	}
}
