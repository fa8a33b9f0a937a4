package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"tably/internal/baserpc"
	"tably/internal/gridcore"
)

func newTestFilterPanel(t *testing.T) (*filterPanel, *Editor, [2]string) {
	t.Helper()
	e, _ := newTestEditor(t)
	nameCol, _ := editorColumn(t, e, "Name")
	statusCol, _ := editorColumn(t, e, "Status")

	tree := &baserpc.Filter{
		Connector: baserpc.ConnectorAnd,
		Items: []baserpc.FilterItem{
			{Condition: &baserpc.Condition{ColumnID: nameCol.ID, Operator: baserpc.OpContains, Value: "a"}},
			{Condition: &baserpc.Condition{ColumnID: statusCol.ID, Operator: baserpc.OpIs, Value: "Done"}},
		},
	}
	p := &filterPanel{Box: tview.NewBox(), editor: e, tree: tree}
	p.SetRect(0, 0, 52, 14)
	return p, e, [2]string{nameCol.ID, statusCol.ID}
}

func TestFilterPanelDragReorder(t *testing.T) {
	p, e, cols := newTestFilterPanel(t)
	handler := p.MouseHandler()
	setFocus := func(tview.Primitive) {}

	// Grab the first condition and drag it one row down.
	press := tcell.NewEventMouse(5, panelListTop, tcell.Button1, tcell.ModNone)
	if consumed, _ := handler(tview.MouseLeftDown, press, setFocus); !consumed {
		t.Fatal("press on list row not consumed")
	}
	move := tcell.NewEventMouse(5, panelListTop+1, tcell.Button1, tcell.ModNone)
	handler(tview.MouseMove, move, setFocus)
	release := tcell.NewEventMouse(5, panelListTop+1, tcell.ButtonNone, tcell.ModNone)
	handler(tview.MouseLeftUp, release, setFocus)

	if got := p.tree.Items[0].Condition.ColumnID; got != cols[1] {
		t.Errorf("first item after drag = %q, want %q", got, cols[1])
	}
	if got := p.tree.Items[1].Condition.ColumnID; got != cols[0] {
		t.Errorf("second item after drag = %q, want %q", got, cols[0])
	}
	if p.drag != nil {
		t.Error("gesture still active after release")
	}

	// Release committed the new order to the session.
	applied := e.session.Filter.Tree()
	if applied == nil || len(applied.Items) != 2 {
		t.Fatalf("session filter after drag = %v", applied)
	}
	if got := applied.Items[0].Condition.ColumnID; got != cols[1] {
		t.Errorf("applied first item = %q, want %q", got, cols[1])
	}
}

func TestFilterPanelDragWithoutMoveAppliesNothing(t *testing.T) {
	p, e, _ := newTestFilterPanel(t)
	handler := p.MouseHandler()
	setFocus := func(tview.Primitive) {}

	press := tcell.NewEventMouse(5, panelListTop, tcell.Button1, tcell.ModNone)
	handler(tview.MouseLeftDown, press, setFocus)
	release := tcell.NewEventMouse(5, panelListTop, tcell.ButtonNone, tcell.ModNone)
	handler(tview.MouseLeftUp, release, setFocus)

	if e.session.Filter.Tree() != nil {
		t.Error("unchanged order still issued a filter update")
	}
}

func TestFilterPanelKeyboardReorder(t *testing.T) {
	p, _, cols := newTestFilterPanel(t)
	handler := p.InputHandler()
	setFocus := func(tview.Primitive) {}

	handler(tcell.NewEventKey(tcell.KeyRune, 'J', tcell.ModNone), setFocus)

	if got := p.tree.Items[0].Condition.ColumnID; got != cols[1] {
		t.Errorf("first item after J = %q, want %q", got, cols[1])
	}
	if p.selected != 1 {
		t.Errorf("selection after J = %d, want 1", p.selected)
	}

	handler(tcell.NewEventKey(tcell.KeyRune, 'K', tcell.ModNone), setFocus)

	if got := p.tree.Items[0].Condition.ColumnID; got != cols[0] {
		t.Errorf("first item after K = %q, want %q", got, cols[0])
	}
	if p.selected != 0 {
		t.Errorf("selection after K = %d, want 0", p.selected)
	}
}

func TestSortPanelDragReorder(t *testing.T) {
	e, _ := newTestEditor(t)
	nameCol, _ := editorColumn(t, e, "Name")
	statusCol, _ := editorColumn(t, e, "Status")

	p := &sortPanel{
		Box:    tview.NewBox(),
		editor: e,
		entries: baserpc.SortConfig{
			{ColumnID: nameCol.ID, Direction: baserpc.SortAsc},
			{ColumnID: statusCol.ID, Direction: baserpc.SortDesc},
		},
	}
	p.SetRect(0, 0, 52, 14)
	handler := p.MouseHandler()
	setFocus := func(tview.Primitive) {}

	press := tcell.NewEventMouse(5, panelListTop, tcell.Button1, tcell.ModNone)
	handler(tview.MouseLeftDown, press, setFocus)
	move := tcell.NewEventMouse(5, panelListTop+1, tcell.Button1, tcell.ModNone)
	handler(tview.MouseMove, move, setFocus)
	release := tcell.NewEventMouse(5, panelListTop+1, tcell.ButtonNone, tcell.ModNone)
	handler(tview.MouseLeftUp, release, setFocus)

	if got := p.entries[0].ColumnID; got != statusCol.ID {
		t.Errorf("primary sort after drag = %q, want %q", got, statusCol.ID)
	}
	if !gridcore.SortEqual(e.session.Sort.Effective(), p.entries) {
		t.Errorf("session sort = %v, want %v", e.session.Sort.Effective(), p.entries)
	}
}
