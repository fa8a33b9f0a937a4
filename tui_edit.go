package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"tably/internal/baserpc"
	"tably/internal/gridcore"
)

// enterEditMode opens the cell editor seeded with the current display value
// (draft if one is buffered, else the committed value).
func (e *Editor) enterEditMode(row, col int) {
	rows := e.session.Rows()
	if row < 0 || row >= len(rows) || col < 0 || col >= len(e.session.Columns) {
		return
	}
	column := e.session.Columns[col]
	initial := e.session.Edit.DisplayValue(rows[row].ID, column.ID, rows[row].Cell(column.ID))
	e.openEditOverlay(row, col, initial)
}

// enterEditModeWithInitialValue opens the editor over a replaced buffer:
// typing a character starts with just that character, Backspace with "".
func (e *Editor) enterEditModeWithInitialValue(row, col int, initial string) {
	rows := e.session.Rows()
	if row < 0 || row >= len(rows) || col < 0 || col >= len(e.session.Columns) {
		return
	}
	column := e.session.Columns[col]
	if column.Type == baserpc.FieldNumber && !gridcore.ValidNumberDraft(initial) {
		return
	}
	if column.Type == baserpc.FieldLongText && initial != "" {
		// Direct typing on long text appends rather than replaces.
		base := e.session.Edit.DisplayValue(rows[row].ID, column.ID, rows[row].Cell(column.ID))
		initial = base + initial
	}
	e.openEditOverlay(row, col, initial)
}

func (e *Editor) openEditOverlay(row, col int, initial string) {
	if e.editing {
		// Opening another editor blurs the current one, committing it.
		e.exitEditMode(true)
	}
	rows := e.session.Rows()
	if row < 0 || row >= len(rows) || col < 0 || col >= len(e.session.Columns) {
		return
	}
	column := e.session.Columns[col]
	rowID := rows[row].ID

	e.grid.Select(row, col)
	sx, sy, w, ok := e.grid.CellScreenRect(row, col)
	if !ok {
		return
	}

	e.editing = true
	e.editRow, e.editCol = row, col
	e.session.Edit.StartEdit()
	e.session.Edit.SetDraft(rowID, column.ID, initial)

	if column.Type == baserpc.FieldLongText {
		e.openTextAreaOverlay(rowID, column, sx, sy, w, initial)
	} else {
		e.openInputOverlay(rowID, column, sx, sy, w, initial)
	}

	e.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		screen.SetCursorStyle(tcell.CursorStyleBlinkingBar)
	})
	e.updateStatusForEditMode(column)
}

// openInputOverlay edits short text and number cells in a single-line field
// aligned with the cell. Enter commits and moves down; Tab commits and
// advances through column order.
func (e *Editor) openInputOverlay(rowID string, column baserpc.Column, sx, sy, w int, initial string) {
	input := tview.NewInputField().
		SetText(initial).
		SetFieldWidth(w + 1).
		SetFieldBackgroundColor(tcell.ColorDarkGreen).
		SetFieldTextColor(tcell.ColorWhite)

	if column.Type == baserpc.FieldNumber {
		// Keystrokes that would leave an invalid numeric buffer are dropped.
		input.SetAcceptanceFunc(func(text string, _ rune) bool {
			return gridcore.ValidNumberDraft(text)
		})
	}
	input.SetChangedFunc(func(text string) {
		e.session.Edit.SetDraft(rowID, column.ID, text)
	})
	e.editText = input.GetText

	input.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			e.commitEdit(input.GetText(), func() { e.session.Edit.MoveDown() })
			return nil
		case tcell.KeyTab:
			e.commitEdit(input.GetText(), func() { e.session.Edit.Tab(true) })
			return nil
		case tcell.KeyBacktab:
			e.commitEdit(input.GetText(), func() { e.session.Edit.Tab(false) })
			return nil
		case tcell.KeyEscape:
			e.exitEditMode(false)
			return nil
		}
		return event
	})

	e.pages.AddPage(pageEditor, positionOverlay(input, sx, sy, w+1, 1), true, true)
	e.app.SetFocus(input)
}

// openTextAreaOverlay edits long text in a multi-line area that grows with
// its content. Enter inserts a newline; Tab commits.
func (e *Editor) openTextAreaOverlay(rowID string, column baserpc.Column, sx, sy, w int, initial string) {
	textArea := tview.NewTextArea().
		SetText(initial, true).
		SetWrap(true)
	textArea.SetBorder(false)
	e.editText = func() string { return textArea.GetText() }

	resize := func() {
		e.pages.RemovePage(pageEditor)
		ow, oh := overlaySize(textArea.GetText(), w)
		e.pages.AddPage(pageEditor, positionOverlay(textArea, sx, sy, ow, oh), true, true)
	}

	textArea.SetChangedFunc(func() {
		e.session.Edit.SetDraft(rowID, column.ID, textArea.GetText())
		resize()
	})

	textArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab:
			e.commitEdit(textArea.GetText(), func() { e.session.Edit.Tab(true) })
			return nil
		case tcell.KeyBacktab:
			e.commitEdit(textArea.GetText(), func() { e.session.Edit.Tab(false) })
			return nil
		case tcell.KeyEscape:
			e.exitEditMode(false)
			return nil
		}
		// Enter falls through to the text area and inserts a newline.
		return event
	})

	ow, oh := overlaySize(initial, w)
	e.pages.AddPage(pageEditor, positionOverlay(textArea, sx, sy, ow, oh), true, true)
	e.app.SetFocus(textArea)
}

// commitEdit persists the buffer and optionally navigates. The optimistic
// write lands before the overlay is gone, so the grid never flashes the old
// value.
func (e *Editor) commitEdit(value string, move func()) {
	row, col := e.editRow, e.editCol
	rows := e.session.Rows()
	e.closeEditOverlay()
	if row < 0 || row >= len(rows) || col < 0 || col >= len(e.session.Columns) {
		return
	}
	e.session.CommitCell(rows[row].ID, e.session.Columns[col], value)
	if move != nil {
		move()
		nr, nc := e.session.Edit.Selection()
		e.grid.Select(nr, nc)
	}
}

// exitEditMode closes the overlay; commit=false discards the draft.
func (e *Editor) exitEditMode(commit bool) {
	if !e.editing {
		return
	}
	if commit && e.editText != nil {
		e.commitEdit(e.editText(), nil)
		return
	}
	rows := e.session.Rows()
	if e.editRow >= 0 && e.editRow < len(rows) && e.editCol >= 0 && e.editCol < len(e.session.Columns) {
		e.session.Edit.ClearDraft(rows[e.editRow].ID, e.session.Columns[e.editCol].ID)
	}
	e.closeEditOverlay()
}

func (e *Editor) closeEditOverlay() {
	e.pages.RemovePage(pageEditor)
	e.app.SetAfterDrawFunc(nil)
	e.setCursorStyle(0)
	e.app.SetFocus(e.grid)
	e.editing = false
	e.editRow, e.editCol = -1, -1
	e.editText = nil
	e.session.Edit.StopEdit()
	e.updateStatusWithCellContent()
}

func (e *Editor) setCursorStyle(style int) {
	fmt.Printf("\033[%d q", style)
}

// positionOverlay places a primitive at absolute screen coordinates using
// nested flexes with fixed spacers.
func positionOverlay(p tview.Primitive, sx, sy, w, h int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, sx, 0, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, sy, 0, false).
			AddItem(p, h, 0, true).
			AddItem(nil, 0, 1, false), w, 0, true).
		AddItem(nil, 0, 1, false)
}

// overlaySize grows the long-text editor with its content: wide enough for
// the longest line, tall enough for every line, within sane caps.
func overlaySize(text string, cellW int) (w, h int) {
	lines := strings.Split(text, "\n")
	longest := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > longest {
			longest = n
		}
	}
	w = max(cellW+1, longest+2)
	if w > 60 {
		w = 60
	}
	h = max(1, len(lines))
	if h > 8 {
		h = 8
	}
	return w, h
}
