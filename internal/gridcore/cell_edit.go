package gridcore

import "tably/internal/baserpc"

// EditMode is the grid's per-cell interaction state.
type EditMode int

const (
	ModeIdle     EditMode = iota // no selection
	ModeSelected                 // one cell focused, not editable
	ModeEditing                  // selected cell accepts keystrokes
)

// EditController owns selection, edit mode and the transient per-cell draft
// buffer. It is pure state: the session issues the mutations, the UI reads
// positions and drafts from here.
type EditController struct {
	mode EditMode
	row  int
	col  int

	rows int
	cols int

	// drafts overlay committed values only while a local edit is in
	// progress; cleared on commit or external invalidation.
	drafts map[string]map[string]string
}

func NewEditController() *EditController {
	return &EditController{drafts: map[string]map[string]string{}}
}

// SetDims updates the grid bounds used for clamping and wrapping. The
// current selection is clamped into the new bounds; an empty grid drops it.
func (e *EditController) SetDims(rows, cols int) {
	e.rows, e.cols = rows, cols
	if rows == 0 || cols == 0 {
		e.mode = ModeIdle
		return
	}
	if e.mode == ModeIdle {
		return
	}
	if e.row > rows-1 {
		e.row = rows - 1
	}
	if e.col > cols-1 {
		e.col = cols - 1
	}
}

func (e *EditController) Mode() EditMode { return e.mode }

// Selection returns the focused cell; valid only when Mode != ModeIdle.
func (e *EditController) Selection() (row, col int) { return e.row, e.col }

// Select focuses a cell, clamped to bounds, leaving edit mode if active.
func (e *EditController) Select(row, col int) {
	if e.rows == 0 || e.cols == 0 {
		e.mode = ModeIdle
		return
	}
	e.row = clamp(row, 0, e.rows-1)
	e.col = clamp(col, 0, e.cols-1)
	e.mode = ModeSelected
}

// Deselect returns to idle.
func (e *EditController) Deselect() {
	e.mode = ModeIdle
}

// StartEdit transitions the selected cell into editing.
func (e *EditController) StartEdit() {
	if e.mode == ModeSelected {
		e.mode = ModeEditing
	}
}

// StopEdit leaves editing, keeping the selection. The draft stays buffered;
// commit or discard is the caller's move.
func (e *EditController) StopEdit() {
	if e.mode == ModeEditing {
		e.mode = ModeSelected
	}
}

// TypeToEdit begins editing from a printable keystroke on a selected cell.
// Short text starts over with just the typed rune; long text appends to the
// current display value, mimicking spreadsheet direct-type behavior.
func (e *EditController) TypeToEdit(rowID, columnID string, fieldType baserpc.FieldType, committed string, r rune) {
	if e.mode != ModeSelected {
		return
	}
	base := ""
	if fieldType == baserpc.FieldLongText {
		base = e.DisplayValue(rowID, columnID, committed)
	}
	e.SetDraft(rowID, columnID, base+string(r))
	e.mode = ModeEditing
}

// ClearToEdit begins editing with an emptied buffer (Backspace/Delete on a
// selected cell).
func (e *EditController) ClearToEdit(rowID, columnID string) {
	if e.mode != ModeSelected {
		return
	}
	e.SetDraft(rowID, columnID, "")
	e.mode = ModeEditing
}

// Draft returns the buffered value for a cell, if any.
func (e *EditController) Draft(rowID, columnID string) (string, bool) {
	row, ok := e.drafts[rowID]
	if !ok {
		return "", false
	}
	v, ok := row[columnID]
	return v, ok
}

// SetDraft buffers a local value for a cell.
func (e *EditController) SetDraft(rowID, columnID, value string) {
	row, ok := e.drafts[rowID]
	if !ok {
		row = map[string]string{}
		e.drafts[rowID] = row
	}
	row[columnID] = value
}

// ClearDraft drops a cell's buffered value (successful commit, external
// invalidation, or edit cancel).
func (e *EditController) ClearDraft(rowID, columnID string) {
	if row, ok := e.drafts[rowID]; ok {
		delete(row, columnID)
		if len(row) == 0 {
			delete(e.drafts, rowID)
		}
	}
}

// ClearAllDrafts empties the buffer (table switch, window invalidation).
func (e *EditController) ClearAllDrafts() {
	e.drafts = map[string]map[string]string{}
}

// DisplayValue resolves what a cell shows: the draft if one is buffered,
// else the committed server value, else empty.
func (e *EditController) DisplayValue(rowID, columnID, committed string) string {
	if v, ok := e.Draft(rowID, columnID); ok {
		return v
	}
	return committed
}

// Move shifts the selection by a row/column delta, clamped to bounds. A move
// while editing first drops back to selected; committing is the caller's
// responsibility before navigating.
func (e *EditController) Move(dRow, dCol int) {
	if e.mode == ModeIdle {
		return
	}
	e.mode = ModeSelected
	e.row = clamp(e.row+dRow, 0, e.rows-1)
	e.col = clamp(e.col+dCol, 0, e.cols-1)
}

// MoveDown is the Enter-commit navigation: one row down, same column.
func (e *EditController) MoveDown() { e.Move(1, 0) }

// Tab advances the selection through column order, wrapping to the next or
// previous row at row boundaries and clamping at the grid's corners. The
// same wrap serves both plain navigation and commit-then-navigate.
func (e *EditController) Tab(forward bool) {
	if e.mode == ModeIdle || e.rows == 0 || e.cols == 0 {
		return
	}
	e.mode = ModeSelected
	if forward {
		if e.col+1 < e.cols {
			e.col++
		} else if e.row+1 < e.rows {
			e.row++
			e.col = 0
		}
		return
	}
	if e.col > 0 {
		e.col--
	} else if e.row > 0 {
		e.row--
		e.col = e.cols - 1
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
