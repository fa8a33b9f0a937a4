package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"tably/internal/baserpc"
)

// Mode management helpers
func (e *Editor) setPaletteMode(mode PaletteMode, focus bool) {
	// Record navigation event in breadcrumbs
	if breadcrumbs != nil && mode != e.paletteMode {
		modeStr := fmt.Sprintf("%v", mode)
		switch mode {
		case PaletteModeDefault:
			modeStr = "Default"
		case PaletteModeCommand:
			modeStr = "Command"
		case PaletteModeFind:
			modeStr = "Find"
		case PaletteModeDelete:
			modeStr = "Delete"
		}
		breadcrumbs.RecordNavigation(modeStr, "Palette mode changed")
	}

	wasDeleteMode := e.paletteMode == PaletteModeDelete
	isDeleteMode := mode == PaletteModeDelete

	e.paletteMode = mode
	e.commandPalette.SetLabel(mode.Glyph())
	// Clear input when switching modes
	e.commandPalette.SetText("")
	style := e.commandPalette.GetPlaceholderStyle().Italic(true)
	e.commandPalette.SetPlaceholderStyle(style)

	if e.grid != nil {
		e.grid.SetDeleteMode(isDeleteMode)
		e.grid.SetFindMode(mode == PaletteModeFind)
	}

	// Delete mode turns the status bar red while the confirmation is pending.
	if e.statusBar != nil {
		if isDeleteMode && !wasDeleteMode {
			e.statusBar.SetBackgroundColor(tcell.ColorRed)
			e.statusBar.SetTextColor(tcell.ColorWhite)
		} else if !isDeleteMode && wasDeleteMode {
			e.statusBar.SetBackgroundColor(tcell.ColorLightGray)
			e.statusBar.SetTextColor(tcell.ColorBlack)
		}
	}

	switch mode {
	case PaletteModeDefault:
		e.commandPalette.SetPlaceholder("Ctrl+… P: Command · F: Find · D: Delete · S: Sort · G: Filter · O: Open · Q: Quit")
	case PaletteModeCommand:
		e.commandPalette.SetPlaceholder("Command… (Esc to exit)")
	case PaletteModeFind:
		e.commandPalette.SetPlaceholder("Find in current column… (Enter: next match · Esc to exit)")
	case PaletteModeDelete:
		e.commandPalette.SetPlaceholder("")
	}

	if focus {
		e.app.SetFocus(e.commandPalette)
	}
}

// Status bar API methods
func (e *Editor) SetStatusMessage(message string) {
	if e.statusBar != nil {
		e.statusBar.SetText(message)
	}
}

func (e *Editor) SetStatusError(message string) {
	if e.statusBar != nil {
		e.statusBar.SetText("[red]ERROR: " + message + "[-]")
	}
}

// SetStatusErrorWithSentry sets an error status and sends it to Sentry
func (e *Editor) SetStatusErrorWithSentry(err error) {
	e.SetStatusError(err.Error())
	CaptureError(err)
}

func (e *Editor) SetStatusLog(message string) {
	if e.statusBar != nil {
		e.statusBar.SetText("[blue]LOG: " + message + "[-]")
	}
}

// updateStatusWithCellContent displays the full value of the selected cell in
// the status bar, with the column's field type. Multi-line values show their
// first line in the grid; the status bar carries the rest of the context.
func (e *Editor) updateStatusWithCellContent() {
	if e.editing || e.paletteMode == PaletteModeDelete {
		return
	}

	row, col := e.grid.Selection()
	rows := e.session.Rows()
	if row < 0 || row >= len(rows) || col < 0 || col >= len(e.session.Columns) {
		return
	}

	column := e.session.Columns[col]
	value := e.session.Edit.DisplayValue(rows[row].ID, column.ID, rows[row].Cell(column.ID))

	e.SetStatusMessage(fmt.Sprintf("[black]%s %s[darkgreen] %s[black] · row %d of %d",
		column.Name, fieldTypeLabel(column.Type), tview.Escape(value),
		row+1, e.session.RowCount()))
}

// updateStatusForEditMode sets status bar text with the field type's input
// rules while the overlay is open.
func (e *Editor) updateStatusForEditMode(col baserpc.Column) {
	switch col.Type {
	case baserpc.FieldLongText:
		e.SetStatusMessage("Text (multi-line) · Enter for newline · Tab to save · Esc to cancel")
	case baserpc.FieldNumber:
		e.SetStatusMessage("Number (up to 8 digits) · Enter to save · Esc to cancel")
	default:
		e.SetStatusMessage("Text · Enter to save · Esc to cancel")
	}
}

func fieldTypeLabel(t baserpc.FieldType) string {
	switch t {
	case baserpc.FieldLongText:
		return "(long text)"
	case baserpc.FieldNumber:
		return "(number)"
	default:
		return "(text)"
	}
}
