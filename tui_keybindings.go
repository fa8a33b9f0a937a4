package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"tably/internal/gridcore"
)

func (e *Editor) setupKeyBindings() {
	e.grid.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		key := event.Key()
		r := event.Rune()
		mod := event.Modifiers()

		row, col := e.grid.Selection()
		lastCol := len(e.session.Columns) - 1
		rowCount := len(e.session.Rows())

		// Delete mode pins the selection: only confirm or cancel.
		if e.paletteMode == PaletteModeDelete {
			switch key {
			case tcell.KeyEnter:
				e.executeDelete()
				e.setPaletteMode(PaletteModeDefault, false)
				e.app.SetFocus(e.grid)
				e.SetStatusMessage("Ready")
			case tcell.KeyEscape:
				e.setPaletteMode(PaletteModeDefault, false)
				e.app.SetFocus(e.grid)
				e.SetStatusMessage("Ready")
			}
			return nil
		}

		// Record keyboard event in breadcrumbs (but not during edit mode)
		if breadcrumbs != nil && !e.editing {
			keyStr := fmt.Sprintf("%v", key)
			if key == tcell.KeyRune {
				keyStr = string(r)
			}
			modStr := ""
			if mod&tcell.ModCtrl != 0 {
				modStr += "Ctrl+"
			}
			if mod&tcell.ModShift != 0 {
				modStr += "Shift+"
			}
			if mod&tcell.ModAlt != 0 {
				modStr += "Alt+"
			}
			breadcrumbs.RecordKeyboard(keyStr, modStr)
		}

		switch {
		// Ctrl+O: open/close the base and table picker
		case (r == 'o' || r == 15) && mod&tcell.ModCtrl != 0:
			e.showPicker()
			return nil
		// Ctrl+F sends ACK (6) or 'f' depending on terminal
		case (r == 'f' || r == 6) && mod&tcell.ModCtrl != 0:
			e.setPaletteMode(PaletteModeFind, true)
			return nil
		// Ctrl+P sends DLE (16) or 'p' depending on terminal
		case (r == 'p' || r == 16) && mod&tcell.ModCtrl != 0:
			e.setPaletteMode(PaletteModeCommand, true)
			return nil
		// Ctrl+D: arm delete confirmation for the selected row
		case (r == 'd' || r == 4) && mod&tcell.ModCtrl != 0:
			e.enterDeleteMode(row)
			return nil
		// Ctrl+S: sort editor
		case (r == 's' || r == 19) && mod&tcell.ModCtrl != 0:
			e.openSortPanel()
			return nil
		// Ctrl+G sends BEL (7) or 'g' depending on terminal
		case (r == 'g' || r == 7) && mod&tcell.ModCtrl != 0:
			e.openFilterPanel()
			return nil
		case (r == 'q' || r == 17) && mod&tcell.ModCtrl != 0:
			e.app.Stop()
			return nil
		case key == tcell.KeyRune && r == '=' && mod&tcell.ModCtrl != 0:
			e.adjustColumnWidth(col, 1)
			return nil
		case key == tcell.KeyRune && r == '-' && mod&tcell.ModCtrl != 0:
			e.adjustColumnWidth(col, -1)
			return nil
		}

		switch {
		case key == tcell.KeyEnter:
			e.enterEditMode(row, col)
			return nil
		case key == tcell.KeyEscape:
			if e.editing {
				e.exitEditMode(false)
				return nil
			}
			e.setPaletteMode(PaletteModeDefault, false)
			return nil
		case key == tcell.KeyTab:
			e.navigateTab(false)
			return nil
		case key == tcell.KeyBacktab:
			e.navigateTab(true)
			return nil
		case key == tcell.KeyHome:
			if mod&tcell.ModCtrl != 0 {
				e.grid.Select(0, col)
				return nil
			}
			e.grid.Select(row, 0)
			return nil
		case key == tcell.KeyEnd:
			if mod&tcell.ModCtrl != 0 {
				e.grid.Select(rowCount-1, col)
				return nil
			}
			e.grid.Select(row, lastCol)
			return nil
		case key == tcell.KeyPgUp:
			e.grid.Select(row-e.grid.PageSizeRows(), col)
			return nil
		case key == tcell.KeyPgDn:
			e.grid.Select(row+e.grid.PageSizeRows(), col)
			return nil
		case key == tcell.KeyUp:
			e.grid.Select(row-1, col)
			return nil
		case key == tcell.KeyDown:
			e.grid.Select(row+1, col)
			return nil
		case key == tcell.KeyLeft:
			e.grid.Select(row, col-1)
			return nil
		case key == tcell.KeyRight:
			e.grid.Select(row, col+1)
			return nil
		case key == tcell.KeyBackspace || key == tcell.KeyBackspace2 || key == tcell.KeyDEL || key == tcell.KeyDelete:
			// Clear-to-edit: open the overlay with an emptied buffer
			e.enterEditModeWithInitialValue(row, col, "")
			return nil

		// 'r' retries a failed load; only intercepted while an error is showing
		case key == tcell.KeyRune && r == 'r' && mod == 0 && e.session.MetaErr() != nil:
			e.session.RetryMeta()
			return nil
		case key == tcell.KeyRune && r == 'r' && mod == 0 &&
			e.session.Window() != nil && e.session.Window().Err() != nil:
			e.session.Window().Retry()
			return nil

		// Vim mode keybindings
		case e.vimMode && key == tcell.KeyRune && r == 'h' && mod == 0:
			e.grid.Select(row, col-1)
			return nil
		case e.vimMode && key == tcell.KeyRune && r == 'l' && mod == 0:
			e.grid.Select(row, col+1)
			return nil
		case e.vimMode && key == tcell.KeyRune && r == 'j' && mod == 0:
			e.grid.Select(row+1, col)
			return nil
		case e.vimMode && key == tcell.KeyRune && r == 'k' && mod == 0:
			e.grid.Select(row-1, col)
			return nil
		case e.vimMode && key == tcell.KeyRune && r == 'g' && mod == 0:
			// g and gg both jump to the first row
			e.grid.Select(0, col)
			if time.Since(e.lastGPress) < 500*time.Millisecond {
				e.lastGPress = time.Time{}
			} else {
				e.lastGPress = time.Now()
			}
			return nil
		case e.vimMode && key == tcell.KeyRune && r == 'G':
			e.grid.Select(rowCount-1, col)
			return nil
		case e.vimMode && key == tcell.KeyRune && (r == '0' || r == '^') && mod == 0:
			e.grid.Select(row, 0)
			return nil
		case e.vimMode && key == tcell.KeyRune && r == '$':
			e.grid.Select(row, lastCol)
			return nil
		case e.vimMode && key == tcell.KeyRune && r == 'i' && mod == 0:
			// i: edit with cursor in the existing value
			e.enterEditMode(row, col)
			return nil
		case e.vimMode && key == tcell.KeyRune && r == 'a' && mod == 0:
			e.enterEditMode(row, col)
			return nil
		default:
			// In vim mode typing never auto-enters edit mode (use 'i' or 'a')
			if !e.vimMode && key == tcell.KeyRune && r != 0 &&
				mod&(tcell.ModAlt|tcell.ModCtrl|tcell.ModMeta) == 0 {
				e.enterEditModeWithInitialValue(row, col, string(r))
				return nil
			}
		}

		return event
	})
}

func (e *Editor) navigateTab(reverse bool) {
	e.session.Edit.Tab(!reverse)
	row, col := e.session.Edit.Selection()
	e.grid.Select(row, col)
}

// adjustColumnWidth resizes the selected column by delta cells, clamped, and
// persists the result.
func (e *Editor) adjustColumnWidth(col, delta int) {
	if col < 0 || col >= len(e.session.Columns) {
		return
	}
	id := e.session.Columns[col].ID
	w := gridcore.ClampColumnWidth(e.session.ColumnWidth(id) + delta)
	if w == e.session.ColumnWidth(id) {
		return
	}
	e.session.SetColumnWidth(id, w)
	e.grid.MarkWidthsDirty()
	if err := e.state.SetColumnWidth(e.session.TableID, id, w); err != nil {
		CaptureError(err)
	}
}
