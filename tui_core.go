package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"tably/internal/baserpc"
	"tably/internal/gridcore"
)

const (
	pagePicker = "picker"
	pageGrid   = "grid"
	pageEditor = "editor"
	pagePanel  = "panel"
)

// Editor owns the application: the grid, the session behind it, the base
// picker, the status bar and the command palette. All fields are touched
// only from the tview event loop; async work re-enters through the cache
// scheduler.
type Editor struct {
	app     *tview.Application
	pages   *tview.Pages
	grid    *GridView
	session *gridcore.Session
	cache   *gridcore.Cache
	client  baserpc.Client
	config  *Config
	state   *StateStore
	vimMode bool

	// references to key components
	picker         *FuzzySelector
	statusBar      *tview.TextView
	commandPalette *tview.InputField
	layout         *tview.Flex

	paletteMode PaletteMode
	lastGPress  time.Time // For detecting 'gg' in vim mode

	// cell editing overlay state
	editing  bool
	editRow  int
	editCol  int
	editText func() string

	// base/table catalog backing the picker
	bases   []baserpc.Base
	baseID  string
	tables  []baserpc.Table
	entries []pickerEntry
}

// pickerEntry maps a picker line back to the action it stands for.
type pickerEntry struct {
	label    string
	baseID   string // switch base when set and tableID empty
	tableID  string // switch table when set
	newBase  bool
	newTable bool
}

// PaletteMode represents the current mode of the command palette
type PaletteMode int

const (
	PaletteModeDefault PaletteMode = iota
	PaletteModeCommand
	PaletteModeFind
	PaletteModeDelete
)

func (m PaletteMode) Glyph() string {
	switch m {
	case PaletteModeDefault:
		return "⌃ "
	case PaletteModeCommand:
		return "> "
	case PaletteModeFind:
		return "↪ "
	case PaletteModeDelete:
		return "✗ "
	default:
		return "> "
	}
}

// mouseActionString converts tview.MouseAction to a human-readable string
func mouseActionString(action tview.MouseAction) string {
	switch action {
	case tview.MouseScrollUp:
		return "ScrollUp"
	case tview.MouseScrollDown:
		return "ScrollDown"
	case tview.MouseScrollLeft:
		return "ScrollLeft"
	case tview.MouseScrollRight:
		return "ScrollRight"
	case tview.MouseLeftClick:
		return "LeftClick"
	case tview.MouseRightClick:
		return "RightClick"
	case tview.MouseMiddleClick:
		return "MiddleClick"
	case tview.MouseLeftDown:
		return "LeftDown"
	case tview.MouseLeftUp:
		return "LeftUp"
	case tview.MouseMove:
		return "Move"
	case tview.MouseLeftDoubleClick:
		return "LeftDoubleClick"
	default:
		return fmt.Sprintf("Unknown(%d)", action)
	}
}

func runEditor(config *Config, state *StateStore, client baserpc.Client, baseArg, tableArg string) error {
	tview.Styles.ContrastBackgroundColor = tcell.ColorBlack

	ctx := context.Background()

	// Resolve the initial base and table before the UI starts: the grid needs
	// a table id, and creating one on demand keeps first run from landing on
	// an empty screen.
	bases, err := client.ListBases(ctx)
	if err != nil {
		CaptureError(err)
		return err
	}

	lastBaseID, lastTableID, err := state.LastOpened()
	if err != nil {
		CaptureError(err)
		lastBaseID, lastTableID = "", ""
	}

	baseID := resolveBase(bases, baseArg, lastBaseID)
	if baseID == "" {
		base, err := client.CreateBase(ctx)
		if err != nil {
			CaptureError(err)
			return fmt.Errorf("could not create a base: %w", err)
		}
		bases = append(bases, *base)
		baseID = base.ID
	}

	detail, err := client.GetBase(ctx, baseID)
	if err != nil {
		CaptureError(err)
		return err
	}
	tables := detail.Tables

	tableID := resolveTable(tables, tableArg, lastTableID)
	if tableID == "" {
		table, err := client.AddTable(ctx, baseID)
		if err != nil {
			CaptureError(err)
			return fmt.Errorf("could not create a table: %w", err)
		}
		tables = append(tables, *table)
		tableID = table.ID
	}

	app := tview.NewApplication().EnableMouse(true)

	cache := gridcore.NewCache(func(f func()) {
		app.QueueUpdateDraw(f)
	})
	session := gridcore.NewSession(client, cache)

	editor := &Editor{
		app:         app,
		pages:       tview.NewPages(),
		session:     session,
		cache:       cache,
		client:      client,
		config:      config,
		state:       state,
		vimMode:     config.VimMode,
		paletteMode: PaletteModeDefault,
		editRow:     -1,
		editCol:     -1,
		bases:       bases,
		baseID:      baseID,
		tables:      tables,
	}

	session.Status = func(msg string) {
		editor.SetStatusError(msg)
	}
	session.ReportError = func(err error) {
		CaptureError(err)
	}
	cache.OnChange(func(string) {
		session.Sync()
	})

	editor.grid = NewGridView(session).
		SetVimMode(editor.vimMode).
		SetDoubleClickFunc(func(row, col int) {
			editor.enterEditMode(row, col)
		}).
		SetSelectionChangeFunc(editor.onSelectionChange).
		SetTableNameClickFunc(func() {
			editor.showPicker()
		}).
		SetAddRowFunc(func() {
			editor.addRowAndSelect()
		}).
		SetAddColumnFunc(func() {
			editor.promptAddColumn()
		}).
		SetRenderedFunc(func(lastRenderedIndex int) {
			if w := session.Window(); w != nil {
				w.MaybeFetchMore(lastRenderedIndex)
			}
		}).
		SetWidthChangedFunc(func(columnID string, width int) {
			if err := state.SetColumnWidth(session.TableID, columnID, width); err != nil {
				CaptureError(err)
			}
		})

	editor.picker = NewFuzzySelector(nil, "", editor.selectFromPicker, func() {
		editor.hidePicker()
	})

	editor.setupKeyBindings()
	editor.setupStatusBar()
	editor.setupCommandPalette()

	// Layout without the picker; it is overlaid when visible.
	editor.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(editor.grid, 0, 1, true).
		AddItem(editor.statusBar, 1, 0, false).
		AddItem(editor.commandPalette, 1, 0, false)

	editor.pages.AddPage(pageGrid, editor.layout, true, true)

	pickerOverlay := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(editor.picker, 10, 0, true).
		AddItem(nil, 0, 1, false)
	editor.pages.AddPage(pagePicker, pickerOverlay, true, false)

	editor.openTable(tableID)

	if err := editor.app.SetRoot(editor.pages, true).Run(); err != nil {
		CaptureError(err)
		return err
	}
	return nil
}

// resolveBase picks a base id from the argument, the last-opened record, or
// the first listed base, in that order. "" means no base exists yet.
func resolveBase(bases []baserpc.Base, arg, lastID string) string {
	if arg != "" {
		for _, b := range bases {
			if strings.EqualFold(b.Name, arg) || b.ID == arg {
				return b.ID
			}
		}
	}
	if lastID != "" {
		for _, b := range bases {
			if b.ID == lastID {
				return b.ID
			}
		}
	}
	if len(bases) > 0 {
		return bases[0].ID
	}
	return ""
}

func resolveTable(tables []baserpc.Table, arg, lastID string) string {
	if arg != "" {
		for _, t := range tables {
			if strings.EqualFold(t.Name, arg) || t.ID == arg {
				return t.ID
			}
		}
	}
	if lastID != "" {
		for _, t := range tables {
			if t.ID == lastID {
				return t.ID
			}
		}
	}
	if len(tables) > 0 {
		return tables[0].ID
	}
	return ""
}

// openTable switches the session to a table, restores persisted widths and
// records the choice for next launch.
func (e *Editor) openTable(tableID string) {
	e.session.LoadTable(tableID)
	if widths, err := e.state.ColumnWidths(tableID); err == nil {
		e.session.RestoreWidths(widths)
	} else {
		CaptureError(err)
	}
	e.grid.MarkWidthsDirty()
	e.session.Sync()

	if err := e.state.SetLastOpened(e.baseID, tableID); err != nil {
		CaptureError(err)
	}

	// Touch asynchronously so recency ordering updates without blocking.
	client, baseID := e.client, e.baseID
	go func() {
		if err := client.TouchBase(context.Background(), baseID); err != nil {
			CaptureError(err)
		}
	}()

	if breadcrumbs != nil {
		breadcrumbs.RecordNavigation("table", tableID)
	}
}

// switchBase loads another base's detail and opens a table in it.
func (e *Editor) switchBase(baseID, tableID string) {
	detail, err := e.client.GetBase(context.Background(), baseID)
	if err != nil {
		CaptureError(err)
		e.SetStatusError("could not open base")
		return
	}
	e.baseID = baseID
	e.tables = detail.Tables
	if tableID == "" && len(e.tables) > 0 {
		tableID = e.tables[0].ID
	}
	if tableID == "" {
		table, err := e.client.AddTable(context.Background(), baseID)
		if err != nil {
			CaptureError(err)
			e.SetStatusError("could not create a table")
			return
		}
		e.tables = append(e.tables, *table)
		tableID = table.ID
	}
	e.openTable(tableID)
}

// onSelectionChange runs whenever the grid selection moves. Moving away from
// an open cell editor is a blur: the buffered value commits, exactly as Enter
// would. Only Escape discards.
func (e *Editor) onSelectionChange(row, col int) {
	if e.editing {
		e.exitEditMode(true)
	}
	e.updateStatusWithCellContent()
}

func (e *Editor) addRowAndSelect() {
	id := e.session.AddRow()
	rows := e.session.Rows()
	for i, r := range rows {
		if r.ID == id {
			e.grid.Select(i, 0)
			break
		}
	}
}

// promptAddColumn opens the command palette pre-filled with the add-column
// command so the user only types the type and name.
func (e *Editor) promptAddColumn() {
	e.setPaletteMode(PaletteModeCommand, true)
	e.commandPalette.SetText("add-column ")
}

func (e *Editor) setupStatusBar() {
	e.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWrap(false)

	e.statusBar.SetBackgroundColor(tcell.ColorLightGray)
	e.statusBar.SetTextColor(tcell.ColorBlack)
	e.statusBar.SetText("Ready")
}

func (e *Editor) setupCommandPalette() {
	inputField := tview.NewInputField()
	e.commandPalette = inputField.
		SetLabel("").
		SetFieldBackgroundColor(tcell.ColorBlack).
		SetFieldTextColor(tcell.ColorWhite)

	e.commandPalette.SetBackgroundColor(tcell.ColorBlack)

	// Default palette mode shows keybinding help
	e.setPaletteMode(PaletteModeDefault, false)

	e.commandPalette.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		r := event.Rune()
		mod := event.Modifiers()

		switch {
		// Ctrl+F sends ACK (6) or 'f' depending on terminal
		case (r == 'f' || r == 6) && mod&tcell.ModCtrl != 0:
			e.setPaletteMode(PaletteModeFind, true)
			return nil
		case (r == 'p' || r == 16) && mod&tcell.ModCtrl != 0:
			e.setPaletteMode(PaletteModeCommand, true)
			return nil
		case (r == 'q' || r == 17) && mod&tcell.ModCtrl != 0:
			e.app.Stop()
			return nil
		}

		switch event.Key() {
		case tcell.KeyEnter:
			command := e.commandPalette.GetText()
			mode := e.paletteMode
			switch mode {
			case PaletteModeCommand:
				e.executeCommand(command)
			case PaletteModeFind:
				e.executeFind(command)
			case PaletteModeDelete:
				e.executeDelete()
			}

			// Find stays open so Enter can cycle through matches.
			if mode == PaletteModeFind {
				return nil
			}

			e.setPaletteMode(PaletteModeDefault, false)
			e.app.SetFocus(e.grid)
			return nil
		case tcell.KeyEscape:
			e.setPaletteMode(PaletteModeDefault, false)
			e.app.SetFocus(e.grid)
			return nil
		}
		return event
	})
}

// showPicker rebuilds the picker entries from the cached catalog and overlays
// the selector.
func (e *Editor) showPicker() {
	e.entries = e.buildPickerEntries()
	labels := make([]string, len(e.entries))
	for i, entry := range e.entries {
		labels[i] = entry.label
	}
	e.picker.SetItems(labels, e.session.TableName)

	e.pages.ShowPage(pagePicker)
	e.app.SetFocus(e.picker)
	e.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		screen.SetCursorStyle(tcell.CursorStyleBlinkingBar)
	})
}

func (e *Editor) hidePicker() {
	e.pages.HidePage(pagePicker)
	e.app.SetFocus(e.grid)
	e.app.SetAfterDrawFunc(nil)
}

func (e *Editor) buildPickerEntries() []pickerEntry {
	var entries []pickerEntry
	for _, t := range e.tables {
		entries = append(entries, pickerEntry{label: t.Name, tableID: t.ID})
	}
	for _, b := range e.bases {
		if b.ID == e.baseID {
			continue
		}
		entries = append(entries, pickerEntry{label: "base: " + b.Name, baseID: b.ID})
	}
	entries = append(entries,
		pickerEntry{label: "[New table]", newTable: true},
		pickerEntry{label: "[New base]", newBase: true},
	)
	return entries
}
