package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"tably/internal/baserpc"
	"tably/internal/gridcore"
)

const (
	cellPadding = 1
	addColumnW  = 3 // width of the " + " header affordance
)

// Grid chrome rows: table name, header, header separator.
const gridChromeRows = 3

// GridView renders the session's row window as a virtualized grid: a pinned
// first column, horizontally windowed remaining columns, a trailing loading
// sentinel row while the server holds more rows, and add-row/add-column
// affordances. It owns scroll state and mouse gestures (cell selection,
// column drag-resize); keyboard handling lives in the editor's input capture.
type GridView struct {
	*tview.Box

	sess *gridcore.Session
	rows *gridcore.Virtualizer
	cols *gridcore.Virtualizer // scrollable columns only (visual index 1+)

	scrollX int
	scrollY int

	deleteMode bool
	findMode   bool
	vimMode    bool

	// Drag state for column resizing
	resizingColumn   int // visual index, -1 if not resizing
	resizeStartX     int
	resizeStartWidth int

	// Double-click tracking
	lastClickRow int
	lastClickCol int

	// Geometry of the last draw, used by hit testing
	lastBodyHeight int
	lastAvailWidth int

	// Callbacks
	doubleClickFunc     func(row, col int)
	selectionChangeFunc func(row, col int)
	tableNameClickFunc  func()
	addRowFunc          func()
	addColumnFunc       func()
	renderedFunc        func(lastRenderedIndex int)
	widthChangedFunc    func(columnID string, width int)
}

// NewGridView creates the grid over a session. The session may be empty; the
// virtualizers are re-dimensioned on every draw.
func NewGridView(sess *gridcore.Session) *GridView {
	g := &GridView{
		Box:            tview.NewBox(),
		sess:           sess,
		resizingColumn: -1,
		lastClickRow:   -1,
		lastClickCol:   -1,
	}
	g.rows = gridcore.NewVirtualizer(0, func(int) int { return gridcore.RowHeight }, 3)
	g.cols = gridcore.NewVirtualizer(0, g.scrollableColStride, 1)
	g.SetBorder(false)
	return g
}

func (g *GridView) SetDoubleClickFunc(fn func(row, col int)) *GridView {
	g.doubleClickFunc = fn
	return g
}

func (g *GridView) SetSelectionChangeFunc(fn func(row, col int)) *GridView {
	g.selectionChangeFunc = fn
	return g
}

func (g *GridView) SetTableNameClickFunc(fn func()) *GridView {
	g.tableNameClickFunc = fn
	return g
}

func (g *GridView) SetAddRowFunc(fn func()) *GridView {
	g.addRowFunc = fn
	return g
}

func (g *GridView) SetAddColumnFunc(fn func()) *GridView {
	g.addColumnFunc = fn
	return g
}

// SetRenderedFunc registers the pagination hook: it receives the highest row
// index drawn this frame, sentinel included.
func (g *GridView) SetRenderedFunc(fn func(lastRenderedIndex int)) *GridView {
	g.renderedFunc = fn
	return g
}

func (g *GridView) SetWidthChangedFunc(fn func(columnID string, width int)) *GridView {
	g.widthChangedFunc = fn
	return g
}

func (g *GridView) SetDeleteMode(on bool) *GridView {
	g.deleteMode = on
	return g
}

func (g *GridView) SetFindMode(on bool) *GridView {
	g.findMode = on
	return g
}

func (g *GridView) SetVimMode(on bool) *GridView {
	g.vimMode = on
	return g
}

// MarkWidthsDirty invalidates the cached column offsets after a resize or a
// column add/delete.
func (g *GridView) MarkWidthsDirty() {
	g.cols.InvalidateSizes()
}

// colStride is the horizontal footprint of a column: padding, content,
// padding, trailing separator.
func (g *GridView) colStride(visIdx int) int {
	cols := g.sess.Columns
	if visIdx < 0 || visIdx >= len(cols) {
		return 0
	}
	return g.sess.ColumnWidth(cols[visIdx].ID) + 2*cellPadding + 1
}

// scrollableColStride is the size func for the column virtualizer, which
// covers visual indexes 1..n-1.
func (g *GridView) scrollableColStride(i int) int {
	return g.colStride(i + 1)
}

func (g *GridView) pinnedStride() int {
	return g.colStride(0)
}

// Selection returns the selected row and visual column index.
func (g *GridView) Selection() (row, col int) {
	return g.sess.Edit.Selection()
}

// Select moves the selection, scrolling it into view.
func (g *GridView) Select(row, col int) {
	prevRow, prevCol := g.sess.Edit.Selection()
	g.sess.Edit.Select(row, col)
	row, col = g.sess.Edit.Selection()
	g.EnsureVisible(row, col)
	if (row != prevRow || col != prevCol) && g.selectionChangeFunc != nil {
		g.selectionChangeFunc(row, col)
	}
}

// EnsureVisible adjusts scroll so the cell is fully on screen.
func (g *GridView) EnsureVisible(row, col int) {
	if g.lastBodyHeight > 0 {
		if row < g.scrollY {
			g.scrollY = row
		} else if row >= g.scrollY+g.lastBodyHeight {
			g.scrollY = row - g.lastBodyHeight + 1
		}
		if g.scrollY < 0 {
			g.scrollY = 0
		}
	}
	if col >= 1 && g.lastAvailWidth > 0 {
		start := g.cols.Start(col - 1)
		end := start + g.scrollableColStride(col-1)
		if start < g.scrollX {
			g.scrollX = start
		} else if end > g.scrollX+g.lastAvailWidth {
			g.scrollX = end - g.lastAvailWidth
		}
		if g.scrollX < 0 {
			g.scrollX = 0
		}
	}
}

// ScrollRows scrolls the body vertically by delta rows, clamped.
func (g *GridView) ScrollRows(delta int) {
	g.scrollY = g.rows.ClampScroll(g.scrollY+delta, max(1, g.lastBodyHeight))
}

// ScrollCols scrolls the scrollable column region horizontally, clamped.
func (g *GridView) ScrollCols(delta int) {
	g.scrollX = g.cols.ClampScroll(g.scrollX+delta, max(1, g.lastAvailWidth))
}

// PageSizeRows is the number of body rows visible in the last draw.
func (g *GridView) PageSizeRows() int {
	return max(1, g.lastBodyHeight)
}

// Draw renders the grid.
func (g *GridView) Draw(screen tcell.Screen) {
	g.Box.DrawForSubclass(screen, g)
	x, y, width, height := g.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	columns := g.sess.Columns
	loaded := g.sess.Rows()
	virtualCount := g.sess.VirtualRowCount()

	g.rows.SetCount(virtualCount)
	g.cols.SetCount(max(0, len(columns)-1))

	bodyTop := y + gridChromeRows
	bodyHeight := height - gridChromeRows - 1 // one line for the add-row affordance
	if bodyHeight < 0 {
		bodyHeight = 0
	}
	pinnedW := g.pinnedStride()
	availW := width - pinnedW - addColumnW
	if availW < 0 {
		availW = 0
	}
	g.lastBodyHeight = bodyHeight
	g.lastAvailWidth = availW
	g.scrollY = g.rows.ClampScroll(g.scrollY, max(1, bodyHeight))
	g.scrollX = g.cols.ClampScroll(g.scrollX, max(1, availW))

	g.drawNameHeader(screen, x, y, width)

	if len(columns) == 0 {
		if err := g.sess.MetaErr(); err != nil {
			drawText(screen, x+1, y+1, width-2, "could not load table — press r to retry",
				tcell.StyleDefault.Foreground(tcell.ColorRed))
		} else {
			drawText(screen, x+1, y+1, width-2, "Loading…",
				tcell.StyleDefault.Foreground(tcell.ColorGray))
		}
		return
	}

	visible, _, _ := gridcore.PinnedRange(g.cols, g.scrollX, availW)

	g.drawHeaderRow(screen, x, y+1, width, pinnedW, availW, visible)
	g.drawHeaderSeparator(screen, x, y+2, width)

	if err := g.sess.Window().Err(); err != nil && len(loaded) == 0 {
		drawText(screen, x+1, bodyTop, width-2, "could not load rows — press r to retry",
			tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	lastRendered := -1
	for _, item := range g.rows.Range(g.scrollY, bodyHeight) {
		sy := bodyTop + item.Start - g.scrollY
		if sy < bodyTop || sy >= bodyTop+bodyHeight {
			continue // overscan rows are measured but not drawn
		}
		if item.Index > lastRendered {
			lastRendered = item.Index
		}
		if item.Index >= len(loaded) {
			drawText(screen, x+cellPadding+1, sy, width-2, "Loading…",
				tcell.StyleDefault.Foreground(tcell.ColorGray).Italic(true))
			continue
		}
		g.drawDataRow(screen, x, sy, pinnedW, availW, visible, item.Index, loaded[item.Index])
	}

	// Add-row affordance under the last visible body row.
	addRowY := bodyTop + bodyHeight
	if addRowY < y+height {
		drawText(screen, x+cellPadding, addRowY, width-1, "+ New row",
			tcell.StyleDefault.Foreground(tcell.ColorGray))
	}

	if g.renderedFunc != nil && lastRendered >= 0 {
		g.renderedFunc(lastRendered)
	}
}

func (g *GridView) drawNameHeader(screen tcell.Screen, x, y, width int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	name := g.sess.TableName
	if name == "" {
		name = "(no table)"
	}
	header := " " + name + " ▾"

	pos := x
	for _, ch := range header {
		if pos >= x+width {
			break
		}
		screen.SetContent(pos, y, ch, nil, style)
		pos++
	}

	vimText := ""
	if g.vimMode {
		vimText = "vim mode "
	}
	end := x + width - len(vimText)
	for pos < end {
		screen.SetContent(pos, y, ' ', nil, style)
		pos++
	}
	for _, ch := range vimText {
		screen.SetContent(pos, y, ch, nil, style)
		pos++
	}
}

func (g *GridView) drawHeaderRow(screen tcell.Screen, x, y, width, pinnedW, availW int, visible []gridcore.VirtualItem) {
	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkSlateGray)
	columns := g.sess.Columns

	// Blank the full header line first so gaps between windows stay styled.
	for px := x; px < x+width; px++ {
		screen.SetContent(px, y, ' ', nil, headerStyle)
	}

	g.drawHeaderCell(screen, x, y, columns[0], headerStyle)

	sx0 := x + pinnedW
	for _, item := range visible {
		sx := sx0 + item.Start - g.scrollX
		g.drawClippedHeaderCell(screen, sx, y, sx0, sx0+availW, columns[item.Index+1], headerStyle)
	}

	// Add-column affordance pinned to the right edge.
	drawText(screen, x+width-addColumnW, y, addColumnW, " + ",
		headerStyle.Foreground(tcell.ColorLightGreen).Bold(true))
}

func (g *GridView) drawHeaderCell(screen tcell.Screen, sx, y int, col baserpc.Column, style tcell.Style) {
	w := g.sess.ColumnWidth(col.ID)
	icon := col.Icon
	if icon == "" {
		icon = gridcore.FieldIcon(col.Type)
	}
	screen.SetContent(sx, y, []rune(icon)[0], nil, style.Foreground(tcell.ColorLightGray))
	text := padCellToWidth(col.Name, w)
	for i, ch := range text {
		screen.SetContent(sx+cellPadding+i, y, ch, nil, style.Bold(true))
	}
	screen.SetContent(sx+cellPadding+w, y, '│', nil, style.Foreground(tcell.ColorGray))
}

func (g *GridView) drawClippedHeaderCell(screen tcell.Screen, sx, y, clipLo, clipHi int, col baserpc.Column, style tcell.Style) {
	w := g.sess.ColumnWidth(col.ID)
	icon := col.Icon
	if icon == "" {
		icon = gridcore.FieldIcon(col.Type)
	}
	setClipped(screen, sx, y, clipLo, clipHi, []rune(icon)[0], style.Foreground(tcell.ColorLightGray))
	text := padCellToWidth(col.Name, w)
	for i, ch := range text {
		setClipped(screen, sx+cellPadding+i, y, clipLo, clipHi, ch, style.Bold(true))
	}
	setClipped(screen, sx+cellPadding+w, y, clipLo, clipHi, '│', style.Foreground(tcell.ColorGray))
}

func (g *GridView) drawHeaderSeparator(screen tcell.Screen, x, y, width int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for px := x; px < x+width; px++ {
		screen.SetContent(px, y, '━', nil, style)
	}
}

func (g *GridView) drawDataRow(screen tcell.Screen, x, y, pinnedW, availW int, visible []gridcore.VirtualItem, rowIdx int, row baserpc.Row) {
	columns := g.sess.Columns
	selRow, selCol := g.sess.Edit.Selection()

	g.drawCell(screen, x, y, x, x+pinnedW, rowIdx, 0, row, columns[0], rowIdx == selRow, selCol == 0)

	sx0 := x + pinnedW
	for _, item := range visible {
		visIdx := item.Index + 1
		sx := sx0 + item.Start - g.scrollX
		g.drawCell(screen, sx, y, sx0, sx0+availW, rowIdx, visIdx, row, columns[visIdx], rowIdx == selRow, selCol == visIdx)
	}
}

func (g *GridView) drawCell(screen tcell.Screen, sx, y, clipLo, clipHi, rowIdx, visIdx int, row baserpc.Row, col baserpc.Column, rowSelected, colSelected bool) {
	w := g.sess.ColumnWidth(col.ID)

	style := tcell.StyleDefault
	if _, dirty := g.sess.Edit.Draft(row.ID, col.ID); dirty {
		style = style.Background(tcell.ColorDarkGreen)
	}
	if g.findMode && colSelected {
		style = style.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorWhite)
	}
	if rowSelected {
		if g.deleteMode {
			style = style.Background(tcell.ColorRed).Foreground(tcell.ColorWhite)
		} else if colSelected {
			style = style.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite)
		}
	}

	value := g.sess.Edit.DisplayValue(row.ID, col.ID, row.Cell(col.ID))
	value = firstLine(value)
	text := padCellToWidth(value, w)

	setClipped(screen, sx, y, clipLo, clipHi, ' ', style)
	for i, ch := range text {
		setClipped(screen, sx+cellPadding+i, y, clipLo, clipHi, ch, style)
	}
	sepStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	if rowSelected && g.deleteMode {
		sepStyle = style
	}
	setClipped(screen, sx+cellPadding+w, y, clipLo, clipHi, '│', sepStyle)
}

// CellScreenRect returns the screen position and content width of a cell,
// for positioning the edit overlay. ok is false when the cell is off screen.
func (g *GridView) CellScreenRect(row, col int) (sx, sy, w int, ok bool) {
	x, y, width, _ := g.GetInnerRect()
	if col < 0 || col >= len(g.sess.Columns) || g.lastBodyHeight == 0 {
		return 0, 0, 0, false
	}
	sy = y + gridChromeRows + row - g.scrollY
	if sy < y+gridChromeRows || sy >= y+gridChromeRows+g.lastBodyHeight {
		return 0, 0, 0, false
	}
	w = g.sess.ColumnWidth(g.sess.Columns[col].ID)
	if col == 0 {
		return x + cellPadding, sy, w, true
	}
	sx = x + g.pinnedStride() + g.cols.Start(col-1) - g.scrollX + cellPadding
	if sx < x+g.pinnedStride() || sx+w > x+width {
		return 0, 0, 0, false
	}
	return sx, sy, w, true
}

// CellAtPosition maps screen coordinates to (row, visual column), or (-1,-1).
func (g *GridView) CellAtPosition(screenX, screenY int) (row, col int) {
	x, y, width, _ := g.GetInnerRect()
	bodyTop := y + gridChromeRows

	if screenY < bodyTop || screenY >= bodyTop+g.lastBodyHeight {
		return -1, -1
	}
	row = g.scrollY + screenY - bodyTop
	if row >= len(g.sess.Rows()) {
		return -1, -1
	}

	col = g.columnAtX(screenX, x, width)
	if col < 0 {
		return -1, -1
	}
	return row, col
}

// columnAtX maps a screen x to a visual column index, or -1.
func (g *GridView) columnAtX(screenX, x, width int) int {
	pinnedW := g.pinnedStride()
	if screenX < x {
		return -1
	}
	if screenX < x+pinnedW {
		return 0
	}
	if screenX >= x+width-addColumnW {
		return -1
	}
	rel := screenX - (x + pinnedW) + g.scrollX
	for i := 0; i < g.cols.Count(); i++ {
		start := g.cols.Start(i)
		if rel >= start && rel < start+g.scrollableColStride(i) {
			return i + 1
		}
	}
	return -1
}

// SeparatorAtPosition returns the visual column whose right separator is at
// the position (±1 tolerance), or -1. Used to start a drag resize.
func (g *GridView) SeparatorAtPosition(screenX, screenY int) int {
	x, y, width, _ := g.GetInnerRect()
	relY := screenY - y
	if relY != 1 && relY < gridChromeRows { // header row or body only
		return -1
	}

	pinnedW := g.pinnedStride()
	sepX := x + pinnedW - 1
	if screenX >= sepX-1 && screenX <= sepX+1 {
		return 0
	}
	if screenX >= x+width-addColumnW {
		return -1
	}
	rel := screenX - (x + pinnedW) + g.scrollX
	for i := 0; i < g.cols.Count(); i++ {
		end := g.cols.Start(i) + g.scrollableColStride(i) - 1
		if rel >= end-1 && rel <= end+1 {
			return i + 1
		}
	}
	return -1
}

// MouseHandler handles selection, drag resize, affordance clicks and scroll.
func (g *GridView) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
	return g.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
		mx, my := event.Position()
		if !g.InRect(mx, my) && g.resizingColumn < 0 {
			return false, nil
		}
		x, y, width, height := g.GetInnerRect()

		if breadcrumbs != nil && action != tview.MouseMove {
			breadcrumbs.RecordMouse(mouseActionString(action))
		}

		switch action {
		case tview.MouseLeftDown:
			setFocus(g)
			if col := g.SeparatorAtPosition(mx, my); col >= 0 {
				g.resizingColumn = col
				g.resizeStartX = mx
				g.resizeStartWidth = g.sess.ColumnWidth(g.sess.Columns[col].ID)
				return true, g
			}
			if row, col := g.CellAtPosition(mx, my); row >= 0 {
				g.Select(row, col)
			}
			return true, nil

		case tview.MouseMove:
			if g.resizingColumn >= 0 {
				colID := g.sess.Columns[g.resizingColumn].ID
				w := gridcore.ClampColumnWidth(g.resizeStartWidth + mx - g.resizeStartX)
				if w != g.sess.ColumnWidth(colID) {
					g.sess.SetColumnWidth(colID, w)
					g.MarkWidthsDirty()
					if g.widthChangedFunc != nil {
						g.widthChangedFunc(colID, w)
					}
				}
				return true, g
			}

		case tview.MouseLeftUp:
			if g.resizingColumn >= 0 {
				g.resizingColumn = -1
				return true, nil
			}

		case tview.MouseLeftClick:
			relY := my - y
			if relY == 0 && g.tableNameClickFunc != nil {
				g.tableNameClickFunc()
				return true, nil
			}
			if relY == 1 && mx >= x+width-addColumnW && g.addColumnFunc != nil {
				g.addColumnFunc()
				return true, nil
			}
			if relY == gridChromeRows+g.lastBodyHeight && relY < height && g.addRowFunc != nil {
				g.addRowFunc()
				return true, nil
			}
			row, col := g.CellAtPosition(mx, my)
			g.lastClickRow = row
			g.lastClickCol = col
			return true, nil

		case tview.MouseLeftDoubleClick:
			if g.doubleClickFunc != nil {
				row, col := g.CellAtPosition(mx, my)
				if row >= 0 && row == g.lastClickRow && col == g.lastClickCol {
					g.doubleClickFunc(row, col)
					g.lastClickRow = -1
					g.lastClickCol = -1
					return true, nil
				}
			}

		case tview.MouseScrollUp:
			g.ScrollRows(-3)
			return true, nil
		case tview.MouseScrollDown:
			g.ScrollRows(3)
			return true, nil
		case tview.MouseScrollLeft:
			g.ScrollCols(-4)
			return true, nil
		case tview.MouseScrollRight:
			g.ScrollCols(4)
			return true, nil
		}

		return false, nil
	})
}

func setClipped(screen tcell.Screen, px, py, lo, hi int, ch rune, style tcell.Style) {
	if px >= lo && px < hi {
		screen.SetContent(px, py, ch, nil, style)
	}
}

func drawText(screen tcell.Screen, x, y, maxW int, text string, style tcell.Style) {
	pos := x
	for _, ch := range text {
		if pos >= x+maxW {
			return
		}
		screen.SetContent(pos, y, ch, nil, style)
		pos++
	}
}

// firstLine truncates multi-line values for in-grid display; the full value
// is visible in the edit overlay and the status bar.
func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i] + "…"
		}
	}
	return s
}

// padCellToWidth pads text to a specific width, truncating if too long
func padCellToWidth(text string, width int) string {
	runes := []rune(text)
	if len(runes) >= width {
		if width >= 3 {
			return string(runes[:width-1]) + "…"
		}
		return string(runes[:width])
	}
	out := make([]rune, width)
	copy(out, runes)
	for i := len(runes); i < width; i++ {
		out[i] = ' '
	}
	return string(out)
}
