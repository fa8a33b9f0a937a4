package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"tably/internal/baserpc"
	"tably/internal/gridcore"
)

// Panel chrome: title row plus a hint row before the list starts.
const panelListTop = 2

// sortPanel edits the table's multi-key sort order. Every change applies
// optimistically through the session; the panel keeps its own working copy
// so a rollback elsewhere does not yank entries out from under the cursor.
type sortPanel struct {
	*tview.Box

	editor   *Editor
	entries  baserpc.SortConfig
	selected int
	drag     *gridcore.DragReorder
}

func (e *Editor) openSortPanel() {
	p := &sortPanel{
		Box:     tview.NewBox(),
		editor:  e,
		entries: gridcore.CloneSort(e.session.Sort.Effective()),
	}
	p.SetBorder(true).SetTitle(" Sort ")
	e.showPanel(p)
}

func (e *Editor) showPanel(p tview.Primitive) {
	overlay := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 2, 0, false).
			AddItem(p, 14, 0, true).
			AddItem(nil, 0, 1, false), 52, 0, true).
		AddItem(nil, 0, 1, false)
	e.pages.AddPage(pagePanel, overlay, true, true)
	e.app.SetFocus(p)
}

func (e *Editor) closePanel() {
	e.pages.RemovePage(pagePanel)
	e.app.SetFocus(e.grid)
}

func (p *sortPanel) apply() {
	p.editor.session.ApplySort(gridcore.CloneSort(p.entries))
	p.editor.session.Sync()
}

// unusedColumn returns the first column not yet part of the sort.
func (p *sortPanel) unusedColumn() (baserpc.Column, bool) {
	used := map[string]bool{}
	for _, s := range p.entries {
		used[s.ColumnID] = true
	}
	for _, c := range p.editor.session.Columns {
		if !used[c.ID] {
			return c, true
		}
	}
	return baserpc.Column{}, false
}

func (p *sortPanel) clampSelected() {
	if p.selected >= len(p.entries) {
		p.selected = len(p.entries) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

func (p *sortPanel) Draw(screen tcell.Screen) {
	p.Box.DrawForSubclass(screen, p)
	x, y, width, _ := p.GetInnerRect()

	drawText(screen, x, y, width,
		"a add · d remove · space direction · J/K or drag reorder · Esc close",
		tcell.StyleDefault.Foreground(tcell.ColorGray))

	if len(p.entries) == 0 {
		drawText(screen, x, y+panelListTop, width, "(unsorted)",
			tcell.StyleDefault.Foreground(tcell.ColorGray).Italic(true))
		return
	}

	for i, entry := range p.entries {
		style := tcell.StyleDefault
		if i == p.selected {
			style = style.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite)
		}
		name := entry.ColumnID
		var fieldType baserpc.FieldType
		if col, ok := p.editor.session.ColumnByID(entry.ColumnID); ok {
			name = col.Name
			fieldType = col.Type
		}
		label := "then by"
		if i == 0 {
			label = "sort by"
		}
		drawText(screen, x, y+panelListTop+i, width,
			fmt.Sprintf("%s %s %s", label, name,
				sortDirectionLabel(fieldType, entry.Direction)), style)
	}
}

// sortDirectionLabel renders direction in field terms: numbers count, text
// alphabetizes.
func sortDirectionLabel(t baserpc.FieldType, d baserpc.SortDirection) string {
	if t == baserpc.FieldNumber {
		if d == baserpc.SortDesc {
			return "9→1"
		}
		return "1→9"
	}
	if d == baserpc.SortDesc {
		return "Z→A"
	}
	return "A→Z"
}

func (p *sortPanel) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return p.WrapInputHandler(func(event *tcell.EventKey, _ func(p tview.Primitive)) {
		switch {
		case event.Key() == tcell.KeyEscape || event.Key() == tcell.KeyEnter:
			p.editor.closePanel()
		case event.Key() == tcell.KeyUp || (event.Key() == tcell.KeyRune && event.Rune() == 'k'):
			if p.selected > 0 {
				p.selected--
			}
		case event.Key() == tcell.KeyDown || (event.Key() == tcell.KeyRune && event.Rune() == 'j'):
			if p.selected < len(p.entries)-1 {
				p.selected++
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'a':
			if col, ok := p.unusedColumn(); ok {
				p.entries = append(p.entries, baserpc.SortEntry{
					ColumnID:  col.ID,
					Direction: baserpc.SortAsc,
				})
				p.selected = len(p.entries) - 1
				p.apply()
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'd':
			if p.selected < len(p.entries) {
				p.entries = append(p.entries[:p.selected], p.entries[p.selected+1:]...)
				p.clampSelected()
				p.apply()
			}
		case event.Key() == tcell.KeyRune && event.Rune() == ' ':
			if p.selected < len(p.entries) {
				if p.entries[p.selected].Direction == baserpc.SortAsc {
					p.entries[p.selected].Direction = baserpc.SortDesc
				} else {
					p.entries[p.selected].Direction = baserpc.SortAsc
				}
				p.apply()
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'K':
			if p.selected > 0 {
				p.entries = gridcore.Splice(p.entries, p.selected, p.selected-1)
				p.selected--
				p.apply()
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'J':
			if p.selected < len(p.entries)-1 {
				p.entries = gridcore.Splice(p.entries, p.selected, p.selected+1)
				p.selected++
				p.apply()
			}
		}
	})
}

// MouseHandler supports drag-reordering sort entries with the pointer.
func (p *sortPanel) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
	return p.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		mx, my := event.Position()
		if !p.InRect(mx, my) && p.drag == nil {
			return false, nil
		}
		_, y, _, _ := p.GetInnerRect()
		listTop := y + panelListTop

		switch action {
		case tview.MouseLeftDown:
			setFocus(p)
			idx := my - listTop
			if idx >= 0 && idx < len(p.entries) {
				p.selected = idx
				p.drag = gridcore.StartDragReorder(listTop, 1, 1, len(p.entries), idx, my)
				return true, p
			}
			return true, nil
		case tview.MouseMove:
			if p.drag != nil {
				if from, to, moved := p.drag.Update(my); moved {
					p.entries = gridcore.Splice(p.entries, from, to)
					p.selected = to
				}
				return true, p
			}
		case tview.MouseLeftUp:
			if p.drag != nil {
				if p.drag.Changed() {
					p.apply()
				}
				p.drag = nil
				return true, nil
			}
		}
		return false, nil
	})
}

// filterPanel edits the top-level filter items. Conditions are created on the
// first column with its default operator and refined in place; groups loaded
// from elsewhere render as a summary line and can only be removed here.
type filterPanel struct {
	*tview.Box

	editor       *Editor
	tree         *baserpc.Filter
	selected     int
	editingValue bool
	drag         *gridcore.DragReorder
}

func (e *Editor) openFilterPanel() {
	tree := gridcore.CloneFilter(e.session.Filter.Tree())
	if tree == nil {
		tree = &baserpc.Filter{Connector: baserpc.ConnectorAnd}
	}
	p := &filterPanel{
		Box:    tview.NewBox(),
		editor: e,
		tree:   tree,
	}
	p.SetBorder(true).SetTitle(" Filter ")
	e.showPanel(p)
}

func (p *filterPanel) apply() {
	tree := p.tree
	if len(tree.Items) == 0 {
		tree = nil
	}
	p.editor.session.SetFilterTree(gridcore.CloneFilter(tree))
	p.editor.session.Sync()
}

func (p *filterPanel) clampSelected() {
	if p.selected >= len(p.tree.Items) {
		p.selected = len(p.tree.Items) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

func (p *filterPanel) selectedCondition() *baserpc.Condition {
	if p.selected < 0 || p.selected >= len(p.tree.Items) {
		return nil
	}
	return p.tree.Items[p.selected].Condition
}

func (p *filterPanel) Draw(screen tcell.Screen) {
	p.Box.DrawForSubclass(screen, p)
	x, y, width, _ := p.GetInnerRect()

	hint := "a add · d remove · c column · o operator · v value · g and/or · J/K or drag reorder · Esc close"
	if p.editingValue {
		hint = "typing value… Enter to finish"
	}
	drawText(screen, x, y, width, hint, tcell.StyleDefault.Foreground(tcell.ColorGray))

	if len(p.tree.Items) == 0 {
		drawText(screen, x, y+panelListTop, width, "(no filter)",
			tcell.StyleDefault.Foreground(tcell.ColorGray).Italic(true))
		return
	}

	for i, item := range p.tree.Items {
		style := tcell.StyleDefault
		if i == p.selected {
			style = style.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite)
			if p.editingValue {
				style = style.Background(tcell.ColorDarkGreen)
			}
		}
		prefix := "where"
		if i > 0 {
			prefix = string(p.tree.Connector)
		}
		drawText(screen, x, y+panelListTop+i, width,
			fmt.Sprintf("%-5s %s", prefix, p.itemLabel(item)), style)
	}
}

func (p *filterPanel) itemLabel(item baserpc.FilterItem) string {
	if item.Group != nil {
		return fmt.Sprintf("(%d conditions joined by %s)",
			len(item.Group.Conditions), item.Group.Connector)
	}
	c := item.Condition
	name := c.ColumnID
	if col, ok := p.editor.session.ColumnByID(c.ColumnID); ok {
		name = col.Name
	}
	if !gridcore.OperatorNeedsValue(c.Operator) {
		return fmt.Sprintf("%s %s", name, c.Operator)
	}
	return fmt.Sprintf("%s %s %q", name, c.Operator, c.Value)
}

// cycleColumn retargets the selected condition to the next column, resetting
// the operator when the new field type does not support it.
func (p *filterPanel) cycleColumn() {
	c := p.selectedCondition()
	if c == nil {
		return
	}
	columns := p.editor.session.Columns
	if len(columns) == 0 {
		return
	}
	next := 0
	for i, col := range columns {
		if col.ID == c.ColumnID {
			next = (i + 1) % len(columns)
			break
		}
	}
	gridcore.RetargetCondition(c, columns[next])
	p.apply()
}

func (p *filterPanel) cycleOperator() {
	c := p.selectedCondition()
	if c == nil {
		return
	}
	col, ok := p.editor.session.ColumnByID(c.ColumnID)
	if !ok {
		return
	}
	ops := gridcore.OperatorsFor(col.Type)
	next := 0
	for i, op := range ops {
		if op == c.Operator {
			next = (i + 1) % len(ops)
			break
		}
	}
	c.Operator = ops[next]
	if !gridcore.OperatorNeedsValue(c.Operator) {
		c.Value = ""
	}
	p.apply()
}

func (p *filterPanel) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return p.WrapInputHandler(func(event *tcell.EventKey, _ func(p tview.Primitive)) {
		if p.editingValue {
			c := p.selectedCondition()
			switch event.Key() {
			case tcell.KeyEnter, tcell.KeyEscape:
				p.editingValue = false
				p.apply()
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				if c != nil && c.Value != "" {
					r := []rune(c.Value)
					c.Value = string(r[:len(r)-1])
				}
			case tcell.KeyRune:
				if c != nil {
					c.Value += string(event.Rune())
				}
			}
			return
		}

		switch {
		case event.Key() == tcell.KeyEscape || event.Key() == tcell.KeyEnter:
			p.apply()
			p.editor.closePanel()
		case event.Key() == tcell.KeyUp || (event.Key() == tcell.KeyRune && event.Rune() == 'k'):
			if p.selected > 0 {
				p.selected--
			}
		case event.Key() == tcell.KeyDown || (event.Key() == tcell.KeyRune && event.Rune() == 'j'):
			if p.selected < len(p.tree.Items)-1 {
				p.selected++
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'a':
			if len(p.editor.session.Columns) > 0 {
				cond := gridcore.NewCondition(p.editor.session.Columns[0])
				p.tree.Items = append(p.tree.Items, baserpc.FilterItem{Condition: &cond})
				p.selected = len(p.tree.Items) - 1
				p.apply()
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'd':
			if p.selected < len(p.tree.Items) {
				p.tree.Items = append(p.tree.Items[:p.selected], p.tree.Items[p.selected+1:]...)
				p.clampSelected()
				p.apply()
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'c':
			p.cycleColumn()
		case event.Key() == tcell.KeyRune && event.Rune() == 'o':
			p.cycleOperator()
		case event.Key() == tcell.KeyRune && event.Rune() == 'v':
			if c := p.selectedCondition(); c != nil && gridcore.OperatorNeedsValue(c.Operator) {
				p.editingValue = true
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'K':
			if p.selected > 0 {
				p.tree.Items = gridcore.Splice(p.tree.Items, p.selected, p.selected-1)
				p.selected--
				p.apply()
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'J':
			if p.selected < len(p.tree.Items)-1 {
				p.tree.Items = gridcore.Splice(p.tree.Items, p.selected, p.selected+1)
				p.selected++
				p.apply()
			}
		case event.Key() == tcell.KeyRune && event.Rune() == 'g':
			if p.tree.Connector == baserpc.ConnectorAnd {
				p.tree.Connector = baserpc.ConnectorOr
			} else {
				p.tree.Connector = baserpc.ConnectorAnd
			}
			p.apply()
		}
	})
}

// MouseHandler supports drag-reordering filter items with the pointer.
func (p *filterPanel) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
	return p.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		mx, my := event.Position()
		if !p.InRect(mx, my) && p.drag == nil {
			return false, nil
		}
		_, y, _, _ := p.GetInnerRect()
		listTop := y + panelListTop

		switch action {
		case tview.MouseLeftDown:
			setFocus(p)
			idx := my - listTop
			if idx >= 0 && idx < len(p.tree.Items) {
				p.selected = idx
				p.drag = gridcore.StartDragReorder(listTop, 1, 1, len(p.tree.Items), idx, my)
				return true, p
			}
			return true, nil
		case tview.MouseMove:
			if p.drag != nil {
				if from, to, moved := p.drag.Update(my); moved {
					p.tree.Items = gridcore.Splice(p.tree.Items, from, to)
					p.selected = to
				}
				return true, p
			}
		case tview.MouseLeftUp:
			if p.drag != nil {
				if p.drag.Changed() {
					p.apply()
				}
				p.drag = nil
				return true, nil
			}
		}
		return false, nil
	})
}
