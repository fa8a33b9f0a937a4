package main

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// isPrefixMatch reports whether text starts with search, case-insensitively.
// Prefix matches rank above fuzzy matches in the picker.
func isPrefixMatch(search, text string) bool {
	return strings.HasPrefix(strings.ToLower(text), strings.ToLower(search))
}

// fuzzyMatch matches the characters of search in order within text,
// case-insensitively, returning the matched positions.
func fuzzyMatch(search, text string) (bool, []int) {
	search = strings.ToLower(search)
	text = strings.ToLower(text)

	var positions []int
	searchIdx := 0

	for i, char := range text {
		if searchIdx < len(search) && char == rune(search[searchIdx]) {
			positions = append(positions, i)
			searchIdx++
		}
	}

	return searchIdx == len(search), positions
}

// formatItemWithColor highlights the matched character positions in bold
// dark green using tview color codes.
func formatItemWithColor(item string, positions []int) string {
	if len(positions) == 0 {
		return item
	}

	highlightMap := make(map[int]bool)
	for _, pos := range positions {
		highlightMap[pos] = true
	}

	var result strings.Builder
	for i, r := range []rune(item) {
		if highlightMap[i] {
			result.WriteString("[darkgreen::b]")
			result.WriteRune(r)
			result.WriteString("[-::-]")
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// cleanItems drops empty entries and embedded newlines.
func cleanItems(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(strings.ReplaceAll(item, "\n", ""))
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	return cleaned
}

// FuzzySelector is the base/table picker overlaid at the top of the editor:
// a search field over a dropdown of tables in the current base, other bases,
// and the create entries.
type FuzzySelector struct {
	*tview.Box
	items         []string
	searchText    string
	selectedIndex int
	dropdownList  *tview.List
	maxVisible    int
	inputField    *tview.InputField
	innerFlex     *tview.Flex
	dropdownFlex  *tview.Flex

	// Callbacks
	onSelect func(item string)
	onClose  func()
}

// NewFuzzySelector creates the picker. Items may be replaced later with
// SetItems; the initial selection lands on current when present.
func NewFuzzySelector(items []string, current string, onSelect func(string), onClose func()) *FuzzySelector {
	fs := &FuzzySelector{
		Box:        tview.NewBox(),
		maxVisible: 6,
		onSelect:   onSelect,
		onClose:    onClose,
	}
	fs.SetItems(items, current)

	// Pre-initialize the layout so the input field exists immediately
	filtered, matchPositions, _ := fs.calculateFiltered("")
	fs.buildInnerLayout(filtered, matchPositions)

	return fs
}

// SetItems replaces the picker's entries and resets the search.
func (fs *FuzzySelector) SetItems(items []string, current string) {
	fs.items = cleanItems(items)
	fs.searchText = ""
	fs.selectedIndex = 0
	for i, item := range fs.items {
		if item == current {
			fs.selectedIndex = i
			break
		}
	}
	if fs.inputField != nil {
		fs.inputField.SetText("")
	}
}

// calculateFiltered ranks items against the search text: prefix matches
// first in original order, then the remaining fuzzy matches. Returns the
// ranked items, per-item match positions, and the prefix match count.
func (fs *FuzzySelector) calculateFiltered(search string) ([]string, map[int][]int, int) {
	matchPositions := make(map[int][]int)

	if search == "" {
		for i := range fs.items {
			matchPositions[i] = []int{}
		}
		return fs.items, matchPositions, 0
	}

	var prefix, fuzzy []string
	fuzzyPositions := make([][]int, 0)

	for _, item := range fs.items {
		if isPrefixMatch(search, item) {
			prefix = append(prefix, item)
			continue
		}
		if ok, positions := fuzzyMatch(search, item); ok {
			fuzzy = append(fuzzy, item)
			fuzzyPositions = append(fuzzyPositions, positions)
		}
	}

	filtered := make([]string, 0, len(prefix)+len(fuzzy))
	for _, item := range prefix {
		positions := make([]int, len(search))
		for i := range positions {
			positions[i] = i
		}
		matchPositions[len(filtered)] = positions
		filtered = append(filtered, item)
	}
	for i, item := range fuzzy {
		matchPositions[len(filtered)] = fuzzyPositions[i]
		filtered = append(filtered, item)
	}

	return filtered, matchPositions, len(prefix)
}

// Draw recalculates the ranking every frame; typing only mutates searchText.
func (fs *FuzzySelector) Draw(screen tcell.Screen) {
	debugLog("Drawing fuzzy selector\n")
	fs.Box.DrawForSubclass(screen, fs)

	filtered, matchPositions, _ := fs.calculateFiltered(fs.searchText)

	if fs.innerFlex == nil {
		fs.buildInnerLayout(filtered, matchPositions)
	} else {
		fs.updateDropdownList(filtered, matchPositions)
	}

	if fs.innerFlex != nil {
		x, y, width, height := fs.GetInnerRect()
		fs.innerFlex.SetRect(x, y, width, height)
		fs.innerFlex.Draw(screen)
	}
}

// InputHandler forwards keystrokes to the search field.
func (fs *FuzzySelector) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return fs.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		if fs.inputField != nil {
			if handler := fs.inputField.InputHandler(); handler != nil {
				handler(event, setFocus)
				return
			}
		}
	})
}

// MouseHandler enables hover highlighting and click selection in the dropdown.
func (fs *FuzzySelector) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
	return fs.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		mouseX, mouseY := event.Position()

		if fs.dropdownList != nil {
			listX, listY, listWidth, listHeight := fs.dropdownList.GetRect()

			if mouseX >= listX && mouseX < listX+listWidth &&
				mouseY >= listY && mouseY < listY+listHeight {

				filtered, _, _ := fs.calculateFiltered(fs.searchText)
				if len(filtered) == 0 {
					return false, nil
				}

				itemIndex := mouseY - listY
				if itemIndex >= 0 && itemIndex < len(filtered) {
					switch action {
					case tview.MouseMove:
						fs.dropdownList.SetCurrentItem(itemIndex)
						fs.selectedIndex = itemIndex
						return true, nil

					case tview.MouseLeftClick:
						if fs.onSelect != nil {
							fs.clearSearchText()
							fs.onSelect(filtered[itemIndex])
						}
						return true, nil
					}
				}
			}
		}

		if fs.innerFlex != nil {
			if handler := fs.innerFlex.MouseHandler(); handler != nil {
				consumed, primitive := handler(action, event, setFocus)
				if consumed {
					return true, primitive
				}
			}
		}

		return false, nil
	})
}

// Focus forwards focus to the search field.
func (fs *FuzzySelector) Focus(delegate func(p tview.Primitive)) {
	if fs.inputField != nil {
		delegate(fs.inputField)
	}
}

func (fs *FuzzySelector) HasFocus() bool {
	if fs.inputField != nil {
		return fs.inputField.HasFocus()
	}
	return false
}

// buildInnerLayout builds the internal flex layout with input field and dropdown.
func (fs *FuzzySelector) buildInnerLayout(filtered []string, matchPositions map[int][]int) {
	inputField := fs.createInputField()
	fs.createDropdownListWithData(filtered, matchPositions)

	listHeight := len(filtered)
	if listHeight == 0 {
		listHeight = 1 // Show "No results"
	}
	if listHeight > fs.maxVisible {
		listHeight = fs.maxVisible
	}

	fs.dropdownFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(inputField, 1, 0, true).
		AddItem(fs.dropdownList, listHeight, 0, false)

	fs.innerFlex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(tview.NewBox(), 1, 0, false). // 1-character left padding
		AddItem(fs.dropdownFlex, 0, 1, true)
}

// updateDropdownList refreshes the dropdown without rebuilding the input field.
func (fs *FuzzySelector) updateDropdownList(filtered []string, matchPositions map[int][]int) {
	if fs.dropdownFlex == nil {
		return
	}

	fs.dropdownFlex.RemoveItem(fs.dropdownList)
	fs.createDropdownListWithData(filtered, matchPositions)

	listHeight := len(filtered)
	if listHeight == 0 {
		listHeight = 1
	}
	if listHeight > fs.maxVisible {
		listHeight = fs.maxVisible
	}

	fs.dropdownFlex.AddItem(fs.dropdownList, listHeight, 0, false)
}

func (fs *FuzzySelector) createInputField() *tview.InputField {
	inputField := tview.NewInputField().
		SetLabel("").
		SetText(fs.searchText).
		SetPlaceholder("Search bases and tables...").
		SetFieldWidth(0)

	fs.inputField = inputField

	// The dropdown re-ranks on the next draw
	inputField.SetChangedFunc(func(text string) {
		fs.searchText = text
	})

	inputField.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		debugLog("Picker input capture: %v\n", event.Key())
		filtered, _, _ := fs.calculateFiltered(fs.searchText)

		switch event.Key() {
		case tcell.KeyEscape:
			if fs.onClose != nil {
				fs.onClose()
			}
			return nil
		case tcell.KeyDown, tcell.KeyTab:
			if fs.dropdownList != nil && len(filtered) > 0 {
				fs.selectedIndex++
				fs.dropdownList.SetCurrentItem(fs.selectedIndex)
				return tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone)
			}
			return nil
		case tcell.KeyUp, tcell.KeyBacktab:
			if fs.dropdownList != nil && len(filtered) > 0 {
				fs.selectedIndex--
				fs.dropdownList.SetCurrentItem(fs.selectedIndex)
				return tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone)
			}
			return nil
		case tcell.KeyEnter:
			if fs.dropdownList != nil && len(filtered) > 0 {
				if idx := fs.dropdownList.GetCurrentItem(); idx >= 0 && idx < len(filtered) {
					if fs.onSelect != nil {
						fs.clearSearchText()
						fs.onSelect(filtered[idx])
					}
				}
				return nil
			}
		}
		return event
	})

	return inputField
}

func (fs *FuzzySelector) clearSearchText() {
	fs.searchText = ""
	if fs.inputField != nil {
		fs.inputField.SetText("")
	}
	fs.selectedIndex = 0
}

// createDropdownListWithData populates the dropdown from a pre-calculated ranking.
func (fs *FuzzySelector) createDropdownListWithData(filtered []string, matchPositions map[int][]int) {
	fs.dropdownList = tview.NewList().
		SetWrapAround(true).
		ShowSecondaryText(false)

	if len(filtered) == 0 {
		fs.dropdownList.AddItem("No results", "", rune(0), nil)
	} else {
		for i, item := range filtered {
			displayText := formatItemWithColor(item, matchPositions[i])

			name := item
			fs.dropdownList.AddItem(displayText, "", rune(0), func() {
				if fs.onSelect != nil {
					fs.clearSearchText()
					fs.onSelect(name)
				}
			})
		}
	}

	if fs.selectedIndex >= 0 && fs.selectedIndex < len(filtered) {
		fs.dropdownList.SetCurrentItem(fs.selectedIndex)
	}

	fs.dropdownList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentItem := fs.dropdownList.GetCurrentItem()

		switch event.Key() {
		case tcell.KeyEscape:
			// Return focus to the input field
			return tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone)
		case tcell.KeyUp:
			if currentItem == 0 {
				return tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone)
			}
			return event
		case tcell.KeyBacktab:
			return event
		case tcell.KeyEnter:
			if currentItem >= 0 && currentItem < len(filtered) {
				if fs.onSelect != nil {
					fs.clearSearchText()
					fs.onSelect(filtered[currentItem])
				}
			}
			return nil
		}
		return event
	})
}
