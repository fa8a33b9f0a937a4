package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tably/internal/baserpc"
	"tably/internal/gridcore"
)

// Command execution
func (e *Editor) executeCommand(command string) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "quit", "q":
		e.app.Stop()
	case "help", "h":
		e.SetStatusMessage("Commands: add-row, add-rows N, add-column <type> [name], delete-column, delete-table, rename-base <name>, delete-base, sort, filter, whoami, signout, quit")
	case "add-row":
		e.addRowAndSelect()
	case "add-rows":
		count, err := parseAddRowsCount(args)
		if err != nil {
			e.SetStatusError(err.Error())
			return
		}
		e.session.AddRowsBulk(count)
		e.SetStatusMessage(fmt.Sprintf("Adding %d rows…", count))
	case "add-column":
		if len(args) == 0 {
			e.SetStatusMessage("Usage: add-column <text|long_text|number> [name]")
			return
		}
		fieldType, ok := parseFieldType(args[0])
		if !ok {
			e.SetStatusError("Unknown field type: " + args[0] + " (text, long_text, number)")
			return
		}
		name := strings.Join(args[1:], " ")
		if name == "" {
			name = untitledColumnName(e.session.Columns)
		}
		e.session.AddColumn(name, fieldType)
		e.grid.MarkWidthsDirty()
	case "delete-column":
		_, col := e.grid.Selection()
		if col <= 0 || col >= len(e.session.Columns) {
			e.SetStatusError("Select a column other than the first to delete")
			return
		}
		e.session.DeleteColumn(e.session.Columns[col].ID)
		e.grid.MarkWidthsDirty()
	case "delete-table":
		e.executeDeleteTable()
	case "rename-base":
		name := strings.Join(args, " ")
		if name == "" {
			e.SetStatusMessage("Usage: rename-base <name>")
			return
		}
		e.executeRenameBase(name)
	case "delete-base":
		e.executeDeleteBase()
	case "sort":
		e.openSortPanel()
	case "filter":
		e.openFilterPanel()
	case "whoami":
		e.executeWhoAmI()
	case "signout":
		e.executeSignOut()
	case "log":
		if len(args) > 0 {
			e.SetStatusLog(strings.Join(args, " "))
		} else {
			e.SetStatusMessage("Usage: log <message>")
		}
	case "error":
		if len(args) > 0 {
			e.SetStatusError(strings.Join(args, " "))
		} else {
			e.SetStatusMessage("Usage: error <message>")
		}
	default:
		e.SetStatusError("Unknown command: " + cmd)
	}
}

// parseAddRowsCount validates the add-rows argument, clamping to the bulk
// creation ceiling.
func parseAddRowsCount(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: add-rows <count>")
	}
	count, err := strconv.Atoi(args[0])
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("add-rows: count must be a positive number")
	}
	if count > gridcore.BulkAddMax {
		count = gridcore.BulkAddMax
	}
	return count, nil
}

func parseFieldType(s string) (baserpc.FieldType, bool) {
	switch strings.ToLower(s) {
	case "text":
		return baserpc.FieldText, true
	case "long_text", "longtext", "long-text":
		return baserpc.FieldLongText, true
	case "number":
		return baserpc.FieldNumber, true
	}
	return "", false
}

// untitledColumnName picks the first "Column N" not already taken.
func untitledColumnName(columns []baserpc.Column) string {
	taken := make(map[string]bool, len(columns))
	for _, c := range columns {
		taken[c.Name] = true
	}
	for i := len(columns) + 1; ; i++ {
		name := fmt.Sprintf("Column %d", i)
		if !taken[name] {
			return name
		}
	}
}

// enterDeleteMode arms the delete confirmation for the selected row.
func (e *Editor) enterDeleteMode(row int) {
	rows := e.session.Rows()
	if row < 0 || row >= len(rows) {
		return
	}
	e.setPaletteMode(PaletteModeDelete, false)
	e.SetStatusMessage("Enter to confirm deletion · Esc to cancel")
}

// executeDelete removes the selected row optimistically.
func (e *Editor) executeDelete() {
	row, _ := e.grid.Selection()
	rows := e.session.Rows()
	if row < 0 || row >= len(rows) {
		e.SetStatusError("Invalid row for deletion")
		return
	}
	e.session.DeleteRow(rows[row].ID)
}

// executeFind searches the selected column for the next loaded row containing
// the query, wrapping once past the end.
func (e *Editor) executeFind(query string) {
	row, col := e.grid.Selection()
	if col < 0 || col >= len(e.session.Columns) {
		return
	}
	found := e.session.FindNext(e.session.Columns[col].ID, query, row)
	if found < 0 {
		e.SetStatusMessage("No match found")
		return
	}
	e.grid.Select(found, col)
	e.SetStatusMessage("Match found · Enter for next")
}

// executeDeleteTable removes the open table and lands on another one,
// creating it when the base would otherwise be empty.
func (e *Editor) executeDeleteTable() {
	tableID := e.session.TableID
	if err := e.client.DeleteTable(context.Background(), tableID); err != nil {
		e.SetStatusErrorWithSentry(err)
		return
	}
	if err := e.state.DropTableState(tableID); err != nil {
		CaptureError(err)
	}
	for i, t := range e.tables {
		if t.ID == tableID {
			e.tables = append(e.tables[:i], e.tables[i+1:]...)
			break
		}
	}
	if len(e.tables) > 0 {
		e.openTable(e.tables[0].ID)
		return
	}
	table, err := e.client.AddTable(context.Background(), e.baseID)
	if err != nil {
		e.SetStatusErrorWithSentry(err)
		return
	}
	e.tables = append(e.tables, *table)
	e.openTable(table.ID)
}

func (e *Editor) executeRenameBase(name string) {
	if err := e.client.RenameBase(context.Background(), e.baseID, name); err != nil {
		e.SetStatusErrorWithSentry(err)
		return
	}
	for i := range e.bases {
		if e.bases[i].ID == e.baseID {
			e.bases[i].Name = name
			break
		}
	}
	e.SetStatusMessage("Base renamed to " + name)
}

// executeDeleteBase removes the current base and moves to the next remaining
// one, creating a fresh base when none are left.
func (e *Editor) executeDeleteBase() {
	if err := e.client.DeleteBase(context.Background(), e.baseID); err != nil {
		e.SetStatusErrorWithSentry(err)
		return
	}
	for i, b := range e.bases {
		if b.ID == e.baseID {
			e.bases = append(e.bases[:i], e.bases[i+1:]...)
			break
		}
	}
	if len(e.bases) > 0 {
		e.switchBase(e.bases[0].ID, "")
		return
	}
	base, err := e.client.CreateBase(context.Background())
	if err != nil {
		e.SetStatusErrorWithSentry(err)
		return
	}
	e.bases = append(e.bases, *base)
	e.switchBase(base.ID, "")
}

// executeWhoAmI shows the signed-in identity and refreshes the copy kept in
// the config file.
func (e *Editor) executeWhoAmI() {
	user, err := e.client.WhoAmI(context.Background())
	if err != nil {
		e.SetStatusErrorWithSentry(err)
		return
	}
	e.config.User.Name = user.Name
	e.config.User.Email = user.Email
	if err := SaveConfig(e.config); err != nil {
		CaptureError(err)
	}
	e.SetStatusMessage(fmt.Sprintf("Signed in as %s <%s>", user.Name, user.Email))
}

func (e *Editor) executeSignOut() {
	if err := e.client.SignOut(context.Background()); err != nil {
		e.SetStatusErrorWithSentry(err)
		return
	}
	e.config.Token = ""
	e.config.User.Name = ""
	e.config.User.Email = ""
	if err := SaveConfig(e.config); err != nil {
		CaptureError(err)
	}
	e.app.Stop()
}

// selectFromPicker routes a picker selection: switch table, switch base, or
// create a new one.
func (e *Editor) selectFromPicker(label string) {
	e.hidePicker()
	e.setCursorStyle(0)

	var entry pickerEntry
	found := false
	for _, candidate := range e.entries {
		if candidate.label == label {
			entry = candidate
			found = true
			break
		}
	}
	if !found {
		return
	}

	switch {
	case entry.newTable:
		table, err := e.client.AddTable(context.Background(), e.baseID)
		if err != nil {
			e.SetStatusErrorWithSentry(err)
			return
		}
		e.tables = append(e.tables, *table)
		e.openTable(table.ID)
	case entry.newBase:
		base, err := e.client.CreateBase(context.Background())
		if err != nil {
			e.SetStatusErrorWithSentry(err)
			return
		}
		e.bases = append(e.bases, *base)
		e.switchBase(base.ID, "")
	case entry.tableID != "":
		e.openTable(entry.tableID)
	case entry.baseID != "":
		e.switchBase(entry.baseID, "")
	}
}
