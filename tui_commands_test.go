package main

import (
	"testing"

	"tably/internal/baserpc"
	"tably/internal/gridcore"
)

func TestParseAddRowsCount(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected int
		wantErr  bool
	}{
		{
			name:     "simple count",
			args:     []string{"25"},
			expected: 25,
		},
		{
			name:     "clamped to bulk ceiling",
			args:     []string{"2000000"},
			expected: gridcore.BulkAddMax,
		},
		{
			name:    "zero",
			args:    []string{"0"},
			wantErr: true,
		},
		{
			name:    "negative",
			args:    []string{"-5"},
			wantErr: true,
		},
		{
			name:    "not a number",
			args:    []string{"many"},
			wantErr: true,
		},
		{
			name:    "missing argument",
			args:    nil,
			wantErr: true,
		},
		{
			name:    "too many arguments",
			args:    []string{"5", "10"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := parseAddRowsCount(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseAddRowsCount(%v) expected error, got %d", tt.args, count)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAddRowsCount(%v) unexpected error: %v", tt.args, err)
			}
			if count != tt.expected {
				t.Errorf("parseAddRowsCount(%v) = %d, want %d", tt.args, count, tt.expected)
			}
		})
	}
}

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		input    string
		expected baserpc.FieldType
		ok       bool
	}{
		{"text", baserpc.FieldText, true},
		{"TEXT", baserpc.FieldText, true},
		{"long_text", baserpc.FieldLongText, true},
		{"longtext", baserpc.FieldLongText, true},
		{"long-text", baserpc.FieldLongText, true},
		{"number", baserpc.FieldNumber, true},
		{"date", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseFieldType(tt.input)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("parseFieldType(%q) = (%q, %v), want (%q, %v)",
					tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestUntitledColumnName(t *testing.T) {
	columns := []baserpc.Column{
		{ID: "c1", Name: "Name"},
		{ID: "c2", Name: "Column 3"},
	}
	if got := untitledColumnName(columns); got != "Column 4" {
		t.Errorf("untitledColumnName = %q, want %q", got, "Column 4")
	}
	if got := untitledColumnName(nil); got != "Column 1" {
		t.Errorf("untitledColumnName(nil) = %q, want %q", got, "Column 1")
	}
}

func TestPadCellToWidth(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected string
	}{
		{"pads short text", "ok", 5, "ok   "},
		{"exact width truncates", "hello", 5, "hell…"},
		{"truncates with ellipsis", "hello world", 5, "hell…"},
		{"narrow column hard cut", "hi", 2, "hi"},
		{"rune safe", "héllo wörld", 6, "héllo…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := padCellToWidth(tt.text, tt.width); got != tt.expected {
				t.Errorf("padCellToWidth(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.expected)
			}
		})
	}
}

func TestSortDirectionLabel(t *testing.T) {
	tests := []struct {
		fieldType baserpc.FieldType
		direction baserpc.SortDirection
		expected  string
	}{
		{baserpc.FieldText, baserpc.SortAsc, "A→Z"},
		{baserpc.FieldText, baserpc.SortDesc, "Z→A"},
		{baserpc.FieldLongText, baserpc.SortAsc, "A→Z"},
		{baserpc.FieldNumber, baserpc.SortAsc, "1→9"},
		{baserpc.FieldNumber, baserpc.SortDesc, "9→1"},
	}
	for _, tt := range tests {
		if got := sortDirectionLabel(tt.fieldType, tt.direction); got != tt.expected {
			t.Errorf("sortDirectionLabel(%q, %q) = %q, want %q",
				tt.fieldType, tt.direction, got, tt.expected)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("one\ntwo\nthree"); got != "one…" {
		t.Errorf("firstLine = %q, want %q", got, "one…")
	}
	if got := firstLine("single"); got != "single" {
		t.Errorf("firstLine = %q, want %q", got, "single")
	}
	if got := firstLine(""); got != "" {
		t.Errorf("firstLine(empty) = %q", got)
	}
}
