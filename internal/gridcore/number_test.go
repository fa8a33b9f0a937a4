package gridcore

import "testing"

func TestValidNumberDraft(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty in-progress draft", "", true},
		{"bare minus in-progress", "-", true},
		{"bare decimal point", ".", true},
		{"integer", "42", true},
		{"negative integer", "-42", true},
		{"decimal", "12.5", true},
		{"leading decimal point", ".5", true},
		{"trailing decimal point", "5.", true},
		{"eight digits of precision", "12.345678", true},
		{"nine digits of precision", "12.3456789", false},
		{"two decimal points", "1.2.3", false},
		{"letters", "12a", false},
		{"interior minus", "1-2", false},
		{"double minus", "--1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidNumberDraft(tt.input); got != tt.want {
				t.Errorf("ValidNumberDraft(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"bare minus collapses", "-", ""},
		{"bare decimal collapses", ".", ""},
		{"bare signed decimal collapses", "-.", ""},
		{"integer unchanged", "42", "42"},
		{"leading decimal gains zero", ".5", "0.5"},
		{"negative leading decimal gains zero", "-.5", "-0.5"},
		{"trailing decimal dropped", "5.", "5"},
		{"decimal preserved", "12.34", "12.34"},
		{"surrounding whitespace trimmed", "  7 ", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeNumber(tt.input); got != tt.want {
				t.Errorf("NormalizeNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
