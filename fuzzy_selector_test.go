package main

import (
	"testing"
)

func TestPrefixMatchPriority(t *testing.T) {
	items := []string{"orders", "test_users", "users", "user_profiles", "my_users"}

	fs := NewFuzzySelector(items, "", nil, nil)

	tests := []struct {
		search   string
		expected []string
	}{
		{
			search:   "user",
			expected: []string{"users", "user_profiles", "test_users", "my_users"}, // prefix matches first, then fuzzy
		},
		{
			search:   "test",
			expected: []string{"test_users"}, // only prefix match
		},
		{
			search:   "usr",
			expected: []string{"test_users", "users", "user_profiles", "my_users"}, // all fuzzy matches in original order
		},
		{
			search:   "ord",
			expected: []string{"orders"}, // prefix match
		},
		{
			search:   "",
			expected: []string{"orders", "test_users", "users", "user_profiles", "my_users"}, // everything
		},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			filtered, _, _ := fs.calculateFiltered(tt.search)

			if len(filtered) != len(tt.expected) {
				t.Errorf("search %q: expected %d results, got %d", tt.search, len(tt.expected), len(filtered))
				t.Errorf("expected: %v", tt.expected)
				t.Errorf("got: %v", filtered)
				return
			}

			for i, expected := range tt.expected {
				if filtered[i] != expected {
					t.Errorf("search %q: at position %d, expected %q, got %q", tt.search, i, expected, filtered[i])
				}
			}
		})
	}
}

func TestPrefixMatchCount(t *testing.T) {
	fs := NewFuzzySelector([]string{"users", "user_profiles", "test_users"}, "", nil, nil)

	_, _, prefixCount := fs.calculateFiltered("user")
	if prefixCount != 2 {
		t.Errorf("expected 2 prefix matches, got %d", prefixCount)
	}

	_, _, prefixCount = fs.calculateFiltered("")
	if prefixCount != 0 {
		t.Errorf("empty search: expected 0 prefix matches, got %d", prefixCount)
	}
}

func TestSetItemsRebuildsCatalog(t *testing.T) {
	fs := NewFuzzySelector([]string{"Tasks"}, "", nil, nil)

	fs.SetItems([]string{"Tasks", "Roadmap", "base: Ops"}, "Roadmap")

	filtered, _, _ := fs.calculateFiltered("")
	if len(filtered) != 3 {
		t.Fatalf("items after rebuild = %d, want 3", len(filtered))
	}
	if fs.selectedIndex != 1 {
		t.Errorf("selectedIndex = %d, want 1 (the current table)", fs.selectedIndex)
	}
	if fs.searchText != "" {
		t.Errorf("searchText = %q, want reset", fs.searchText)
	}

	// A current entry no longer in the catalog falls back to the top.
	fs.SetItems([]string{"Projects"}, "Roadmap")
	if fs.selectedIndex != 0 {
		t.Errorf("selectedIndex for missing current = %d, want 0", fs.selectedIndex)
	}

	// Blank and newline-bearing entries are cleaned on the way in.
	fs.SetItems([]string{" Alpha ", "", "Beta\nGamma"}, "")
	filtered, _, _ = fs.calculateFiltered("")
	want := []string{"Alpha", "BetaGamma"}
	if len(filtered) != len(want) {
		t.Fatalf("cleaned items = %v, want %v", filtered, want)
	}
	for i := range want {
		if filtered[i] != want[i] {
			t.Errorf("cleaned item %d = %q, want %q", i, filtered[i], want[i])
		}
	}
}

func TestIsPrefixMatch(t *testing.T) {
	tests := []struct {
		search   string
		text     string
		expected bool
	}{
		{"user", "users", true},
		{"user", "user_profiles", true},
		{"user", "test_users", false},
		{"test", "test_users", true},
		{"usr", "users", false},
		{"", "users", true},      // empty string is prefix of everything
		{"USERS", "users", true}, // case insensitive
		{"users", "USERS", true}, // case insensitive
	}

	for _, tt := range tests {
		t.Run(tt.search+":"+tt.text, func(t *testing.T) {
			result := isPrefixMatch(tt.search, tt.text)
			if result != tt.expected {
				t.Errorf("isPrefixMatch(%q, %q) = %v, expected %v", tt.search, tt.text, result, tt.expected)
			}
		})
	}
}
