package layout

import "testing"

var testText = TextConfig{Ellipsis: "..."}

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain title", "GitHub", "GitHub"},
		{"selected row", "\x1b[1;38;5;212mGitHub\x1b[0m", "GitHub"},
		{"highlighted runes", "\x1b[1mG\x1b[0mit\x1b[1mH\x1b[0mub", "GitHub"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI(tt.input); got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVisibleWidth(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"ascii", "Go Docs", 7},
		{"styled", "\x1b[1mGo Docs\x1b[0m", 7},
		{"accented", "café", 4},
		{"wide", "日本語", 6},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VisibleWidth(tt.input); got != tt.want {
				t.Errorf("VisibleWidth(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFitTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		width int
		want  string
	}{
		{"fits", "GitHub", 10, "GitHub"},
		{"exact", "GitHub", 6, "GitHub"},
		{"cut", "Go Documentation", 10, "Go Docu..."},
		{"wide runes", "日本語のタイトル", 9, "日本語..."},
		{"narrower than ellipsis", "GitHub", 2, "Gi"},
		{"zero width", "GitHub", 0, ""},
		{"empty title", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FitTitle(tt.title, tt.width, testText); got != tt.want {
				t.Errorf("FitTitle(%q, %d) = %q, want %q", tt.title, tt.width, got, tt.want)
			}
		})
	}
}

func TestFitTitle_StyledKeepsVisibleText(t *testing.T) {
	styled := "\x1b[1mGo\x1b[0m Documentation"

	got := FitTitle(styled, 10, testText)

	if StripANSI(got) != "Go Docu..." {
		t.Errorf("visible text = %q, want %q", StripANSI(got), "Go Docu...")
	}
	if VisibleWidth(got) != 10 {
		t.Errorf("width = %d, want 10", VisibleWidth(got))
	}
}

func TestPadTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		width int
		want  string
	}{
		{"pads short", "Go", 5, "Go   "},
		{"pads wide", "日本", 5, "日本 "},
		{"cuts long", "Go Documentation", 10, "Go Docu..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PadTitle(tt.title, tt.width, testText); got != tt.want {
				t.Errorf("PadTitle(%q, %d) = %q, want %q", tt.title, tt.width, got, tt.want)
			}
		})
	}
}

func TestDisplayURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/", "github.com"},
		{"https://go.dev/doc/effective_go", "go.dev/doc/effective_go"},
		{"http://localhost:8080/", "localhost:8080"},
		{"chrome://settings/", "chrome://settings/"},
		{"javascript:void(0)", "javascript:void(0)"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := DisplayURL(tt.url); got != tt.want {
				t.Errorf("DisplayURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestFitURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		width int
		want  string
	}{
		{"fits", "https://go.dev", 20, "https://go.dev"},
		{"cuts middle", "https://example.com/a/very/long/path/to/page.html", 30, "https://exampl.../to/page.html"},
		{"keeps last segment", "github.com/charmbracelet/bubbletea/blob/main/tea.go", 24, "github.com/...ain/tea.go"},
		{"tiny", "https://go.dev", 2, "ht"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitURL(tt.url, tt.width, testText)
			if got != tt.want {
				t.Errorf("FitURL(%q, %d) = %q, want %q", tt.url, tt.width, got, tt.want)
			}
			if VisibleWidth(got) > tt.width {
				t.Errorf("FitURL(%q, %d) is %d cells wide", tt.url, tt.width, VisibleWidth(got))
			}
		})
	}
}
