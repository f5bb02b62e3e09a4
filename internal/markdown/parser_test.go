package markdown

import (
	"errors"
	"strings"
	"testing"

	"github.com/CageChen/foldertree/internal/tree"
)

const sampleOutline = `+ Folder: Root
  + Folder: Documents
    - File: file1.txt
    - File: file2.txt
    - File: file4.txt
  + Folder: Images
    - File: file3.txt
`

func TestParseOutline(t *testing.T) {
	p := NewParser()

	root, err := p.ParseOutline([]byte(sampleOutline))
	if err != nil {
		t.Fatalf("ParseOutline failed: %v", err)
	}
	if got := tree.Render(root, ""); got != sampleOutline {
		t.Errorf("round trip mismatch:\n%s\nwant:\n%s", got, sampleOutline)
	}
}

func TestParseOutline_MixedChildren(t *testing.T) {
	p := NewParser()
	src := "# Backup\n\n+ Folder: p\n  - File: a\n  + Folder: b\n  - File: c\n"

	root, err := p.ParseOutline([]byte(src))
	if err != nil {
		t.Fatalf("ParseOutline failed: %v", err)
	}

	want := []string{"+ Folder: p", "  - File: a", "  + Folder: b", "  - File: c"}
	got := tree.Lines(root, "")
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseOutline_Errors(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name   string
		input  string
		target error
	}{
		{"file at top level", "- File: a.txt\n", tree.ErrNotFolder},
		{"file with children", "+ Folder: r\n  - File: a\n    - File: b\n", tree.ErrNotFolder},
		{"unknown label", "+ Folder: r\n  - Link: a\n", tree.ErrUnknownType},
		{"two roots", "+ Folder: a\n+ Folder: b\n", nil},
		{"no list", "just text\n", nil},
	}

	for _, tt := range tests {
		_, err := p.ParseOutline([]byte(tt.input))
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if tt.target != nil && !errors.Is(err, tt.target) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.target, err)
		}
	}
}

func TestRender_Outline(t *testing.T) {
	p := NewParser()
	root := tree.NewFolder("Root", tree.NewFolder("Images", tree.NewFile("file3.txt")))

	html, err := p.Render([]byte(tree.Render(root, "")))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Count(html, "<ul>") != 3 {
		t.Errorf("expected three nested lists, got %s", html)
	}
	if !strings.Contains(html, "<li>File: file3.txt</li>") {
		t.Errorf("expected file item in HTML, got %s", html)
	}
}

func TestRender(t *testing.T) {
	p := NewParser()

	html, err := p.Render([]byte("# Hello World\n\nThis is a *test*."))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(html, "Hello World</h1>") {
		t.Error("expected H1 tag containing 'Hello World' in HTML")
	}
	if !strings.Contains(html, "<em>test</em>") {
		t.Error("expected italicized test in HTML")
	}
}
