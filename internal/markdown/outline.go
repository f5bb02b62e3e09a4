package markdown

import (
	"strconv"
	"strings"

	"github.com/CageChen/foldertree/internal/tree"
)

// special holds the characters that carry inline meaning in CommonMark
// and GFM text. Escape backslash-escapes them.
const special = "\\`*_[]<>&!~|"

// Escape makes name safe to place after an outline prefix. Inline markup
// characters get a backslash. Leading and trailing blanks and line breaks
// become numeric character references, which goldmark would otherwise
// trim or split on.
func Escape(name string) string {
	lead := len(name) - len(strings.TrimLeft(name, " \t"))
	trail := len(strings.TrimRight(name, " \t"))

	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch == '\n' || ch == '\r':
			sb.WriteString("&#" + strconv.Itoa(int(ch)) + ";")
		case (ch == ' ' || ch == '\t') && (i < lead || i >= trail):
			sb.WriteString("&#" + strconv.Itoa(int(ch)) + ";")
		case strings.IndexByte(special, ch) >= 0:
			sb.WriteByte('\\')
			sb.WriteByte(ch)
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// Unescape reverses Escape. It also accepts any CommonMark backslash
// escape and decimal character reference in hand-written outlines.
func Unescape(s string) string {
	if !strings.ContainsAny(s, "\\&") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' && i+1 < len(s) && isPunct(s[i+1]) {
			sb.WriteByte(s[i+1])
			i++
			continue
		}
		if ch == '&' && strings.HasPrefix(s[i+1:], "#") {
			if end := strings.IndexByte(s[i:], ';'); end > 2 && end <= 9 {
				if code, err := strconv.Atoi(s[i+2 : i+end]); err == nil && code > 0 {
					sb.WriteRune(rune(code))
					i += end
					continue
				}
			}
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

func isPunct(ch byte) bool {
	return ch >= '!' && ch <= '/' || ch >= ':' && ch <= '@' ||
		ch >= '[' && ch <= '`' || ch >= '{' && ch <= '~'
}

// Outline returns c as a Markdown nested list with escaped names. It has
// the shape of tree.Display output and ParseOutline reads it back.
func Outline(c tree.Component) string {
	var sb strings.Builder
	tree.Walk(c, func(n tree.Component, depth int) bool {
		sb.WriteString(strings.Repeat(tree.Unit, depth))
		if _, ok := n.(*tree.Folder); ok {
			sb.WriteString("+ " + folderPrefix + " ")
		} else {
			sb.WriteString("- " + filePrefix + " ")
		}
		sb.WriteString(Escape(n.Name()))
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}

// fence returns a backtick fence longer than any backtick run in body.
func fence(body string) string {
	longest, run := 0, 0
	for i := 0; i < len(body); i++ {
		if body[i] == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

// Page returns the Markdown for the tree HTML view: the outline followed
// by the plain listing in a fenced text block. An empty unit means
// tree.Unit.
func Page(root tree.Component, unit string) string {
	if unit == "" {
		unit = tree.Unit
	}
	var listing strings.Builder
	_ = tree.Fprint(&listing, root, "", unit)

	f := fence(listing.String())
	return Outline(root) + "\n" + f + "text\n" + listing.String() + f + "\n"
}

// RenderTree renders t through Page under a single read of the tree.
func (p *Parser) RenderTree(t *tree.Tree) (string, error) {
	var src string
	t.View(func(root *tree.Folder, unit string) {
		src = Page(root, unit)
	})
	return p.Render([]byte(src))
}
