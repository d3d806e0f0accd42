package script

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/grain/internal/fragments"
	"git.home.luguber.info/inful/grain/internal/templates/tplerrors"
)

const (
	exprOpen     = "${"
	tagOpen      = "<%"
	tagClose     = "%>"
	escTagOpen   = "&lt;%"
	escTagClose  = "%&gt;"
	commentOpen  = "--"
	commentClose = "--"
	quotEntity   = "&quot;"
)

var literalEscaper = strings.NewReplacer("${", "$${", "%{", "%%{")

// Translate rewrites text into HCL template source.
//
// Supported constructs:
//
//	${expr}              interpolation, passed through
//	<%= expr %>          interpolation
//	<% if cond %> <% else %> <% endif %>
//	<% for x in xs %> <% endfor %>
//	<%-- comment --%>    dropped
//	\${                 literal "${"
//	\<% ... %>          literal tag, copied verbatim
//
// Fragment placeholders are replaced by the fragments' HTML, in order, as
// literal text. With fromMarkup set, the HTML-escaped forms "&lt;%" and
// "%&gt;" are accepted as tag delimiters, entities inside expressions are
// decoded, "&quot;" delimits strings while matching braces, and the
// sentinels left by fragments.ProtectEscapes act as the backslash escapes.
//
// Expressions are HCL: a dash is valid inside identifiers, so ${a-b} names
// the variable "a-b". Write ${a - b} to subtract.
func Translate(text string, frags []fragments.Fragment, fromMarkup bool) (string, error) {
	t := &translator{src: text, frags: frags, markup: fromMarkup}
	if err := t.run(); err != nil {
		return "", err
	}
	return t.out.String(), nil
}

type block struct {
	keyword string
	pos     int
	sawElse bool
}

type translator struct {
	src    string
	frags  []fragments.Fragment
	next   int
	markup bool
	out    strings.Builder
	lit    strings.Builder
	blocks []block
}

func (t *translator) run() error {
	s := t.src
	for i := 0; i < len(s); {
		rest := s[i:]
		var (
			n   int
			err error
		)
		switch {
		case strings.HasPrefix(rest, `\`+exprOpen):
			t.lit.WriteString(exprOpen)
			n = i + 1 + len(exprOpen)
		case strings.HasPrefix(rest, `\`+tagOpen):
			n = t.literalTag(i+1, len(tagOpen))
		case t.markup && strings.HasPrefix(rest, `\`+escTagOpen):
			n = t.literalTag(i+1, len(escTagOpen))
		case t.markup && strings.HasPrefix(rest, fragments.EscapedExpr):
			t.lit.WriteString(exprOpen)
			n = i + len(fragments.EscapedExpr)
		case t.markup && strings.HasPrefix(rest, fragments.EscapedTag):
			t.lit.WriteString(escTagOpen)
			n = t.literalRest(i + len(fragments.EscapedTag))
		case strings.HasPrefix(rest, exprOpen):
			n, err = t.interpolation(i)
		case strings.HasPrefix(rest, tagOpen):
			n, err = t.tag(i, len(tagOpen))
		case t.markup && strings.HasPrefix(rest, escTagOpen):
			n, err = t.tag(i, len(escTagOpen))
		case strings.HasPrefix(rest, tagClose):
			err = t.errorf(i, "unexpected %%> without opening <%%")
		default:
			if m := fragments.MatchAt(rest); m > 0 && t.next < len(t.frags) {
				t.lit.WriteString(t.frags[t.next].HTML)
				t.next++
				n = i + m
			} else {
				t.lit.WriteByte(s[i])
				n = i + 1
			}
		}
		if err != nil {
			return err
		}
		i = n
	}

	if len(t.blocks) > 0 {
		open := t.blocks[len(t.blocks)-1]
		return t.errorf(open.pos, "<%% %s %%> is never closed", open.keyword)
	}
	for ; t.next < len(t.frags); t.next++ {
		t.lit.WriteString(t.frags[t.next].HTML)
	}
	t.flush(0)
	return nil
}

// interpolation handles ${...} starting at pos and returns the index after it.
func (t *translator) interpolation(pos int) (int, error) {
	start := pos + len(exprOpen)
	end, ok := matchBrace(t.src, start, t.markup)
	if !ok {
		return 0, t.errorf(pos, "unterminated ${ expression")
	}
	if err := t.emitExpr(pos, t.src[start:end]); err != nil {
		return 0, err
	}
	return end + 1, nil
}

// tag handles <% ... %> (or its escaped form) starting at pos.
func (t *translator) tag(pos, openLen int) (int, error) {
	start := pos + openLen

	if strings.HasPrefix(t.src[start:], commentOpen) {
		end, closeLen := t.findClose(start+len(commentOpen), commentClose)
		if end < 0 {
			return 0, t.errorf(pos, "unterminated <%%-- comment")
		}
		return end + closeLen, nil
	}

	end, closeLen := t.findClose(start, "")
	if end < 0 {
		return 0, t.errorf(pos, "unterminated <%% tag")
	}
	inner := t.src[start:end]
	if expr, isExpr := strings.CutPrefix(inner, "="); isExpr {
		if err := t.emitExpr(pos, expr); err != nil {
			return 0, err
		}
		return end + closeLen, nil
	}
	if t.markup {
		inner = html.UnescapeString(inner)
	}
	if err := t.directive(pos, inner); err != nil {
		return 0, err
	}
	return end + closeLen, nil
}

// literalTag copies an escaped tag starting at pos through its closing
// delimiter as literal text. Without a closing delimiter only the opener
// is copied.
func (t *translator) literalTag(pos, openLen int) int {
	end, closeLen := t.findClose(pos+openLen, "")
	if end < 0 {
		t.lit.WriteString(t.src[pos : pos+openLen])
		return pos + openLen
	}
	t.lit.WriteString(t.src[pos : end+closeLen])
	return end + closeLen
}

// literalRest copies text from pos through the next closing delimiter
// verbatim; without one nothing is consumed.
func (t *translator) literalRest(pos int) int {
	end, closeLen := t.findClose(pos, "")
	if end < 0 {
		return pos
	}
	t.lit.WriteString(t.src[pos : end+closeLen])
	return end + closeLen
}

// findClose locates prefix+"%>" (or its escaped form) at or after from.
func (t *translator) findClose(from int, prefix string) (idx int, length int) {
	s := t.src[from:]
	idx, length = -1, 0
	if i := strings.Index(s, prefix+tagClose); i >= 0 {
		idx, length = i, len(prefix+tagClose)
	}
	if t.markup {
		if i := strings.Index(s, prefix+escTagClose); i >= 0 && (idx < 0 || i < idx) {
			idx, length = i, len(prefix+escTagClose)
		}
	}
	if idx < 0 {
		return -1, 0
	}
	return from + idx, length
}

func (t *translator) emitExpr(pos int, expr string) error {
	if t.markup {
		expr = html.UnescapeString(expr)
	}
	if strings.TrimSpace(expr) == "" {
		return t.errorf(pos, "empty expression")
	}
	t.flush('$')
	t.out.WriteString("${")
	t.out.WriteString(expr)
	t.out.WriteString("}")
	return nil
}

func (t *translator) directive(pos int, inner string) error {
	body := strings.TrimSpace(inner)
	keyword, args := body, ""
	if i := strings.IndexAny(body, " \t\r\n"); i >= 0 {
		keyword, args = body[:i], strings.TrimSpace(body[i:])
	}

	switch keyword {
	case "if":
		if args == "" {
			return t.errorf(pos, "<%% if %%> requires a condition")
		}
		t.blocks = append(t.blocks, block{keyword: "if", pos: pos})
		t.emitDirective("if " + args)
	case "else":
		if args != "" {
			return t.errorf(pos, "<%% else %%> takes no condition")
		}
		top := t.top()
		if top == nil || top.keyword != "if" {
			return t.errorf(pos, "<%% else %%> outside <%% if %%>")
		}
		if top.sawElse {
			return t.errorf(pos, "duplicate <%% else %%>")
		}
		top.sawElse = true
		t.emitDirective("else")
	case "endif", "endfor":
		opener := strings.TrimPrefix(keyword, "end")
		top := t.top()
		if top == nil || top.keyword != opener {
			return t.errorf(pos, "<%% %s %%> without matching <%% %s %%>", keyword, opener)
		}
		t.blocks = t.blocks[:len(t.blocks)-1]
		t.emitDirective(keyword)
	case "for":
		if !strings.Contains(" "+args+" ", " in ") {
			return t.errorf(pos, "<%% for %%> must have the form \"for x in collection\"")
		}
		t.blocks = append(t.blocks, block{keyword: "for", pos: pos})
		t.emitDirective("for " + args)
	case "":
		return t.errorf(pos, "empty <%% %%> tag")
	default:
		return t.errorf(pos, "unknown directive %q", keyword)
	}
	return nil
}

func (t *translator) emitDirective(body string) {
	t.flush('%')
	t.out.WriteString("%{ ")
	t.out.WriteString(body)
	t.out.WriteString(" }")
}

func (t *translator) top() *block {
	if len(t.blocks) == 0 {
		return nil
	}
	return &t.blocks[len(t.blocks)-1]
}

// flush writes pending literal text. A literal ending in the same sigil as
// the construct that follows would read as an escape, so that final
// character is emitted as a quoted interpolation instead.
func (t *translator) flush(next byte) {
	lit := t.lit.String()
	t.lit.Reset()
	var tail string
	if next != 0 && strings.HasSuffix(lit, string(next)) {
		lit = lit[:len(lit)-1]
		tail = `${"` + string(next) + `"}`
	}
	t.out.WriteString(literalEscaper.Replace(lit))
	t.out.WriteString(tail)
}

func (t *translator) errorf(pos int, format string, args ...any) error {
	return &tplerrors.TranslationError{
		Line: 1 + strings.Count(t.src[:pos], "\n"),
		Msg:  fmt.Sprintf(format, args...),
	}
}

// matchBrace returns the index of the '}' closing an expression that starts
// at start, honouring nested braces and double-quoted strings. With
// escaped set, "&quot;" also delimits strings.
func matchBrace(s string, start int, escaped bool) (int, bool) {
	depth := 1
	for j := start; j < len(s); j++ {
		if escaped && strings.HasPrefix(s[j:], quotEntity) {
			k := strings.Index(s[j+len(quotEntity):], quotEntity)
			if k < 0 {
				return 0, false
			}
			j += 2*len(quotEntity) + k - 1
			continue
		}
		switch s[j] {
		case '"':
			k := skipString(s, j)
			if k < 0 {
				return 0, false
			}
			j = k
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return 0, false
}

func skipString(s string, open int) int {
	for k := open + 1; k < len(s); k++ {
		switch s[k] {
		case '\\':
			k++
		case '"':
			return k
		}
	}
	return -1
}
