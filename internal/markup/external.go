package markup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// External converts markup by piping it through a command such as
// rst2html or asciidoctor and keeping the contents of the resulting <body>.
type External struct {
	command []string
	timeout time.Duration
}

// NewExternal creates a converter for command. A zero timeout disables it.
func NewExternal(command []string, timeout time.Duration) *External {
	return &External{command: append([]string(nil), command...), timeout: timeout}
}

// Convert runs the command with text on stdin.
func (e *External) Convert(text string) (string, error) {
	if len(e.command) == 0 {
		return "", errors.New("no converter command configured")
	}
	ctx := context.Background()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// #nosec G204 -- the command comes from the site configuration.
	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", e.command[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", e.command[0], err)
	}
	return ExtractBody(stdout.String())
}

// ExtractBody returns the serialized children of the document's <body>.
// Fragments without a body element are wrapped into one by the parser.
func ExtractBody(document string) (string, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}
	body := findBody(root)
	if body == nil {
		return "", errors.New("converter output has no body")
	}
	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(b.String()) + "\n", nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}
