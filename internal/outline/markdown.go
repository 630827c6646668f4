package outline

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// Option configures Parse.
type Option func(*config)

type config struct {
	ignored map[string]struct{}
}

// WithIgnoredSections suppresses headings with the given titles (case-insensitive)
// together with everything up to the next heading of equal or shallower depth.
func WithIgnoredSections(titles ...string) Option {
	return func(c *config) {
		if c.ignored == nil {
			c.ignored = make(map[string]struct{}, len(titles))
		}
		for _, t := range titles {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				c.ignored[t] = struct{}{}
			}
		}
	}
}

func (c *config) ignores(title string) bool {
	_, ok := c.ignored[strings.ToLower(title)]
	return ok
}

// Parse reads a Markdown catalog document and returns its outline nodes in
// document order. Only depth 2 and 3 headings are emitted. Parse never fails;
// markup it cannot interpret is dropped.
func Parse(src []byte, opts ...Option) []Node {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	doc := markdown.Parser().Parse(text.NewReader(src))

	var nodes []Node
	skipDepth := 0 // level of the ignored heading we are inside, 0 when none
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			if skipDepth > 0 && h.Level <= skipDepth {
				skipDepth = 0
			}
			if skipDepth > 0 {
				continue
			}
			title := strings.TrimSpace(inlineText(h, src))
			if cfg.ignores(title) {
				skipDepth = h.Level
				continue
			}
			if h.Level == 2 || h.Level == 3 {
				nodes = append(nodes, Heading{Depth: h.Level, Text: title})
			}
			continue
		}
		if skipDepth > 0 {
			continue
		}

		switch n := n.(type) {
		case *ast.Paragraph:
			if em := firstEmphasis(n); em != nil {
				if s := strings.TrimSpace(inlineText(em, src)); s != "" {
					nodes = append(nodes, Description{Emphasis: s})
				}
			}
		case *ast.List:
			nodes = append(nodes, readList(n, src))
		}
	}
	return nodes
}

func readList(list *ast.List, src []byte) AppList {
	var out AppList
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		block := li.FirstChild()
		switch block.(type) {
		case *ast.TextBlock, *ast.Paragraph:
			out.Items = append(out.Items, readItem(block, src))
		default:
			out.Items = append(out.Items, ListItem{})
		}
	}
	return out
}

// itemReader accumulates the inline children of one list item.
type itemReader struct {
	src   []byte
	mark  *Mark
	icons []Icon
	parts []Part
	// struckLead is set when struck text precedes the title link.
	struckLead bool
}

func readItem(block ast.Node, src []byte) ListItem {
	r := &itemReader{src: src}
	for c := block.FirstChild(); c != nil; c = c.NextSibling() {
		r.inline(c, false)
	}
	if r.mark != nil {
		r.mark.Icons = r.icons
	}
	return ListItem{Mark: r.mark, Parts: r.parts}
}

func (r *itemReader) inline(n ast.Node, struck bool) {
	switch n := n.(type) {
	case *extast.Strikethrough:
		if r.mark == nil {
			r.struckLead = true
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.inline(c, true)
		}

	case *ast.Link:
		if img := firstImage(n); img != nil {
			r.icon(img, string(n.Destination))
			return
		}
		label := strings.TrimSpace(inlineText(n, r.src))
		r.parts = append(r.parts, Part{Kind: PartLink, Text: label})
		r.title(label, string(n.Destination), struck)

	case *ast.AutoLink:
		label := string(n.Label(r.src))
		r.parts = append(r.parts, Part{Kind: PartLink, Text: label})
		r.title(label, string(n.URL(r.src)), struck)

	case *ast.Image:
		r.icon(n, "")

	default:
		r.parts = append(r.parts, Part{Kind: PartText, Text: inlineText(n, r.src)})
	}
}

// title records the first link of the item as its mark.
func (r *itemReader) title(label, url string, struck bool) {
	if r.mark != nil {
		return
	}
	r.mark = &Mark{
		Title:   label,
		URL:     strings.TrimSpace(url),
		Deleted: struck || r.struckLead,
	}
}

func (r *itemReader) icon(img *ast.Image, href string) {
	alt := inlineText(img, r.src)
	r.parts = append(r.parts, Part{Kind: PartImage, Text: alt})
	typ, ok := classifyIcon(alt)
	if !ok {
		return
	}
	r.icons = append(r.icons, Icon{Type: typ, URL: strings.TrimSpace(href)})
}

// classifyIcon maps badge alt text such as "Open-Source Software" or
// "App Store" to an IconType.
func classifyIcon(alt string) (IconType, bool) {
	a := strings.ToLower(strings.TrimSpace(alt))
	switch {
	case a == "oss" || strings.Contains(a, "open-source") || strings.Contains(a, "open source"):
		return IconOSS, true
	case strings.Contains(a, "freeware"):
		return IconFreeware, true
	case strings.Contains(a, "app store") || strings.Contains(a, "app-store") || strings.Contains(a, "appstore"):
		return IconAppStore, true
	case strings.Contains(a, "awesome"):
		return IconAwesomeList, true
	}
	return "", false
}

func firstImage(n ast.Node) *ast.Image {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if img, ok := c.(*ast.Image); ok {
			return img
		}
	}
	return nil
}

func firstEmphasis(n ast.Node) *ast.Emphasis {
	var found *ast.Emphasis
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if em, ok := c.(*ast.Emphasis); ok {
			found = em
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

// inlineText flattens the inline content under n to plain text.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(c.Value)
		case *ast.AutoLink:
			buf.Write(c.Label(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
