// Package outline converts a Markdown catalog document into a flat, ordered
// sequence of outline nodes: section headings, section descriptions and
// annotated app lists.
package outline

// Node is one element of an outline. The concrete types are Heading,
// Description and AppList.
type Node interface {
	outlineNode()
}

// Heading is a section heading. Depth is 2 for main categories and 3 for
// subcategories.
type Heading struct {
	Depth int
	Text  string
}

// Description carries the first emphasized run of a paragraph.
type Description struct {
	Emphasis string
}

// AppList is a Markdown list whose items describe apps.
type AppList struct {
	Items []ListItem
}

func (Heading) outlineNode()     {}
func (Description) outlineNode() {}
func (AppList) outlineNode()     {}

// IconType classifies a badge attached to a list item.
type IconType string

const (
	IconOSS         IconType = "oss"
	IconFreeware    IconType = "freeware"
	IconAppStore    IconType = "app-store"
	IconAwesomeList IconType = "awesome-list"
)

// Icon is a badge image, optionally wrapped in a link whose target is URL.
type Icon struct {
	Type IconType `json:"type"`
	URL  string   `json:"url,omitempty"`
}

// Mark is the structured annotation of a list item.
type Mark struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Icons   []Icon `json:"icons,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// PartKind tells the inline children of a list item apart.
type PartKind int

const (
	PartText PartKind = iota
	PartLink
	PartImage
)

// Part is one inline child of a list item, flattened to text.
type Part struct {
	Kind PartKind
	Text string
}

// ListItem is one entry of an AppList. Mark is nil when the item has no
// title link.
type ListItem struct {
	Mark  *Mark
	Parts []Part
}

// Text concatenates the text parts of the item, skipping links and images.
func (li ListItem) Text() string {
	var n int
	for _, p := range li.Parts {
		if p.Kind == PartText {
			n += len(p.Text)
		}
	}
	buf := make([]byte, 0, n)
	for _, p := range li.Parts {
		if p.Kind == PartText {
			buf = append(buf, p.Text...)
		}
	}
	return string(buf)
}
