package archive

import (
	"io"
	"iter"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const textExtension = ".txt"

// Candidate is one plain-text file found on a listing page.
type Candidate struct {
	Filename string  `json:"filename"`
	Size     float64 `json:"size"`
}

// ParseListing walks every table row of an archive listing. A row counts when
// its first link points at a .txt file; the size is read from the row's
// second-to-last cell.
func ParseListing(r io.Reader) ([]Candidate, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0)
	for row := range findAll(doc, atom.Tr) {
		link := findFirst(row, atom.A)
		if link == nil {
			continue
		}
		href := attr(link, "href")
		if !strings.HasSuffix(href, textExtension) {
			continue
		}

		var size float64
		cells := slices.Collect(findAll(row, atom.Td))
		if len(cells) >= 2 {
			size = ParseSize(textContent(cells[len(cells)-2]))
		}

		candidates = append(candidates, Candidate{
			Filename: href,
			Size:     size,
		})
	}

	return candidates, nil
}

// Largest returns the candidate with the greatest size. Ties keep the one
// listed first.
func Largest(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Size > best.Size {
			best = c
		}
	}
	return best, true
}

// findAll yields every descendant element of n with the given tag, in
// document order. Nested matches are included.
func findAll(n *html.Node, tag atom.Atom) iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		for d := range n.Descendants() {
			if d.Type == html.ElementNode && d.DataAtom == tag {
				if !yield(d) {
					return
				}
			}
		}
	}
}

func findFirst(n *html.Node, tag atom.Atom) *html.Node {
	for d := range findAll(n, tag) {
		return d
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			b.WriteString(d.Data)
		}
	}
	return strings.TrimSpace(b.String())
}
