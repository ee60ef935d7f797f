package icecast

import (
	"fmt"
	"io"
	"listenerd/internal/models"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var nonDigitRe = regexp.MustCompile(`[^0-9]`)

// ParseStatusHTML scrapes the tables of a status.xsl page. A table is used
// when its header cells name a mount column and a "listeners" column.
func ParseStatusHTML(r io.Reader) (map[string]*models.SourceRecord, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	result := make(map[string]*models.SourceRecord)
	for _, table := range findAll(doc, atom.Table) {
		parseTable(table, result)
	}
	return result, nil
}

func parseTable(table *html.Node, result map[string]*models.SourceRecord) {
	idxMount, idxListeners, idxPeak := -1, -1, -1
	for i, th := range findAll(table, atom.Th) {
		h := strings.ToLower(textOf(th))
		switch {
		case strings.Contains(h, "mount"):
			if idxMount < 0 {
				idxMount = i
			}
		case h == "listeners":
			if idxListeners < 0 {
				idxListeners = i
			}
		case strings.Contains(h, "peak"):
			if idxPeak < 0 {
				idxPeak = i
			}
		}
	}
	if idxMount < 0 || idxListeners < 0 {
		return
	}

	for _, tr := range findAll(table, atom.Tr) {
		var cells []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				cells = append(cells, textOf(c))
			}
		}
		if len(cells) <= max(idxMount, idxListeners) {
			continue
		}

		mount := cells[idxMount]
		if strings.EqualFold(mount, "mount point") {
			continue
		}
		mount = normalizeMount(mount)
		if mount == "" {
			continue
		}

		rec := &models.SourceRecord{
			ID:        mount,
			Name:      mount,
			Mount:     mount,
			Listeners: SafeInt(nonDigitRe.ReplaceAllString(cells[idxListeners], ""), 0),
		}
		if idxPeak >= 0 && idxPeak < len(cells) {
			rec.Peak = OptionalInt(nonDigitRe.ReplaceAllString(cells[idxPeak], ""))
		}
		result[mount] = rec
	}
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == a {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(node.Data))
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
