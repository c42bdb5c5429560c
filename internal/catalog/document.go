package catalog

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const productClass = "product"

// LoadFile parses the catalog document at path and builds the index.
func LoadFile(path string, log *zap.Logger) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog document: %w", err)
	}
	defer f.Close()

	products, err := ParseDocument(f, log)
	if err != nil {
		return nil, err
	}
	return NewIndex(products), nil
}

// ParseDocument extracts one Product per element carrying the "product" class.
// Attributes come from data-name, data-price, data-category and data-rating;
// the name falls back to the first <h4> text and the image to the first <img>.
func ParseDocument(r io.Reader, log *zap.Logger) ([]Product, error) {
	if log == nil {
		log = zap.NewNop()
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse catalog document: %w", err)
	}

	var out []Product
	seen := map[string]struct{}{}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, productClass) {
			p := cardProduct(n)
			switch _, dup := seen[p.Name]; {
			case p.Name == "":
				log.Warn("skipping product card without a name")
			case dup:
				log.Warn("skipping duplicate product card", zap.String("name", p.Name))
			default:
				seen[p.Name] = struct{}{}
				out = append(out, p)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

func cardProduct(card *html.Node) Product {
	name := strings.TrimSpace(attr(card, "data-name"))
	if name == "" {
		if h := find(card, atom.H4); h != nil {
			name = strings.TrimSpace(text(h))
		}
	}

	var img string
	if n := find(card, atom.Img); n != nil {
		img = attr(n, "src")
	}

	return Product{
		Name:     name,
		Price:    number(attr(card, "data-price")),
		ImageRef: img,
		Category: strings.ToLower(attr(card, "data-category")),
		Rating:   number(attr(card, "data-rating")),
	}
}

// number coerces a missing, malformed or negative attribute to 0.
func number(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func find(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if got := find(c, a); got != nil {
			return got
		}
	}
	return nil
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
