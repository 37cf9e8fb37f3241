package extract

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Lookup evaluates XPath candidates against one parsed document.
type Lookup struct {
	doc      *xmlquery.Node
	ns       map[string]string
	compiled map[string]*xpath.Expr
	invalid  map[string]struct{}
}

func newLookup(doc *xmlquery.Node) *Lookup {
	return &Lookup{
		doc:      doc,
		ns:       collectNamespaces(doc),
		compiled: make(map[string]*xpath.Expr),
		invalid:  make(map[string]struct{}),
	}
}

// collectNamespaces gathers every prefixed xmlns declaration in the tree.
// A prefix redeclared deeper in the tree takes the later URI.
func collectNamespaces(doc *xmlquery.Node) map[string]string {
	ns := make(map[string]string)
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for ; n != nil; n = n.NextSibling {
			if n.Type != xmlquery.ElementNode {
				continue
			}
			for _, attr := range n.Attr {
				if attr.Name.Space != "xmlns" || attr.Name.Local == "" {
					continue
				}
				ns[attr.Name.Local] = attr.Value
			}
			walk(n.FirstChild)
		}
	}
	walk(doc.FirstChild)
	return ns
}

func (l *Lookup) compile(expr string) (*xpath.Expr, bool) {
	if e, ok := l.compiled[expr]; ok {
		return e, true
	}
	if _, bad := l.invalid[expr]; bad {
		return nil, false
	}
	e, err := xpath.CompileWithNS(expr, l.ns)
	if err != nil {
		l.invalid[expr] = struct{}{}
		return nil, false
	}
	l.compiled[expr] = e
	return e, true
}

// First returns the first non-empty trimmed text among candidates, evaluated
// from the document root.
func (l *Lookup) First(candidates ...string) string {
	return l.FirstIn(l.doc, candidates...)
}

// FirstIn is First relative to node.
func (l *Lookup) FirstIn(node *xmlquery.Node, candidates ...string) string {
	if node == nil {
		return ""
	}
	for _, candidate := range candidates {
		expr, ok := l.compile(candidate)
		if !ok {
			continue
		}
		for _, n := range xmlquery.QuerySelectorAll(node, expr) {
			if text := strings.TrimSpace(n.InnerText()); text != "" {
				return text
			}
		}
	}
	return ""
}

// Node returns the first node matched by any candidate.
func (l *Lookup) Node(node *xmlquery.Node, candidates ...string) *xmlquery.Node {
	if node == nil {
		return nil
	}
	for _, candidate := range candidates {
		expr, ok := l.compile(candidate)
		if !ok {
			continue
		}
		if n := xmlquery.QuerySelector(node, expr); n != nil {
			return n
		}
	}
	return nil
}

// All returns the union of nodes matched by candidates, in candidate order,
// each node at most once.
func (l *Lookup) All(node *xmlquery.Node, candidates ...string) []*xmlquery.Node {
	seen := make(map[*xmlquery.Node]struct{})
	var out []*xmlquery.Node
	for _, n := range l.Concat(node, candidates...) {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Concat returns every node matched by every candidate. A node matched by
// two candidates appears twice.
func (l *Lookup) Concat(node *xmlquery.Node, candidates ...string) []*xmlquery.Node {
	if node == nil {
		return nil
	}
	var out []*xmlquery.Node
	for _, candidate := range candidates {
		expr, ok := l.compile(candidate)
		if !ok {
			continue
		}
		out = append(out, xmlquery.QuerySelectorAll(node, expr)...)
	}
	return out
}

// Exists reports whether any candidate matches.
func (l *Lookup) Exists(candidates ...string) bool {
	return l.Node(l.doc, candidates...) != nil
}

// Count returns the number of nodes matched by expr.
func (l *Lookup) Count(expr string) int {
	e, ok := l.compile(expr)
	if !ok {
		return 0
	}
	return len(xmlquery.QuerySelectorAll(l.doc, e))
}
