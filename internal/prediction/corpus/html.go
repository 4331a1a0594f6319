package corpus

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MatchingLinks devolve o href de cada <a> cujo texto visível contém a entidade
func MatchingLinks(page []byte, entity string) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var out []string
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.A {
			return true
		}
		href := attr(n, "href")
		if href == "" {
			return false
		}
		if text := nodeText(n); text != "" && containsFold(text, entity) {
			out = append(out, href)
		}
		return false
	})
	return out, nil
}

// ParagraphText concatena o texto de todos os <p> da página, separado por espaço
func ParagraphText(page []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", err
	}

	var parts []string
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.P {
			return true
		}
		if text := nodeText(n); text != "" {
			parts = append(parts, text)
		}
		return false
	})
	return strings.Join(parts, " "), nil
}

// walk percorre a árvore em profundidade; fn retorna false para não descer no nó
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
		return
	}
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// nodeText junta os nós de texto descendentes, com espaços colapsados
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
