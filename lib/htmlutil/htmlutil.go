package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText drops non-printable characters, trims the string and collapses
// inner runs of whitespace into a single space.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Text is CleanText over the text of every node in the selection.
func Text(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return CleanText(buffer.String())
}

// TableContaining returns the first table, in document order, whose cleaned
// text contains marker. The selection is empty when no table does.
func TableContaining(doc *goquery.Document, marker string) *goquery.Selection {
	return doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(CleanText(GetText(s.Get(0))), marker)
	}).First()
}

// AttrOnAny collects the value of attr on every element of the selection
// that carries it, in document order.
func AttrOnAny(sel *goquery.Selection, attr string) []string {
	var values []string
	sel.Each(func(_ int, s *goquery.Selection) {
		v, ok := s.Attr(attr)
		if ok {
			values = append(values, v)
		}
	})
	return values
}
