// Package htmlutil holds the document helpers shared by the game page
// scrapers. Selection is deliberately strict: a fragment that should
// appear exactly once is an error when it appears zero times or more
// than once, because silently taking the first match has produced wrong
// archive data in the past when a game changed its layout.
package htmlutil

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// NonUniqueError reports a fragment that did not match exactly once.
type NonUniqueError struct {
	Fragment string
	Count    int
}

func (e *NonUniqueError) Error() string {
	return fmt.Sprintf(
		"zero or many %s, exactly one was expected (found %d)",
		e.Fragment, e.Count,
	)
}

// MissingAttrError reports an attribute absent from a matched node.
type MissingAttrError struct {
	Fragment string
	Attr     string
}

func (e *MissingAttrError) Error() string {
	return fmt.Sprintf("missing %q attribute on %s", e.Attr, e.Fragment)
}

// SelectOne matches a selector against sel and requires exactly one hit.
// fragment is a human name for the thing being selected, it ends up in
// the error and in diagnostics.
func SelectOne(sel *goquery.Selection, selector, fragment string) (*goquery.Selection, error) {
	found := sel.Find(selector)
	if len(found.Nodes) != 1 {
		return nil, &NonUniqueError{Fragment: fragment, Count: len(found.Nodes)}
	}
	return found, nil
}

// SelectAttr is SelectOne followed by a required attribute read.
func SelectAttr(sel *goquery.Selection, selector, attr, fragment string) (string, error) {
	found, err := SelectOne(sel, selector, fragment)
	if err != nil {
		return "", err
	}
	value, ok := found.Attr(attr)
	if !ok {
		return "", &MissingAttrError{Fragment: fragment, Attr: attr}
	}
	return value, nil
}

// AttrOf reads a required attribute off an already-matched selection.
func AttrOf(sel *goquery.Selection, attr, fragment string) (string, error) {
	value, ok := sel.Attr(attr)
	if !ok {
		return "", &MissingAttrError{Fragment: fragment, Attr: attr}
	}
	return value, nil
}

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

// CleanText collapses scraped text into a single printable line.
func CleanText(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	out := strings.Trim(newStr.String(), " \t\n")
	return innerWhitespace.ReplaceAllString(out, " ")
}

// CleanedText is the usual CleanText(text-of-selection) combo.
func CleanedText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		buffer.WriteString(GetText(n))
	}
	return CleanText(buffer.String())
}
