// Package document parses fetched HTML into an immutable in-memory tree and
// evaluates path queries against it. A parsed document belongs to the caller
// that fetched it; nothing here caches or shares trees across requests.
package document

import (
	"bytes"
	"fmt"
	"io"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Queryable is the extraction capability a parsed page exposes. Call sites
// depend on this interface only, so the parsing backend can be swapped
// without touching them.
type Queryable interface {
	// QueryList evaluates the path and returns the trimmed text of every
	// match in document order. Entries empty after trimming are dropped
	// unless KeepEmpty is given. A non-nil empty slice means no match.
	QueryList(path string, opts ...Option) []string

	// QueryText evaluates the path and reduces the matches to one string
	// per the slice/index/join options. The second return is false when
	// nothing matched or the selected index is out of range.
	QueryText(path string, opts ...Option) (string, bool)

	// Require checks that the path yields at least one non-empty value and
	// returns *NotFoundError otherwise. Every other extraction call treats
	// "no match" as absent; Require is the one place it becomes an error.
	Require(path string) error

	// Addr returns the address the document was fetched from.
	Addr() string
}

// NotFoundError reports that a required path yielded nothing on the page.
type NotFoundError struct {
	Addr string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no match found in page for url: %s", e.Addr)
}

// Document is the primary Queryable backend, evaluating XPath expressions
// over an x/net/html tree via htmlquery. Immutable after Parse.
type Document struct {
	root *html.Node
	addr string
}

// Parse builds a document from fetched HTML. addr records where the page
// came from, for error context.
func Parse(r io.Reader, addr string) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", addr, err)
	}
	return &Document{root: root, addr: addr}, nil
}

// ParseBytes builds a document from a fetched response body.
func ParseBytes(body []byte, addr string) (*Document, error) {
	return Parse(bytes.NewReader(body), addr)
}

// Addr returns the address the document was fetched from.
func (d *Document) Addr() string {
	return d.addr
}

// texts returns the raw text of every node the path selects, in document
// order. A malformed path expression is a programmer error and panics, the
// same way a bad regexp constant would.
func (d *Document) texts(path string) []string {
	nodes := htmlquery.Find(d.root, path)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, htmlquery.InnerText(n))
	}
	return out
}

// QueryList implements Queryable.
func (d *Document) QueryList(path string, opts ...Option) []string {
	return applyList(d.texts(path), newQueryOpts(opts))
}

// QueryText implements Queryable.
func (d *Document) QueryText(path string, opts ...Option) (string, bool) {
	return applyText(d.texts(path), newQueryOpts(opts))
}

// Require implements Queryable.
func (d *Document) Require(path string) error {
	if _, ok := d.QueryText(path); !ok {
		return &NotFoundError{Addr: d.addr}
	}
	return nil
}
