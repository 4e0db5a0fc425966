package document

import (
	"bytes"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// CSSDocument is the alternate Queryable backend, evaluating CSS selectors
// via goquery instead of XPath. Extraction semantics (trimming, slicing,
// joining, Require) are identical to Document; only path syntax differs.
type CSSDocument struct {
	doc  *goquery.Document
	addr string
}

// ParseCSS builds a CSS-selector document from fetched HTML.
func ParseCSS(r io.Reader, addr string) (*CSSDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", addr, err)
	}
	return &CSSDocument{doc: doc, addr: addr}, nil
}

// ParseCSSBytes builds a CSS-selector document from a fetched response body.
func ParseCSSBytes(body []byte, addr string) (*CSSDocument, error) {
	return ParseCSS(bytes.NewReader(body), addr)
}

// Addr returns the address the document was fetched from.
func (d *CSSDocument) Addr() string {
	return d.addr
}

func (d *CSSDocument) texts(sel string) []string {
	var out []string
	d.doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

// QueryList implements Queryable.
func (d *CSSDocument) QueryList(sel string, opts ...Option) []string {
	return applyList(d.texts(sel), newQueryOpts(opts))
}

// QueryText implements Queryable.
func (d *CSSDocument) QueryText(sel string, opts ...Option) (string, bool) {
	return applyText(d.texts(sel), newQueryOpts(opts))
}

// Require implements Queryable.
func (d *CSSDocument) Require(sel string) error {
	if _, ok := d.QueryText(sel); !ok {
		return &NotFoundError{Addr: d.addr}
	}
	return nil
}
