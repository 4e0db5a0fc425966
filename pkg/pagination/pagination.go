// Package pagination derives the last page number of a paginated listing
// from the navigation links embedded in the page.
package pagination

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/transfermarkt-tools/tm-client/pkg/document"
)

// Pagination link suffixes, appended to the caller's path prefix. The
// last-page arrow is tried first; a listing open on its final page has no
// arrow, only the active indicator.
const (
	lastPageSuffix   = "//li[contains(@class, 'tm-pagination__list-item--icon-last-page')]/a/@href"
	activePageSuffix = "//li[contains(@class, 'tm-pagination__list-item--active')]/a/@href"
)

// LastPageNumber resolves the last page of a paginated listing. It tries the
// last-page link, then the active-page indicator, under pathPrefix; the first
// non-absent href is parsed for its trailing page number. Neither path
// matching means a single-page listing, so 1 is returned. A link that
// matches but carries no parseable number is a broken page structure and
// surfaces as an error rather than a silent default.
func LastPageNumber(doc document.Queryable, pathPrefix string) (int, error) {
	for _, suffix := range []string{lastPageSuffix, activePageSuffix} {
		href, ok := doc.QueryText(pathPrefix + suffix)
		if !ok {
			continue
		}
		return parsePageNumber(href)
	}
	return 1, nil
}

// parsePageNumber extracts the page number from a pagination href: the last
// "="-delimited segment, then the last "/"-delimited segment of that. Covers
// both "?page=5" and ".../page/5" link shapes.
func parsePageNumber(href string) (int, error) {
	s := href
	if i := strings.LastIndex(s, "="); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse page number from pagination link %q: %w", href, err)
	}
	return n, nil
}
