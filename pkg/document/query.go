package document

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Trim normalizes extracted text: every internal whitespace run collapses to
// a single space and both ends are stripped. A value that is empty after
// trimming counts as absent for emptiness checks.
func Trim(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// queryOpts collects the extraction options for one query call.
type queryOpts struct {
	keepEmpty bool
	pos       int
	at        *int
	from      *int
	to        *int
	join      *string
}

// Option adjusts how a query's matches are reduced to a result.
type Option func(*queryOpts)

// KeepEmpty makes QueryList keep entries that are empty after trimming.
func KeepEmpty() Option {
	return func(o *queryOpts) { o.keepEmpty = true }
}

// Pos selects which element QueryText returns when no other reduction
// applies. The default is 0.
func Pos(i int) Option {
	return func(o *queryOpts) { o.pos = i }
}

// At selects a single index of the (possibly sliced) match sequence.
func At(i int) Option {
	return func(o *queryOpts) { o.at = &i }
}

// From slices the match sequence to the suffix starting at index i.
func From(i int) Option {
	return func(o *queryOpts) { o.from = &i }
}

// To slices the match sequence to the prefix ending before index i.
func To(i int) Option {
	return func(o *queryOpts) { o.to = &i }
}

// Join joins the remaining match sequence with sep instead of indexing it.
func Join(sep string) Option {
	return func(o *queryOpts) { o.join = &sep }
}

func newQueryOpts(opts []Option) queryOpts {
	var o queryOpts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// applyList trims every matched text and drops empties unless keepEmpty.
// Backends share this so list semantics cannot drift between them.
func applyList(texts []string, o queryOpts) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		v := Trim(t)
		if v == "" && !o.keepEmpty {
			continue
		}
		out = append(out, v)
	}
	return out
}

// applyText reduces matched texts to a single value. Matches are trimmed and
// empty-filtered first, then reduced in a fixed precedence: From/To slicing,
// then At indexing the sliced sequence, then Join; without Join the value at
// index pos is returned. An out-of-range At or pos is absent, not an error.
func applyText(texts []string, o queryOpts) (string, bool) {
	if len(texts) == 0 {
		return "", false
	}

	vals := applyList(texts, queryOpts{})
	if len(vals) == 0 {
		return "", false
	}

	switch {
	case o.from != nil && o.to != nil:
		from := clampIndex(*o.from, len(vals))
		to := clampIndex(*o.to, len(vals))
		if to < from {
			to = from
		}
		vals = vals[from:to]
	case o.to != nil:
		vals = vals[:clampIndex(*o.to, len(vals))]
	case o.from != nil:
		vals = vals[clampIndex(*o.from, len(vals)):]
	}

	if o.at != nil {
		if *o.at < 0 || *o.at >= len(vals) {
			return "", false
		}
		vals = vals[*o.at : *o.at+1]
	}

	if o.join != nil {
		return strings.Join(vals, *o.join), true
	}

	if o.pos < 0 || o.pos >= len(vals) {
		return "", false
	}
	return vals[o.pos], true
}

// clampIndex bounds a slice index to [0, n].
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
