package document

import (
	"errors"
	"strings"
	"testing"
)

// Both backends must satisfy the extraction interface.
var (
	_ Queryable = (*Document)(nil)
	_ Queryable = (*CSSDocument)(nil)
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Sample</title></head>
<body>
  <ul class="tags">
    <li>  Foo  </li>
    <li>   </li>
    <li>Bar</li>
  </ul>
  <ul class="letters">
    <li>A</li>
    <li>B</li>
    <li>C</li>
    <li>D</li>
  </ul>
  <div class="profile">
    <span class="name">  Lionel
		Messi </span>
    <a class="club" href="/verein/131">Inter Miami</a>
  </div>
</body>
</html>`

func parseSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(samplePage), "https://example.com/sample")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func TestTrim(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "leading and trailing", in: "  Foo  ", want: "Foo"},
		{name: "internal runs collapse", in: "Lionel \n\t Messi", want: "Lionel Messi"},
		{name: "only whitespace", in: " \n\t ", want: ""},
		{name: "already clean", in: "Bar", want: "Bar"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trim(tt.in); got != tt.want {
				t.Errorf("Trim(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDocument_QueryList(t *testing.T) {
	doc := parseSample(t)

	t.Run("drops empty entries by default", func(t *testing.T) {
		got := doc.QueryList("//ul[@class='tags']/li")
		want := []string{"Foo", "Bar"}
		assertStrings(t, got, want)
	})

	t.Run("keeps empty entries with KeepEmpty", func(t *testing.T) {
		got := doc.QueryList("//ul[@class='tags']/li", KeepEmpty())
		want := []string{"Foo", "", "Bar"}
		assertStrings(t, got, want)
	})

	t.Run("no match returns empty non-nil slice", func(t *testing.T) {
		got := doc.QueryList("//ul[@class='missing']/li")
		if got == nil {
			t.Fatal("QueryList() = nil, want empty slice")
		}
		if len(got) != 0 {
			t.Errorf("QueryList() = %v, want empty", got)
		}
	})
}

func TestDocument_QueryText(t *testing.T) {
	doc := parseSample(t)
	letters := "//ul[@class='letters']/li"

	tests := []struct {
		name   string
		path   string
		opts   []Option
		want   string
		wantOK bool
	}{
		{name: "default pos 0", path: letters, want: "A", wantOK: true},
		{name: "explicit pos", path: letters, opts: []Option{Pos(2)}, want: "C", wantOK: true},
		{name: "pos out of range is absent", path: letters, opts: []Option{Pos(9)}, wantOK: false},
		{name: "no match is absent", path: "//ul[@class='missing']/li", wantOK: false},
		{name: "join", path: letters, opts: []Option{Join(",")}, want: "A,B,C,D", wantOK: true},
		{name: "from and to slice then pos 0", path: letters, opts: []Option{From(1), To(3)}, want: "B", wantOK: true},
		{name: "to only takes prefix", path: letters, opts: []Option{To(2), Pos(1)}, want: "B", wantOK: true},
		{name: "from only takes suffix", path: letters, opts: []Option{From(2)}, want: "C", wantOK: true},
		{name: "at indexes the sliced sequence", path: letters, opts: []Option{From(1), At(1)}, want: "C", wantOK: true},
		{name: "at out of range is absent", path: letters, opts: []Option{At(7)}, wantOK: false},
		{name: "slice then join", path: letters, opts: []Option{From(1), To(3), Join("-")}, want: "B-C", wantOK: true},
		{name: "oversized slice bounds clamp", path: letters, opts: []Option{From(0), To(99)}, want: "A", wantOK: true},
		{name: "inverted slice bounds are absent", path: letters, opts: []Option{From(3), To(1)}, wantOK: false},
		{name: "trims the selected value", path: "//span[@class='name']", want: "Lionel Messi", wantOK: true},
		{name: "attribute selection", path: "//a[@class='club']/@href", want: "/verein/131", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := doc.QueryText(tt.path, tt.opts...)
			if ok != tt.wantOK {
				t.Fatalf("QueryText() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("QueryText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocument_QueryText_EmptyMatchesAreAbsent(t *testing.T) {
	doc, err := Parse(strings.NewReader("<html><body><p>   </p><p> \n </p></body></html>"), "https://example.com/blank")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// Matches exist but all trim to empty, so the value is absent.
	if _, ok := doc.QueryText("//p"); ok {
		t.Error("QueryText() ok = true, want false for all-empty matches")
	}
}

func TestDocument_Require(t *testing.T) {
	doc := parseSample(t)

	if err := doc.Require("//ul[@class='letters']/li"); err != nil {
		t.Errorf("Require(present path) = %v, want nil", err)
	}

	err := doc.Require("//ul[@class='missing']/li")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Require(missing path) = %v, want *NotFoundError", err)
	}
	if nf.Addr != "https://example.com/sample" {
		t.Errorf("NotFoundError.Addr = %q, want the document address", nf.Addr)
	}
	if !strings.Contains(nf.Error(), "https://example.com/sample") {
		t.Errorf("Error() = %q, want it to carry the address", nf.Error())
	}
}

func TestCSSDocument_MatchesXPathSemantics(t *testing.T) {
	css, err := ParseCSS(strings.NewReader(samplePage), "https://example.com/sample")
	if err != nil {
		t.Fatalf("ParseCSS() error = %v", err)
	}

	t.Run("list", func(t *testing.T) {
		got := css.QueryList("ul.tags li")
		assertStrings(t, got, []string{"Foo", "Bar"})
	})

	t.Run("text with slicing", func(t *testing.T) {
		got, ok := css.QueryText("ul.letters li", From(1), To(3))
		if !ok || got != "B" {
			t.Errorf("QueryText() = %q, %v, want \"B\", true", got, ok)
		}
	})

	t.Run("join", func(t *testing.T) {
		got, ok := css.QueryText("ul.letters li", Join(","))
		if !ok || got != "A,B,C,D" {
			t.Errorf("QueryText() = %q, %v, want joined letters", got, ok)
		}
	})

	t.Run("require", func(t *testing.T) {
		var nf *NotFoundError
		if err := css.Require("div.absent"); !errors.As(err, &nf) {
			t.Errorf("Require(missing selector) = %v, want *NotFoundError", err)
		}
	})

	if css.Addr() != "https://example.com/sample" {
		t.Errorf("Addr() = %q, want the document address", css.Addr())
	}
}

func TestParseBytes(t *testing.T) {
	doc, err := ParseBytes([]byte(samplePage), "https://example.com/sample")
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if got, ok := doc.QueryText("//title"); !ok || got != "Sample" {
		t.Errorf("QueryText(//title) = %q, %v, want \"Sample\", true", got, ok)
	}
}

func assertStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v (len %d), want %v (len %d)", got, len(got), want, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d = %q, want %q", i, got[i], want[i])
		}
	}
}
