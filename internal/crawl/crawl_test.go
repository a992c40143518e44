package crawl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare host gets https", "acme.io", "https://acme.io"},
		{"host lowercased", "https://ACME.IO/Pricing", "https://acme.io/Pricing"},
		{"trailing slash trimmed", "https://acme.io/pricing/", "https://acme.io/pricing"},
		{"fragment dropped", "https://acme.io/pricing#faq", "https://acme.io/pricing"},
		{"whitespace trimmed", "  acme.io  ", "https://acme.io"},
		{"http preserved", "http://acme.io", "http://acme.io"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := NormalizeURL(tc.in)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) failed: %v", tc.in, err)
			}
			if u.String() != tc.want {
				t.Fatalf("NormalizeURL(%q) = %q, want %q", tc.in, u.String(), tc.want)
			}
		})
	}
}

func TestNormalizeURL_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "ftp://acme.io", "javascript:alert(1)", "https://"} {
		_, err := NormalizeURL(in)
		if err == nil {
			t.Fatalf("NormalizeURL(%q) should fail", in)
		}
		if !errors.Is(err, ErrBadURL) {
			t.Fatalf("NormalizeURL(%q) error should wrap ErrBadURL, got: %v", in, err)
		}
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := "café" // 5 bytes, the last rune is 2 bytes wide
	got := truncate(s, 4)
	if got != "caf" {
		t.Fatalf("truncate must not split a rune: got %q", got)
	}
	if truncate(s, 5) != s {
		t.Fatal("truncate must not cut a string within the cap")
	}
	if truncate(s, 0) != s {
		t.Fatal("a zero cap means unlimited")
	}
	if !utf8.ValidString(truncate(strings.Repeat("é", 100), 33)) {
		t.Fatal("truncated output must stay valid UTF-8")
	}
}

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title> Acme &amp; Co </title>
<meta name="description" content="Widgets for everyone">
<style>body { color: red }</style>
<script>console.log("ignore me")</script>
</head>
<body>
<h1>Welcome to <em>Acme</em></h1>
<h2>Pricing</h2>
<nav>
<a href="/pricing">Pricing</a>
<a href="/pricing">Pricing again</a>
<a href="/about/">About</a>
<a href="https://acme.io/contact?ref=nav">Contact</a>
<a href="https://other.example/out">External</a>
<a href="mailto:hi@acme.io">Mail</a>
<a href="/logo.png">Logo</a>
</nav>
<p>We sell widgets.</p>
</body>
</html>`

func TestExtractPage(t *testing.T) {
	base, _ := url.Parse("https://acme.io")
	p := extractPage(base, samplePage)

	if p.Title != "Acme & Co" {
		t.Fatalf("unexpected title: %q", p.Title)
	}
	if p.Description != "Widgets for everyone" {
		t.Fatalf("unexpected description: %q", p.Description)
	}
	if len(p.Headings) != 2 || p.Headings[0] != "Welcome to Acme" || p.Headings[1] != "Pricing" {
		t.Fatalf("unexpected headings: %v", p.Headings)
	}
	if strings.Contains(p.Text, "console.log") || strings.Contains(p.Text, "color: red") {
		t.Fatalf("script/style content leaked into text: %q", p.Text)
	}
	if !strings.Contains(p.Text, "We sell widgets.") {
		t.Fatalf("body text missing: %q", p.Text)
	}
}

func TestExtractPage_Links(t *testing.T) {
	base, _ := url.Parse("https://acme.io")
	p := extractPage(base, samplePage)

	want := []string{
		"https://acme.io/pricing",
		"https://acme.io/about",
		"https://acme.io/contact",
	}
	if len(p.Links) != len(want) {
		t.Fatalf("unexpected links: %v", p.Links)
	}
	for i, l := range want {
		if p.Links[i] != l {
			t.Fatalf("link %d: got %q, want %q", i, p.Links[i], l)
		}
	}
}

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "AnnexaBot/") {
			t.Errorf("unexpected user agent: %s", got)
		}
		w.Write([]byte(`<html><head><title>Home</title></head><body><p>hello</p></body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(2 * time.Second)
	p, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if p.Title != "Home" {
		t.Fatalf("unexpected title: %q", p.Title)
	}
}

func TestFetcher_FetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(2 * time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestCrawlSite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Home</title></head><body>
			<a href="/pricing">Pricing</a>
			<a href="/broken">Broken</a>
		</body></html>`))
	})
	mux.HandleFunc("/pricing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Pricing</title></head><body>plans</body></html>`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(2 * time.Second)
	site, err := f.CrawlSite(context.Background(), srv.URL, 3)
	if err != nil {
		t.Fatalf("CrawlSite failed: %v", err)
	}

	// Root plus the one subsidiary page that succeeded.
	if len(site.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(site.Pages))
	}
	if site.Pages[0].Title != "Home" {
		t.Fatalf("root page should come first, got %q", site.Pages[0].Title)
	}
}

func TestCrawlSite_RootFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(2 * time.Second)
	if _, err := f.CrawlSite(context.Background(), srv.URL, 3); err == nil {
		t.Fatal("expected error when the root fetch fails")
	}
}

func TestSiteSummary(t *testing.T) {
	site := &Site{
		BaseURL: "https://acme.io",
		Pages: []*Page{
			{URL: "https://acme.io", Title: "Home", Text: "We sell widgets."},
			{URL: "https://acme.io/pricing", Title: "Pricing", Text: "Plans start at $9."},
		},
	}

	sum := site.Summary(0)
	if !strings.Contains(sum, "Home") || !strings.Contains(sum, "Plans start at $9.") {
		t.Fatalf("summary missing page content: %q", sum)
	}

	capped := site.Summary(40)
	if len(capped) > 40 {
		t.Fatalf("summary exceeds cap: %d chars", len(capped))
	}
}

func TestSiteSummary_CapKeepsValidUTF8(t *testing.T) {
	site := &Site{
		BaseURL: "https://a.io",
		Pages:   []*Page{{URL: "https://a.io", Text: strings.Repeat("é", 50)}},
	}
	// Walk the cap across the multi-byte run; no cut may split a rune.
	for max := 15; max < 30; max++ {
		out := site.Summary(max)
		if !utf8.ValidString(out) {
			t.Fatalf("Summary(%d) produced invalid UTF-8: %q", max, out)
		}
		if len(out) > max {
			t.Fatalf("Summary(%d) exceeds cap: %d bytes", max, len(out))
		}
	}
}
