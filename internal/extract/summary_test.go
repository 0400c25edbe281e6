package extract_test

import (
	"testing"

	"github.com/raysh454/pagesnap/internal/extract"
)

const samplePage = `<!doctype html>
<html lang="en">
<head>
  <title>  Demo Shop </title>
  <meta name="Description" content="Things for sale">
  <link rel="canonical" href="https://shop.example/">
  <style>body { color: red }</style>
  <script>var hidden = "do not count me";</script>
</head>
<body>
  <h1>Welcome</h1>
  <p>Fresh   bread
     and coffee.</p>
  <img src="/a.png"><img src="/b.png">
  <a href="/about">About</a> <a name="anchor">x</a>
  <form action="/search"><input name="q"></form>
  <noscript>enable javascript</noscript>
  <script src="/app.js"></script>
</body>
</html>`

func TestSummarize(t *testing.T) {
	t.Parallel()
	s, err := extract.Summarize(samplePage)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if s.Title != "Demo Shop" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Description != "Things for sale" {
		t.Errorf("Description = %q", s.Description)
	}
	if s.Canonical != "https://shop.example/" {
		t.Errorf("Canonical = %q", s.Canonical)
	}
	if s.Lang != "en" {
		t.Errorf("Lang = %q", s.Lang)
	}
	if s.Images != 2 || s.Links != 1 || s.Scripts != 2 || s.Forms != 1 {
		t.Errorf("counts = images %d links %d scripts %d forms %d", s.Images, s.Links, s.Scripts, s.Forms)
	}

	want := "Welcome Fresh bread and coffee. About x"
	if s.Text != want {
		t.Errorf("Text = %q, want %q", s.Text, want)
	}
	if s.Words != 7 {
		t.Errorf("Words = %d, want 7", s.Words)
	}
}

func TestSummarize_OpenGraphDescription(t *testing.T) {
	t.Parallel()
	s, err := extract.Summarize(`<html><head><meta property="og:description" content="from og"></head><body></body></html>`)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Description != "from og" {
		t.Errorf("Description = %q", s.Description)
	}
	if s.Words != 0 || s.Text != "" {
		t.Errorf("expected empty text, got %q", s.Text)
	}
}

func TestSummarize_Fragment(t *testing.T) {
	t.Parallel()
	s, err := extract.Summarize("just some text")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Words != 3 {
		t.Errorf("Words = %d, want 3", s.Words)
	}
}

func TestSummarize_SeparatesAdjacentElements(t *testing.T) {
	t.Parallel()
	s, err := extract.Summarize(`<ul><li>alpha</li><li>beta</li></ul><p>gamma</p><p>delta</p><!-- hidden --><div><span>eps</span>ilon</div>`)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	want := "alpha beta gamma delta eps ilon"
	if s.Text != want {
		t.Errorf("Text = %q, want %q", s.Text, want)
	}
	if s.Words != 6 {
		t.Errorf("Words = %d, want 6", s.Words)
	}
}
