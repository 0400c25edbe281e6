package demoserver

import (
	"fmt"
	"strings"
)

// PageVersion is one rendition of a page.
type PageVersion struct {
	HTML        string
	ContentType string
	Headers     map[string]string
}

// PageDefinition holds all versions of a single page. Pages with more than
// one version let repeated captures show drift in the catalog.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

// GetAllPages returns all demo page definitions.
func GetAllPages(cfg Config) []PageDefinition {
	return []PageDefinition{
		getIndexPage(),
		getStaticPage(),
		getLazyPage(cfg.LazyImages),
		getInfinitePage(),
		getMutatingPage(),
		getImagesPage(),
		getSlowPage(),
	}
}

func single(html string) map[int]PageVersion {
	return map[int]PageVersion{1: {HTML: html}}
}

func getIndexPage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Index of capture scenarios",
		Versions: single(`<!DOCTYPE html>
<html lang="en">
<head>
    <title>pagesnap demo</title>
    <meta name="description" content="Pages that exercise each capture heuristic">
</head>
<body>
    <h1>pagesnap demo pages</h1>
    <ul>
        <li><a href="/static">Static page</a></li>
        <li><a href="/lazy">Lazy-loaded images</a></li>
        <li><a href="/infinite">Infinite scroll</a></li>
        <li><a href="/mutating">Constantly mutating DOM</a></li>
        <li><a href="/images">Inline images</a></li>
        <li><a href="/slow">Slow response</a></li>
        <li><a href="/demo/control">Version control</a></li>
    </ul>
</body>
</html>`),
	}
}

// ===== STATIC =====
func getStaticPage() PageDefinition {
	return PageDefinition{
		Path:        "/static",
		Description: "Plain content that settles immediately; versions differ in copy",
		Versions: map[int]PageVersion{
			1: {HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Static page v1</title>
    <meta name="description" content="A page with nothing dynamic">
</head>
<body>
    <h1>Static page</h1>
    <p>This page has no scripts and no images. It should be captured without any fallback delay.</p>
</body>
</html>`},
			2: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Static page v2</title>
    <meta name="description" content="A page with nothing dynamic, revised">
</head>
<body>
    <h1>Static page</h1>
    <p>This page has no scripts and no images. Its copy was revised in the second version.</p>
    <p>A new paragraph appears here.</p>
</body>
</html>`,
				Headers: map[string]string{"Cache-Control": "no-store"},
			},
		},
	}
}

// ===== LAZY =====
func getLazyPage(n int) PageDefinition {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `    <div class="slot" data-src="/img/%d.png" style="height:600px"></div>
`, i)
	}
	return PageDefinition{
		Path:        "/lazy",
		Description: "Images attached only when their slot scrolls into view",
		Versions: single(`<!DOCTYPE html>
<html lang="en">
<head><title>Lazy images</title></head>
<body>
    <h1>Lazy images</h1>
` + b.String() + `    <script>
        const io = new IntersectionObserver(entries => {
            for (const e of entries) {
                if (!e.isIntersecting || e.target.dataset.loaded) continue;
                const img = new Image();
                img.src = e.target.dataset.src;
                img.width = 400;
                e.target.appendChild(img);
                e.target.dataset.loaded = "1";
            }
        });
        document.querySelectorAll(".slot").forEach(s => io.observe(s));
    </script>
</body>
</html>`),
	}
}

// ===== INFINITE =====
func getInfinitePage() PageDefinition {
	return PageDefinition{
		Path:        "/infinite",
		Description: "Appends content whenever the bottom is reached; never stops growing",
		Versions: single(`<!DOCTYPE html>
<html lang="en">
<head><title>Infinite scroll</title></head>
<body>
    <h1>Infinite scroll</h1>
    <div id="feed"></div>
    <script>
        let n = 0;
        function more() {
            const feed = document.getElementById("feed");
            for (let i = 0; i < 10; i++) {
                const p = document.createElement("p");
                p.style.height = "120px";
                p.textContent = "Item " + (++n);
                feed.appendChild(p);
            }
        }
        more();
        window.addEventListener("scroll", () => {
            if (window.innerHeight + window.scrollY >= document.body.scrollHeight - 50) more();
        });
    </script>
</body>
</html>`),
	}
}

// ===== MUTATING =====
func getMutatingPage() PageDefinition {
	return PageDefinition{
		Path:        "/mutating",
		Description: "Rewrites a clock every 100ms so the DOM never goes quiet",
		Versions: single(`<!DOCTYPE html>
<html lang="en">
<head><title>Mutating DOM</title></head>
<body>
    <h1>Mutating DOM</h1>
    <p id="tick">0</p>
    <script>
        let t = 0;
        setInterval(() => { document.getElementById("tick").textContent = String(++t); }, 100);
    </script>
</body>
</html>`),
	}
}

// ===== IMAGES =====
func getImagesPage() PageDefinition {
	var b strings.Builder
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&b, `    <img src="/img/%d.png" width="300" alt="tile %d">
`, i, i)
	}
	return PageDefinition{
		Path:        "/images",
		Description: "Several images present in the initial markup",
		Versions: single(`<!DOCTYPE html>
<html lang="en">
<head><title>Inline images</title></head>
<body>
    <h1>Inline images</h1>
` + b.String() + `    <img src="/img/missing.png" alt="broken">
</body>
</html>`),
	}
}

// ===== SLOW =====
func getSlowPage() PageDefinition {
	return PageDefinition{
		Path:        "/slow",
		Description: "Holds the response before sending any markup",
		Versions: single(`<!DOCTYPE html>
<html lang="en">
<head><title>Slow page</title></head>
<body>
    <h1>Slow page</h1>
    <p>This response was delayed on purpose.</p>
</body>
</html>`),
	}
}
