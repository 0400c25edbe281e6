package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/pagesnap/internal/browser"
)

// onePixelPNG is a valid 1x1 transparent PNG.
var onePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// OnePixelPNG returns a copy of a minimal valid PNG.
func OnePixelPNG() []byte { return append([]byte(nil), onePixelPNG...) }

// FakeBrowser implements browser.Browser over a scripted page model.
// Evaluate answers the capture scripts by recognising their text.
type FakeBrowser struct {
	mu sync.Mutex

	NavigateErr error

	// ScrollHeights are returned by successive document.body.scrollHeight
	// reads; the last value repeats. GrowBy, when positive, makes every
	// read taller than the one before instead.
	ScrollHeights []int
	GrowBy        int

	// Measured full-page size.
	Width  int
	Height int

	// ImagesReady is consumed per poll; the last value repeats. Empty means
	// ready immediately.
	ImagesReady []bool

	RequestsBusy bool
	Mutations    int

	// EvalErrs fails any script containing the key.
	EvalErrs map[string]error

	PNG           []byte
	ScreenshotErr error
	ViewportErr   error
	Page          browser.PageInfo
	InfoErr       error
	Document      string
	HTMLErr       error

	// Recorded calls.
	Navigations []string
	Viewports   [][2]int
	Scripts     []string
	Closed      bool

	heightReads int
	imagePolls  int
}

var _ browser.Browser = (*FakeBrowser)(nil)

// NewFakeBrowser returns a settled 1280x2000 page with no images.
func NewFakeBrowser() *FakeBrowser {
	return &FakeBrowser{
		ScrollHeights: []int{2000},
		Width:         1280,
		Height:        2000,
		PNG:           OnePixelPNG(),
		Page: browser.PageInfo{
			Title:     "Fake Page",
			URL:       "https://example.com/",
			UserAgent: "FakeBrowser/1.0",
		},
		Document: "<html><head><title>Fake Page</title></head><body><p>hello</p></body></html>",
	}
}

func (f *FakeBrowser) Navigate(ctx context.Context, rawURL string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigations = append(f.Navigations, rawURL)
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.NavigateErr
}

func (f *FakeBrowser) Evaluate(ctx context.Context, script string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scripts = append(f.Scripts, script)

	for key, err := range f.EvalErrs {
		if strings.Contains(script, key) {
			return err
		}
	}

	var v any
	switch {
	case strings.Contains(script, "scrollTo"):
		v = nil
	case strings.Contains(script, "Math.max") && strings.Contains(script, "Width"):
		v = f.Width
	case strings.Contains(script, "Math.max") && strings.Contains(script, "Height"):
		v = f.Height
	case strings.Contains(script, "MutationObserver"):
		v = f.Mutations
	case strings.Contains(script, "jQuery"):
		v = !f.RequestsBusy
	case strings.Contains(script, "naturalHeight"):
		v = f.nextImagesReady()
	case strings.Contains(script, "document.body.scrollHeight"):
		v = f.nextHeight()
	default:
		v = nil
	}

	if out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *FakeBrowser) nextHeight() int {
	n := f.heightReads
	f.heightReads++
	if f.GrowBy > 0 {
		base := 1000
		if len(f.ScrollHeights) > 0 {
			base = f.ScrollHeights[0]
		}
		return base + n*f.GrowBy
	}
	if len(f.ScrollHeights) == 0 {
		return f.Height
	}
	if n >= len(f.ScrollHeights) {
		n = len(f.ScrollHeights) - 1
	}
	return f.ScrollHeights[n]
}

func (f *FakeBrowser) nextImagesReady() bool {
	n := f.imagePolls
	f.imagePolls++
	if len(f.ImagesReady) == 0 {
		return true
	}
	if n >= len(f.ImagesReady) {
		n = len(f.ImagesReady) - 1
	}
	return f.ImagesReady[n]
}

// ImagePolls reports how many times image readiness was checked.
func (f *FakeBrowser) ImagePolls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imagePolls
}

// HeightReads reports how many scroll-height samples were taken.
func (f *FakeBrowser) HeightReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heightReads
}

func (f *FakeBrowser) SetViewport(_ context.Context, width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ViewportErr != nil {
		return f.ViewportErr
	}
	f.Viewports = append(f.Viewports, [2]int{width, height})
	return nil
}

func (f *FakeBrowser) Screenshot(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ScreenshotErr != nil {
		return nil, f.ScreenshotErr
	}
	return append([]byte(nil), f.PNG...), nil
}

func (f *FakeBrowser) Info(_ context.Context) (browser.PageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InfoErr != nil {
		return browser.PageInfo{}, f.InfoErr
	}
	return f.Page, nil
}

func (f *FakeBrowser) HTML(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HTMLErr != nil {
		return "", f.HTMLErr
	}
	return f.Document, nil
}

func (f *FakeBrowser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
