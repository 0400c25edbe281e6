package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/pagesnap/internal/testutil"
)

func TestReserveStem(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	base := "snapshot_20240101_000000"

	if got, err := reserveStem(dir, base); err != nil || got != base {
		t.Fatalf("empty dir: got %q, %v", got, err)
	}

	if err := os.WriteFile(filepath.Join(dir, base+".png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := reserveStem(dir, base); err != nil || got != base+"_1" {
		t.Errorf("png collision: got %q, %v", got, err)
	}

	// A lone json file also blocks its stem.
	if err := os.WriteFile(filepath.Join(dir, base+"_1.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := reserveStem(dir, base); err != nil || got != base+"_2" {
		t.Errorf("json collision: got %q, %v", got, err)
	}
}

func TestReserveStem_UnreadableDirFails(t *testing.T) {
	t.Parallel()
	// A regular file in place of the directory makes every stat fail with
	// ENOTDIR, which must surface instead of looking like a taken name.
	notDir := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(notDir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := reserveStem(notDir, "snapshot")
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reserveStem did not return")
	}
}

func TestWritePair(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	pngPath, jsonPath, err := writePair(dir, "snap", []byte("png"), []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("writePair: %v", err)
	}
	if got, _ := os.ReadFile(pngPath); string(got) != "png" {
		t.Errorf("png contents = %q", got)
	}
	if got, _ := os.ReadFile(jsonPath); string(got) != `{"a":1}` {
		t.Errorf("json contents = %q", got)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 files, got %d", len(entries))
	}
}

func TestWritePair_RollsBackWhenJSONCannotBePlaced(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// A directory squatting on the json name makes the second rename fail.
	if err := os.Mkdir(filepath.Join(dir, "snap.json"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "snap.json", "keep"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := writePair(dir, "snap", []byte("png"), []byte("{}")); err == nil {
		t.Fatal("expected error")
	}
	if ok, err := exists(filepath.Join(dir, "snap.png")); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Error("png left behind without its json")
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestExtraDelay(t *testing.T) {
	t.Parallel()
	c := &Controller{cfg: DefaultConfig()}
	fallback := c.cfg.FallbackDelay

	tests := []struct {
		name   string
		wait   *time.Duration
		stable bool
		q      Quiescence
		want   time.Duration
	}{
		{"settled", nil, true, QuiescenceStable, 0},
		{"height unstable", nil, false, QuiescenceStable, fallback},
		{"dom unstable", nil, true, QuiescenceUnstable, fallback},
		{"check failed", nil, true, QuiescenceCheckFailed, fallback},
		{"explicit on settled page", WaitSeconds(5), true, QuiescenceStable, 5 * time.Second},
		{"explicit on unstable page", WaitSeconds(1), false, QuiescenceUnstable, time.Second},
		{"explicit zero", WaitSeconds(0), false, QuiescenceUnstable, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.extraDelay(Request{WaitTime: tt.wait}, tt.stable, tt.q)
			if got != tt.want {
				t.Errorf("extraDelay = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckQuiescence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		prep func(*testutil.FakeBrowser)
		want Quiescence
	}{
		{"stable", func(*testutil.FakeBrowser) {}, QuiescenceStable},
		{"mutations", func(fb *testutil.FakeBrowser) { fb.Mutations = 1 }, QuiescenceUnstable},
		{"pending requests", func(fb *testutil.FakeBrowser) { fb.RequestsBusy = true }, QuiescenceUnstable},
		{"idle probe fails", func(fb *testutil.FakeBrowser) {
			fb.EvalErrs = map[string]error{"jQuery": errors.New("no page")}
		}, QuiescenceCheckFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fb := testutil.NewFakeBrowser()
			tt.prep(fb)
			clk := testutil.NewFakeClock(time.Unix(0, 0))
			c := NewController(DefaultConfig(), fb, clk, nil)

			if got := c.checkQuiescence(context.Background()); got != tt.want {
				t.Errorf("checkQuiescence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitRequestsIdle_BoundedByTimeout(t *testing.T) {
	t.Parallel()
	fb := testutil.NewFakeBrowser()
	fb.RequestsBusy = true
	clk := testutil.NewFakeClock(time.Unix(0, 0))
	cfg := DefaultConfig()
	c := NewController(cfg, fb, clk, nil)

	idle, err := c.waitRequestsIdle(context.Background())
	if err != nil || idle {
		t.Fatalf("waitRequestsIdle = %v, %v", idle, err)
	}
	if total := clk.Total(); total < cfg.RequestIdleTimeout || total > cfg.RequestIdleTimeout+cfg.RequestIdlePoll {
		t.Errorf("waited %v, want about %v", total, cfg.RequestIdleTimeout)
	}
}

func TestWaitForStableHeight(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		heights []int
		grow    int
		want    bool
	}{
		{"immediately stable", []int{900}, 0, true},
		{"settles after growth", []int{900, 1200, 1500, 1500}, 0, true},
		{"never settles", []int{1000}, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fb := testutil.NewFakeBrowser()
			fb.ScrollHeights = tt.heights
			fb.GrowBy = tt.grow
			clk := testutil.NewFakeClock(time.Unix(0, 0))
			c := NewController(DefaultConfig(), fb, clk, nil)

			got, err := c.waitForStableHeight(context.Background())
			if err != nil {
				t.Fatalf("waitForStableHeight: %v", err)
			}
			if got != tt.want {
				t.Errorf("stable = %v, want %v", got, tt.want)
			}
			if got && !clk.Slept(DefaultConfig().StabilityConfirm) {
				t.Error("confirmation pause not slept")
			}
		})
	}
}

func TestProgressiveScroll_StepsThroughPage(t *testing.T) {
	t.Parallel()
	fb := testutil.NewFakeBrowser()
	clk := testutil.NewFakeClock(time.Unix(0, 0))
	c := NewController(DefaultConfig(), fb, clk, nil)

	passes, err := c.progressiveScroll(context.Background())
	if err != nil {
		t.Fatalf("progressiveScroll: %v", err)
	}
	if passes != 1 {
		t.Errorf("passes = %d, want 1", passes)
	}

	var fractions []string
	for _, s := range fb.Scripts {
		if strings.HasPrefix(s, "window.scrollTo(0, document.body.scrollHeight") {
			fractions = append(fractions, s)
		}
	}
	if len(fractions) != 10 {
		t.Fatalf("scroll steps = %d, want 10", len(fractions))
	}
	if fractions[0] != scrollToFractionJS(0.1) || fractions[9] != scrollToFractionJS(1) {
		t.Errorf("unexpected steps: first %q last %q", fractions[0], fractions[9])
	}
	if last := fb.Scripts[len(fb.Scripts)-1]; last != scrollTopJS {
		t.Errorf("did not return to top, last script %q", last)
	}
	if !clk.Slept(DefaultConfig().ScrollSettle) {
		t.Error("settle pause after reaching bottom not slept")
	}
}

func TestErrorIs(t *testing.T) {
	t.Parallel()
	cause := errors.New("socket closed")
	generic := &Error{State: StateCapturing, Err: cause}
	timeout := &Error{State: StateNavigating, Err: fmt.Errorf("load: %w", ErrNavigationTimeout)}

	if !errors.Is(generic, ErrCaptureFailed) || !errors.Is(generic, cause) {
		t.Error("generic failure should match ErrCaptureFailed and its cause")
	}
	if errors.Is(timeout, ErrCaptureFailed) || !errors.Is(timeout, ErrNavigationTimeout) {
		t.Error("timeout should match only ErrNavigationTimeout")
	}
	if !strings.Contains(generic.Error(), "capturing") {
		t.Errorf("error message lacks state: %q", generic.Error())
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()
	if StateScrollingForLazyLoad.String() != "scrolling_for_lazy_load" {
		t.Errorf("got %q", StateScrollingForLazyLoad.String())
	}
	if State(99).String() != "State(99)" {
		t.Errorf("got %q", State(99).String())
	}
	for s := StateIdle; s <= StateFailed; s++ {
		if s.Terminal() != (s == StateDone || s == StateFailed) {
			t.Errorf("%v.Terminal() = %v", s, s.Terminal())
		}
	}
}

func TestTextValuesRoundTrip(t *testing.T) {
	t.Parallel()
	for s := StateIdle; s <= StateFailed; s++ {
		b, err := s.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got State
		if err := got.UnmarshalText(b); err != nil || got != s {
			t.Errorf("state %v: got %v, %v", s, got, err)
		}
	}
	var bad State
	if err := bad.UnmarshalText([]byte("sleeping")); err == nil {
		t.Error("expected error for unknown state")
	}

	in := Result{Stem: "snap", Quiescence: QuiescenceUnstable}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Result
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Quiescence != QuiescenceUnstable || out.Stem != "snap" {
		t.Errorf("round trip = %+v", out)
	}

	ev := Event{State: StateWaitingForImages, At: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	data, err = json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var evOut Event
	if err := json.Unmarshal(data, &evOut); err != nil || evOut.State != StateWaitingForImages {
		t.Errorf("event round trip = %+v, %v", evOut, err)
	}

	var q Quiescence
	if err := q.UnmarshalText([]byte("calm")); err == nil {
		t.Error("expected error for unknown quiescence")
	}
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()
	neg := -time.Second
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"ok", Request{URL: "https://example.com", OutputDir: "out"}, false},
		{"ok with wait", Request{URL: "http://localhost:8080/x", OutputDir: "out", WaitTime: WaitSeconds(3)}, false},
		{"empty url", Request{OutputDir: "out"}, true},
		{"relative url", Request{URL: "example.com/page", OutputDir: "out"}, true},
		{"file url", Request{URL: "file:///tmp/page.html", OutputDir: "out"}, false},
		{"mailto", Request{URL: "mailto:someone@example.com", OutputDir: "out"}, true},
		{"javascript", Request{URL: "javascript:alert(1)", OutputDir: "out"}, true},
		{"http without host", Request{URL: "http:///path", OutputDir: "out"}, true},
		{"no output dir", Request{URL: "https://example.com"}, true},
		{"negative wait", Request{URL: "https://example.com", OutputDir: "out", WaitTime: &neg}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetadataEncode(t *testing.T) {
	t.Parallel()
	m := Metadata{
		URL:        "https://example.com/?a=1&b=2",
		Timestamp:  "20240101_120000",
		Dimensions: Dimensions{Width: 10, Height: 20},
		Metadata:   PageMetadata{Title: "Ünïcode <title>", URL: "https://example.com/", UserAgent: "UA"},
	}
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{
  "url": "https://example.com/?a=1&b=2",
  "timestamp": "20240101_120000",
  "dimensions": {
    "width": 10,
    "height": 20
  },
  "metadata": {
    "title": "Ünïcode <title>",
    "url": "https://example.com/",
    "user_agent": "UA"
  }
}`
	if string(data) != want {
		t.Errorf("Encode mismatch:\n got: %s\nwant: %s", data, want)
	}
}
