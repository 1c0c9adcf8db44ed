//go:build e2e

package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/Problematy/goodmap-e2e-tests/internal/session"
)

// popupSelector scopes popup assertions so text elsewhere on the page
// cannot produce false positives. Matches both frontend generations.
const popupSelector = ".leaflet-popup-content, .MuiDialogContent-root"

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := testBrowser.NewDefaultSession(t.Context())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func newMobileSession(t *testing.T, device string) *session.Session {
	t.Helper()
	s, err := testBrowser.NewSession(t.Context(), device)
	if err != nil {
		t.Fatalf("create %s session: %v", device, err)
	}
	t.Cleanup(s.Close)
	return s
}

func navigateHome(t *testing.T, s *session.Session) {
	t.Helper()
	if err := s.Navigate(cfg.BaseURL); err != nil {
		t.Fatalf("navigate home: %v", err)
	}
}

// evaluate runs an expression on the session's page and decodes the
// result into out.
func evaluate(t *testing.T, s *session.Session, expr string, out any) {
	t.Helper()
	if err := chromedp.Run(s.Ctx, chromedp.Evaluate(expr, out)); err != nil {
		t.Fatalf("evaluate %q: %v", expr, err)
	}
}

// evaluatePromise is evaluate for promise-returning expressions: the
// browser resolves the promise before the value comes back.
func evaluatePromise(t *testing.T, s *session.Session, expr string, out any) {
	t.Helper()
	err := chromedp.Run(s.Ctx, chromedp.Evaluate(expr, out,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		t.Fatalf("evaluate %q: %v", expr, err)
	}
}

// jsClick dispatches a click directly on the first element matching the
// selector. Coordinate clicks can be intercepted by dev-server overlays
// on CI, so popup interactions go through the DOM instead.
func jsClick(t *testing.T, s *session.Session, selector string) {
	t.Helper()
	var clicked bool
	evaluate(t, s, fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.click();
		return true;
	})()`, selector), &clicked)
	if !clicked {
		t.Fatalf("no element matches %q", selector)
	}
}

// clickRightmostMarker clicks the marker with the greatest x coordinate.
// Workaround for selecting a specific marker: markers carry no stable
// test ids, so position is the only discriminator.
func clickRightmostMarker(t *testing.T, s *session.Session) {
	t.Helper()
	var clicked bool
	evaluate(t, s, `(() => {
		const markers = document.querySelectorAll('.leaflet-marker-icon, .leaflet-marker-cluster');
		let rightmost = null;
		let maxX = -Infinity;
		markers.forEach(m => {
			const rect = m.getBoundingClientRect();
			if (rect.x > maxX) {
				maxX = rect.x;
				rightmost = m;
			}
		});
		if (!rightmost) return false;
		rightmost.click();
		return true;
	})()`, &clicked)
	if !clicked {
		t.Fatal("no marker found to click")
	}
}

// waitMarkerCount polls until exactly n markers are visible.
func waitMarkerCount(t *testing.T, s *session.Session, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		count, err := s.CountMarkers(t.Context())
		if err != nil {
			t.Fatalf("count markers: %v", err)
		}
		if count == n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("marker count = %d, want %d within %s", count, n, timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// cssValue returns a computed style property of the first match, or ""
// when nothing matches.
func cssValue(t *testing.T, s *session.Session, selector, prop string) string {
	t.Helper()
	var v string
	evaluate(t, s, fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? getComputedStyle(el).getPropertyValue(%q) : "";
	})()`, selector, prop), &v)
	return v
}

// waitCSSValue polls until the computed property reaches want. Styles
// settle asynchronously after permission and state changes.
func waitCSSValue(t *testing.T, s *session.Session, selector, prop, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		got := cssValue(t, s, selector, prop)
		if got == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s of %q = %q, want %q within %s", prop, selector, got, want, timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

type domRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// rectOf returns the bounding client rect of the first match.
func rectOf(t *testing.T, s *session.Session, selector string) domRect {
	t.Helper()
	var found bool
	evaluate(t, s, fmt.Sprintf("!!document.querySelector(%q)", selector), &found)
	if !found {
		t.Fatalf("no element matches %q", selector)
	}
	var r domRect
	evaluate(t, s, fmt.Sprintf(`(() => {
		const b = document.querySelector(%q).getBoundingClientRect();
		return {x: b.x, y: b.y, width: b.width, height: b.height};
	})()`, selector), &r)
	return r
}

// isVisible reports whether the first match is actually rendered.
func isVisible(t *testing.T, s *session.Session, selector string) bool {
	t.Helper()
	var visible bool
	evaluate(t, s, fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		const style = getComputedStyle(el);
		if (style.display === "none" || style.visibility === "hidden") return false;
		const b = el.getBoundingClientRect();
		return b.width > 0 && b.height > 0;
	})()`, selector), &visible)
	return visible
}

// waitNotVisible polls until the selector no longer matches a rendered
// element; dialogs animate out instead of disappearing instantly.
func waitNotVisible(t *testing.T, s *session.Session, selector string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for isVisible(t, s, selector) {
		if time.Now().After(deadline) {
			t.Fatalf("%q still visible after %s", selector, timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// popupText returns the popup's full text content.
func popupText(t *testing.T, s *session.Session) string {
	t.Helper()
	var text string
	evaluate(t, s, fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? el.textContent : "";
	})()`, popupSelector), &text)
	return text
}
