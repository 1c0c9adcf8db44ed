//go:build e2e

package e2e

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Problematy/goodmap-e2e-tests/internal/session"
)

// The three buttons whose state depends on the geolocation permission.
var locationButtons = []struct {
	name     string
	selector string
}{
	{"location-target", `[aria-label*="Location target"]`},
	{"suggest-new-point", `[data-testid="suggest-new-point"]`},
	{"list-view", "#listViewButton"},
}

// Without the permission every location-dependent button renders grayed
// out: reduced opacity with a grayscale filter.
func TestLocationButtonsGrayedWithoutPermission(t *testing.T) {
	s := newSession(t)
	navigateHome(t, s)
	if err := s.WaitVisible(locationButtons[0].selector, cfg.MapLoadTimeout); err != nil {
		t.Fatal(err)
	}

	for _, btn := range locationButtons {
		waitCSSValue(t, s, btn.selector, "opacity", "0.6", cfg.TableLoadTimeout)
		if filter := cssValue(t, s, btn.selector, "filter"); filter != "grayscale(1)" {
			t.Errorf("%s filter = %q, want grayscale(1)", btn.name, filter)
		}
	}
}

// With the permission granted before load, the buttons come up active.
func TestLocationButtonsActiveWhenGranted(t *testing.T) {
	s := newSession(t)
	if err := s.Geolocation.Grant(t.Context()); err != nil {
		t.Fatal(err)
	}
	if err := s.Geolocation.Set(s.Ctx, wroclawLat, wroclawLon); err != nil {
		t.Fatal(err)
	}
	navigateHome(t, s)
	if err := s.WaitVisible(locationButtons[0].selector, cfg.MapLoadTimeout); err != nil {
		t.Fatal(err)
	}

	for _, btn := range locationButtons {
		waitCSSValue(t, s, btn.selector, "opacity", "1", cfg.TableLoadTimeout)
		if filter := cssValue(t, s, btn.selector, "filter"); filter != "none" {
			t.Errorf("%s filter = %q, want none", btn.name, filter)
		}
	}
}

// hoverOver dispatches the pointer events a tooltip listener expects.
func hoverOver(t *testing.T, s *session.Session, selector string) {
	t.Helper()
	var hovered bool
	evaluate(t, s, fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		for (const type of ['pointerover', 'mouseover', 'mouseenter']) {
			el.dispatchEvent(new MouseEvent(type, {bubbles: type !== 'mouseenter'}));
		}
		return true;
	})()`, selector), &hovered)
	if !hovered {
		t.Fatalf("no element matches %q", selector)
	}
}

func TestDisabledButtonsShowTooltipOnHover(t *testing.T) {
	s := newSession(t)
	navigateHome(t, s)
	if err := s.WaitVisible(locationButtons[0].selector, cfg.MapLoadTimeout); err != nil {
		t.Fatal(err)
	}

	for _, btn := range locationButtons {
		t.Run(btn.name, func(t *testing.T) {
			hoverOver(t, s, btn.selector)
			if err := s.WaitVisible(`[role="tooltip"]`, cfg.TableLoadTimeout); err != nil {
				t.Fatal(err)
			}
			var tip string
			evaluate(t, s, `document.querySelector('[role="tooltip"]').textContent`, &tip)
			if !strings.Contains(tip, "Location services are disabled") {
				t.Fatalf("tooltip %q, want the disabled-location message", tip)
			}
			// Move away so the next button's tooltip can appear.
			jsClick(t, s, "body")
			waitNotVisible(t, s, `[role="tooltip"]`, cfg.TableLoadTimeout)
		})
	}
}

// On touch devices the tooltip appears directly on tap.
func TestDisabledButtonsShowTooltipOnTap(t *testing.T) {
	s := newMobileSession(t, "iphone-6")
	navigateHome(t, s)
	if err := s.WaitVisible("#listViewButton", cfg.MapLoadTimeout); err != nil {
		t.Fatal(err)
	}

	jsClick(t, s, "#listViewButton")
	if err := s.WaitVisible(`[role="tooltip"]`, cfg.TableLoadTimeout); err != nil {
		t.Fatal(err)
	}
	var tip string
	evaluate(t, s, `document.querySelector('[role="tooltip"]').textContent`, &tip)
	if !strings.Contains(tip, "Location services are disabled") {
		t.Fatalf("tooltip %q, want the disabled-location message", tip)
	}
}
