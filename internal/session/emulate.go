package session

import (
	"context"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/Problematy/goodmap-e2e-tests/internal/devices"
)

// applyProfile configures viewport, touch and user agent on the tab so
// the application identifies the emulated device before any script runs.
func applyProfile(ctx context.Context, p devices.Profile) error {
	actions := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(p.Viewport.Width, p.Viewport.Height, 1, p.Mobile),
	}
	if p.HasTouch {
		actions = append(actions,
			emulation.SetTouchEmulationEnabled(true).WithMaxTouchPoints(5))
	}
	if ua := userAgentOverride(p); ua != nil {
		actions = append(actions, ua)
	}
	return chromedp.Run(ctx, actions...)
}

// userAgentOverride builds the UA override with platform metadata so
// client-hint readers agree with the UA string. Nil when the profile
// keeps the browser's own user agent.
func userAgentOverride(p devices.Profile) *emulation.SetUserAgentOverrideParams {
	if p.UserAgent == "" {
		return nil
	}
	return emulation.SetUserAgentOverride(p.UserAgent).
		WithAcceptLanguage("en-US,en").
		WithPlatform(jsPlatform(p.UserAgent)).
		WithUserAgentMetadata(&emulation.UserAgentMetadata{
			Platform: metadataPlatform(p.UserAgent),
			Mobile:   p.Mobile,
		})
}

func jsPlatform(ua string) string {
	switch {
	case strings.Contains(ua, "iPhone"):
		return "iPhone"
	case strings.Contains(ua, "iPad"):
		return "iPad"
	case strings.Contains(ua, "Android"):
		return "Linux armv8l"
	default:
		return "Linux x86_64"
	}
}

func metadataPlatform(ua string) string {
	switch {
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	default:
		return "Linux"
	}
}
