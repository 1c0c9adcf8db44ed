// Package mocks installs deterministic stand-ins for environment-dependent
// browser APIs. Scripted mocks run via Page.addScriptToEvaluateOnNewDocument
// so they are in place before any page script executes and the original
// capability can never leak into the application.
package mocks

import (
	"context"

	"github.com/chromedp/cdproto/browser"
	cdp "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// windowOpenScript replaces window.open with a recorder. Captured URLs
// live in an in-page array for the lifetime of the page.
const windowOpenScript = `(() => {
	window.__openedUrls = [];
	window.open = function(url, target, features) {
		window.__openedUrls.push(String(url));
		return null;
	};
})();`

// shareScript replaces navigator.share with a recorder that resolves
// immediately as successful.
const shareScript = `(() => {
	window.__shareCalls = [];
	navigator.share = (data) => {
		window.__shareCalls.push(data);
		return Promise.resolve();
	};
})();`

func addInitScript(ctx context.Context, script string) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		return err
	}))
}

// WindowOpen captures every URL the page tries to open in a new browsing
// target instead of navigating.
type WindowOpen struct{}

// InstallWindowOpen registers the window.open recorder. Call before the
// first navigation.
func InstallWindowOpen(ctx context.Context) (*WindowOpen, error) {
	if err := addInitScript(ctx, windowOpenScript); err != nil {
		return nil, err
	}
	return &WindowOpen{}, nil
}

// Opened returns a snapshot of the captured URLs, empty when window.open
// was never invoked.
func (*WindowOpen) Opened(ctx context.Context) ([]string, error) {
	urls := []string{}
	err := chromedp.Run(ctx, chromedp.Evaluate(
		`window.__openedUrls ? window.__openedUrls.slice() : []`, &urls))
	return urls, err
}

// SharePayload is one navigator.share invocation.
type SharePayload struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Share captures navigator.share payloads.
type Share struct{}

// InstallShare registers the navigator.share recorder. Call before the
// first navigation.
func InstallShare(ctx context.Context) (*Share, error) {
	if err := addInitScript(ctx, shareScript); err != nil {
		return nil, err
	}
	return &Share{}, nil
}

// Calls returns a snapshot of the captured payloads in invocation order.
func (*Share) Calls(ctx context.Context) ([]SharePayload, error) {
	calls := []SharePayload{}
	err := chromedp.Run(ctx, chromedp.Evaluate(
		`window.__shareCalls ? window.__shareCalls.slice() : []`, &calls))
	return calls, err
}

// Geolocation drives the simulated device position for one browsing
// context. Until Grant is called the application observes geolocation as
// denied, which is itself a testable state.
type Geolocation struct {
	browserContextID cdp.BrowserContextID
}

// NewGeolocation binds the mock to the session's isolated browser context.
func NewGeolocation(browserContextID cdp.BrowserContextID) *Geolocation {
	return &Geolocation{browserContextID: browserContextID}
}

// Grant allows the geolocation permission for the whole browsing context.
func (g *Geolocation) Grant(ctx context.Context) error {
	c := chromedp.FromContext(ctx)
	return browser.GrantPermissions([]browser.PermissionType{browser.PermissionTypeGeolocation}).
		WithBrowserContextID(g.browserContextID).
		Do(cdp.WithExecutor(ctx, c.Browser))
}

// Set moves the simulated position instantly; the next position query by
// the page observes exactly these coordinates.
func (g *Geolocation) Set(ctx context.Context, lat, lon float64) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetGeolocationOverride().
			WithLatitude(lat).
			WithLongitude(lon).
			WithAccuracy(1).
			Do(ctx)
	}))
}
