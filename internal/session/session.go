package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cdp "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/Problematy/goodmap-e2e-tests/internal/cache"
	"github.com/Problematy/goodmap-e2e-tests/internal/devices"
	"github.com/Problematy/goodmap-e2e-tests/internal/intercept"
	"github.com/Problematy/goodmap-e2e-tests/internal/mocks"
)

// Session is one scenario's exclusively-owned browsing context and page.
// The creating scenario must call Close on every exit path; nothing else
// may share the session.
type Session struct {
	// Ctx drives every chromedp interaction with the session's page.
	Ctx     context.Context
	Profile devices.Profile

	Geolocation *mocks.Geolocation
	WindowOpen  *mocks.WindowOpen
	Share       *mocks.Share
	Policy      *intercept.Policy

	browser          *Browser
	cancel           context.CancelFunc
	browserContextID cdp.BrowserContextID
	targetID         target.ID
	closeOnce        sync.Once
}

// NewSession creates an isolated session emulating the named device
// profile. Fails with *devices.UnknownDeviceError for names outside the
// table.
func (b *Browser) NewSession(ctx context.Context, profileName string) (*Session, error) {
	profile, err := devices.Lookup(profileName)
	if err != nil {
		return nil, err
	}
	return b.newSession(ctx, profile)
}

// NewDefaultSession creates a desktop session: fixed 1280x800 viewport,
// browser's own user agent, no touch.
func (b *Browser) NewDefaultSession(ctx context.Context) (*Session, error) {
	return b.newSession(ctx, devices.Desktop)
}

func (b *Browser) newSession(ctx context.Context, profile devices.Profile) (*Session, error) {
	bexec := cdp.WithExecutor(b.browserCtx, chromedp.FromContext(b.browserCtx).Browser)

	bctxID, err := target.CreateBrowserContext().Do(bexec)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	tid, err := target.CreateTarget("about:blank").WithBrowserContextID(bctxID).Do(bexec)
	if err != nil {
		_ = target.DisposeBrowserContext(bctxID).Do(bexec)
		return nil, fmt.Errorf("create target: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx, chromedp.WithTargetID(tid))

	s := &Session{
		Ctx:              tabCtx,
		Profile:          profile,
		browser:          b,
		cancel:           tabCancel,
		browserContextID: bctxID,
		targetID:         tid,
	}

	if err := s.setup(); err != nil {
		s.Close()
		return nil, err
	}
	slog.Debug("session ready", "profile", profile.Name, "target", string(tid))
	return s, nil
}

// setup attaches to the target and applies, in order: device emulation,
// network events, interception rules, capability mocks. Interception and
// mocks must land before the first navigation.
func (s *Session) setup() error {
	if err := chromedp.Run(s.Ctx); err != nil {
		return fmt.Errorf("attach target: %w", err)
	}

	if err := applyProfile(s.Ctx, s.Profile); err != nil {
		return fmt.Errorf("apply device profile %s: %w", s.Profile.Name, err)
	}

	if err := chromedp.Run(s.Ctx, network.Enable()); err != nil {
		return fmt.Errorf("enable network events: %w", err)
	}

	cfg := s.browser.cfg
	var rules []intercept.Rule
	if cfg.BundleURL != "" && s.browser.bundle != nil {
		rules = intercept.StandardRules(cfg.BundleURL, s.browser.bundle, cache.ContentType)
	} else {
		rules = intercept.LiveUpdateRules()
	}
	s.Policy = intercept.NewPolicy(rules)
	if err := s.Policy.Install(s.Ctx); err != nil {
		return fmt.Errorf("install interception: %w", err)
	}

	wo, err := mocks.InstallWindowOpen(s.Ctx)
	if err != nil {
		return fmt.Errorf("install window.open mock: %w", err)
	}
	s.WindowOpen = wo

	share, err := mocks.InstallShare(s.Ctx)
	if err != nil {
		return fmt.Errorf("install share mock: %w", err)
	}
	s.Share = share

	s.Geolocation = mocks.NewGeolocation(s.browserContextID)
	return nil
}

// Close releases the page and its browsing context. Idempotent; runs the
// full teardown even when the scenario failed mid-flight.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()

		b := s.browser
		closeCtx, done := context.WithTimeout(b.browserCtx, 5*time.Second)
		defer done()
		bexec := cdp.WithExecutor(closeCtx, chromedp.FromContext(b.browserCtx).Browser)

		if err := target.CloseTarget(s.targetID).Do(bexec); err != nil {
			slog.Debug("close target", "target", string(s.targetID), "err", err)
		}
		if err := target.DisposeBrowserContext(s.browserContextID).Do(bexec); err != nil {
			slog.Debug("dispose browser context", "err", err)
		}
	})
}
