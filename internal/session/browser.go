// Package session provisions isolated browser sessions for scenarios: one
// CDP browser context + one page per test, device emulation applied,
// interception and capability mocks installed before any navigation.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Problematy/goodmap-e2e-tests/internal/cache"
	"github.com/Problematy/goodmap-e2e-tests/internal/config"
)

const browserStartTimeout = 20 * time.Second

// Browser owns the Chrome process (or remote connection) shared by all
// sessions of one harness run. Sessions stay isolated from each other via
// per-session browser contexts; the process itself is shared.
type Browser struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	cfg    *config.Config
	bundle []byte
}

// Launch starts Chrome (or attaches to CDP_URL) and populates the bundle
// cache. A failed bundle fetch aborts the launch: proceeding without the
// artifact would give every scenario a broken page.
func Launch(ctx context.Context, cfg *config.Config) (*Browser, error) {
	b := &Browser{cfg: cfg}

	if cfg.BundleURL != "" {
		bundle, err := cache.New(cfg.ResponseTimeout).Ensure(ctx, cfg.BundleURL, cfg.BundleCachePath)
		if err != nil {
			return nil, fmt.Errorf("prepare bundle cache: %w", err)
		}
		b.bundle = bundle
	}

	if cfg.CdpURL != "" {
		slog.Info("connecting to Chrome", "url", cfg.CdpURL)
		b.allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.CdpURL)
	} else {
		slog.Info("launching Chrome", "headless", cfg.Headless)
		b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(ctx, buildChromeOpts(cfg)...)
	}

	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	startCtx, startDone := context.WithTimeout(b.browserCtx, browserStartTimeout)
	defer startDone()
	if err := chromedp.Run(startCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return b, nil
}

func buildChromeOpts(cfg *config.Config) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.WindowSize(1280, 800),
	}

	if cfg.ChromeBinary != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromeBinary))
	}
	if cfg.ChromeExtraFlags != "" {
		for _, f := range strings.Fields(cfg.ChromeExtraFlags) {
			if k, v, ok := strings.Cut(f, "="); ok {
				opts = append(opts, chromedp.Flag(strings.TrimLeft(k, "-"), v))
			} else {
				opts = append(opts, chromedp.Flag(strings.TrimLeft(f, "-"), true))
			}
		}
	}

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	return opts
}

// Bundle returns the cached build artifact, nil when BundleURL is unset.
func (b *Browser) Bundle() []byte { return b.bundle }

// Config returns the harness configuration the browser was launched with.
func (b *Browser) Config() *config.Config { return b.cfg }

// Close tears down the browser and allocator. Safe to call after a failed
// launch.
func (b *Browser) Close() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}
