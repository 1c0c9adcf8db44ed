package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cdp "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrWaitTimeout tags every bounded wait failure so callers can tell a
// timeout from a protocol error.
var ErrWaitTimeout = errors.New("wait timeout")

// Navigate fires Page.navigate and polls document.readyState instead of
// waiting for the full load event, which hangs on single-page apps.
func (s *Session) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.Ctx, s.browser.cfg.NavigateTimeout)
	defer cancel()

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, _, err := page.Navigate(url).Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("navigate %s: %w", url, ErrWaitTimeout)
		case <-ticker.C:
			var state string
			err := chromedp.Run(ctx, chromedp.Evaluate("document.readyState", &state))
			if err == nil && (state == "interactive" || state == "complete") {
				return nil
			}
		}
	}
}

// WaitVisible blocks until the selector matches a visible element or the
// timeout elapses.
func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.Ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("element %q not visible within %s: %w", selector, timeout, ErrWaitTimeout)
		}
		return fmt.Errorf("wait visible %q: %w", selector, err)
	}
	return nil
}

// ResponseInfo is one observed network response.
type ResponseInfo struct {
	URL       string
	Status    int64
	requestID network.RequestID
	session   *Session
}

// Body fetches the response body from the browser's network stack.
func (r *ResponseInfo) Body() ([]byte, error) {
	c := chromedp.FromContext(r.session.Ctx)
	body, err := network.GetResponseBody(r.requestID).Do(cdp.WithExecutor(r.session.Ctx, c.Target))
	if err != nil {
		return nil, fmt.Errorf("response body %s: %w", r.URL, err)
	}
	return body, nil
}

// ResponseWait is an armed listener for a matching network response.
// Arm it with ExpectResponse before triggering the action, then Wait.
type ResponseWait struct {
	ch      chan *ResponseInfo
	substr  string
	timeout time.Duration
	cancel  context.CancelFunc
}

// ExpectResponse starts listening for the next finished response whose
// URL contains substr.
func (s *Session) ExpectResponse(substr string, timeout time.Duration) *ResponseWait {
	lctx, lcancel := context.WithCancel(s.Ctx)
	w := &ResponseWait{
		ch:      make(chan *ResponseInfo, 1),
		substr:  substr,
		timeout: timeout,
		cancel:  lcancel,
	}

	chromedp.ListenTarget(lctx, func(ev interface{}) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || !strings.Contains(e.Response.URL, substr) {
			return
		}
		select {
		case w.ch <- &ResponseInfo{
			URL:       e.Response.URL,
			Status:    int64(e.Response.Status),
			requestID: e.RequestID,
			session:   s,
		}:
		default:
		}
		lcancel()
	})
	return w
}

// Wait blocks for the matching response; fails with ErrWaitTimeout when
// the bound elapses first.
func (w *ResponseWait) Wait() (*ResponseInfo, error) {
	defer w.cancel()
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case info := <-w.ch:
		return info, nil
	case <-timer.C:
		return nil, fmt.Errorf("no response matching %q within %s: %w", w.substr, w.timeout, ErrWaitTimeout)
	}
}

// markerSelector matches both plain markers and cluster icons.
const markerSelector = ".leaflet-marker-icon, .leaflet-marker-cluster"

// CountMarkers samples how many markers and clusters the map currently
// shows. Shaped as a perf.CountFunc for the stabilization loop;
// cancelling ctx interrupts an in-flight sample.
func (s *Session) CountMarkers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	runCtx, cancel := context.WithCancel(s.Ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var n int
	err := chromedp.Run(runCtx, chromedp.Evaluate(
		fmt.Sprintf("document.querySelectorAll(%q).length", markerSelector), &n))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("count markers: %w", err)
	}
	return n, nil
}
