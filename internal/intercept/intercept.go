// Package intercept routes a page's outbound requests through ordered
// serve/abort rules using the CDP Fetch domain. The standard rule set
// replays the cached application bundle and kills dev-server live-update
// traffic so hot reloads can never refresh a page mid-test.
package intercept

import (
	"context"
	"encoding/base64"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	cdp "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Action says what to do with a matched request.
type Action int

const (
	// ActionServe fulfills the request from a cached body, status 200.
	ActionServe Action = iota
	// ActionAbort terminates the request without a response.
	ActionAbort
)

// Rule pairs a URL glob pattern with an action. Patterns use
// Playwright-style globs: `*` matches within a path segment, `**` across
// segments, `?` one rune.
type Rule struct {
	Pattern     string
	Action      Action
	Body        []byte
	ContentType string

	re *regexp.Regexp
}

// Serve builds a rule replaying body for every URL matching pattern.
func Serve(pattern string, body []byte, contentType string) Rule {
	return Rule{Pattern: pattern, Action: ActionServe, Body: body, ContentType: contentType}
}

// Abort builds a rule failing every URL matching pattern.
func Abort(pattern string) Rule {
	return Rule{Pattern: pattern, Action: ActionAbort}
}

// Match reports whether url matches the glob pattern.
func Match(pattern, url string) bool {
	re, err := compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(url)
}

func compile(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// Policy is one page's installed rule set. Rules apply in order; the
// first match wins. SetRules swaps the whole set, so installing twice on
// the same page means the last set wins.
type Policy struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewPolicy compiles rules into a policy. Rules with invalid patterns are
// dropped with a warning rather than failing the session.
func NewPolicy(rules []Rule) *Policy {
	p := &Policy{}
	p.SetRules(rules)
	return p
}

// SetRules replaces the active rule set.
func (p *Policy) SetRules(rules []Rule) {
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		re, err := compile(r.Pattern)
		if err != nil {
			slog.Warn("invalid interception pattern, skipping", "pattern", r.Pattern, "err", err)
			continue
		}
		r.re = re
		compiled = append(compiled, r)
	}
	p.mu.Lock()
	p.rules = compiled
	p.mu.Unlock()
}

func (p *Policy) match(url string) (Rule, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, r := range p.rules {
		if r.re.MatchString(url) {
			return r, true
		}
	}
	return Rule{}, false
}

// Install registers the paused-request listener on the tab context and
// enables the Fetch domain. Must run before the first navigation so the
// application never observes the un-intercepted network.
func (p *Policy) Install(ctx context.Context) error {
	c := chromedp.FromContext(ctx)
	ectx := cdp.WithExecutor(ctx, c.Target)

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*fetch.EventRequestPaused); ok {
			go p.handle(ectx, e)
		}
	})

	return chromedp.Run(ctx, fetch.Enable().WithPatterns([]*fetch.RequestPattern{
		{URLPattern: "*", RequestStage: fetch.RequestStageRequest},
	}))
}

func (p *Policy) handle(ectx context.Context, ev *fetch.EventRequestPaused) {
	url := ev.Request.URL
	rule, ok := p.match(url)
	if !ok {
		if err := fetch.ContinueRequest(ev.RequestID).Do(ectx); err != nil {
			slog.Debug("continue request", "url", url, "err", err)
		}
		return
	}

	switch rule.Action {
	case ActionServe:
		err := fetch.FulfillRequest(ev.RequestID, 200).
			WithResponseHeaders([]*fetch.HeaderEntry{
				{Name: "Content-Type", Value: rule.ContentType},
			}).
			WithBody(base64.StdEncoding.EncodeToString(rule.Body)).
			Do(ectx)
		if err != nil {
			slog.Debug("fulfill request", "url", url, "err", err)
			return
		}
		slog.Debug("request served from cache", "url", url, "bytes", len(rule.Body))
	case ActionAbort:
		if err := fetch.FailRequest(ev.RequestID, network.ErrorReasonAborted).Do(ectx); err != nil {
			slog.Debug("fail request", "url", url, "err", err)
			return
		}
		slog.Debug("request aborted", "url", url)
	}
}

// LiveUpdateRules blocks the dev server's websocket channel and
// incremental hot-update assets.
func LiveUpdateRules() []Rule {
	return []Rule{
		Abort("**/ws"),
		Abort("**/*.hot-update.*"),
	}
}

// StandardRules serves the cached bundle for its exact URL and blocks
// live-update traffic.
func StandardRules(bundleURL string, bundle []byte, contentType string) []Rule {
	rules := []Rule{Serve(bundleURL, bundle, contentType)}
	return append(rules, LiveUpdateRules()...)
}
