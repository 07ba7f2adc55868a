// File: internal/page/page.go
package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/uiharness/internal/browser"
)

// Page is the base page object. Concrete pages embed it, declare their
// locators, and expose intent-level methods on top of the primitives here.
// A Page borrows its session; it never opens or closes one.
type Page struct {
	session *browser.Session
	path    string
	logger  *zap.Logger
}

// New binds a page object to a session and a path relative to the configured
// base URL.
func New(session *browser.Session, path string) *Page {
	return &Page{
		session: session,
		path:    path,
		logger:  session.Logger().Named("page"),
	}
}

// Session returns the underlying browser session.
func (p *Page) Session() *browser.Session { return p.session }

// Path returns the page's path relative to the base URL.
func (p *Page) Path() string { return p.path }

// URL resolves the page's absolute URL against the configured base URL.
func (p *Page) URL() (string, error) {
	return resolvePageURL(p.session.Config().Target.BaseURL, p.path)
}

// resolvePageURL joins a base URL and a page path. An empty path yields the
// base URL itself.
func resolvePageURL(base, path string) (string, error) {
	u, err := url.JoinPath(base, path)
	if err != nil {
		return "", fmt.Errorf("resolving page url from base %q and path %q: %w", base, path, err)
	}
	return u, nil
}

// Open navigates the session to this page's URL.
func (p *Page) Open(ctx context.Context) error {
	u, err := p.URL()
	if err != nil {
		return err
	}
	return p.session.Navigate(ctx, u)
}

// waits returns the configured wait budgets.
func (p *Page) waits() (explicit, poll time.Duration) {
	w := p.session.Config().Waits
	return w.Explicit, w.PollInterval
}

// waitFor runs a blocking chromedp wait action under the explicit wait
// budget, converting a timeout into an ElementNotFoundError.
func (p *Page) waitFor(ctx context.Context, loc Locator, condition string, action chromedp.Action) error {
	explicit, _ := p.waits()
	waitCtx, cancel := context.WithTimeout(ctx, explicit)
	defer cancel()

	p.logger.Debug("Waiting for element.",
		zap.Stringer("locator", loc),
		zap.String("condition", condition),
		zap.Duration("budget", explicit),
	)
	if err := p.session.RunActions(waitCtx, action); err != nil {
		return waitError(err, waitCtx, loc, explicit, condition)
	}
	return nil
}

// waitError classifies a failed chromedp run. The combined run context
// reports Canceled when either side ends, so the error alone cannot tell a
// timeout from a teardown; the per-call context is consulted to detect an
// expired budget.
func waitError(err error, callCtx context.Context, loc Locator, budget time.Duration, condition string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &ElementNotFoundError{Locator: loc, Timeout: budget, Err: fmt.Errorf("not %s", condition)}
	}
	return err
}

// run executes element actions under the explicit wait budget. chromedp
// query actions wait for their node, so a node removed between the wait and
// the action would otherwise block for as long as the caller's context
// lives.
func (p *Page) run(ctx context.Context, loc Locator, condition string, actions ...chromedp.Action) error {
	explicit, _ := p.waits()
	runCtx, cancel := context.WithTimeout(ctx, explicit)
	defer cancel()

	if err := p.session.RunActions(runCtx, actions...); err != nil {
		return waitError(err, runCtx, loc, explicit, condition)
	}
	return nil
}

// WaitForVisible blocks until the element is rendered and visible, within
// the explicit wait budget.
func (p *Page) WaitForVisible(ctx context.Context, loc Locator) error {
	return p.waitFor(ctx, loc, "visible", chromedp.WaitVisible(loc.Value, loc.queryOption()))
}

// WaitForPresent blocks until the element exists in the DOM, visible or not.
func (p *Page) WaitForPresent(ctx context.Context, loc Locator) error {
	return p.waitFor(ctx, loc, "present", chromedp.WaitReady(loc.Value, loc.queryOption()))
}

// Find waits for the element to be present and returns a handle bound to its
// locator.
func (p *Page) Find(ctx context.Context, loc Locator) (*Element, error) {
	if err := p.WaitForPresent(ctx, loc); err != nil {
		return nil, err
	}
	return &Element{page: p, loc: loc}, nil
}

// Click waits for the element to be visible, then clicks it.
func (p *Page) Click(ctx context.Context, loc Locator) error {
	if err := p.WaitForVisible(ctx, loc); err != nil {
		return err
	}
	p.logger.Debug("Clicking element.", zap.Stringer("locator", loc))
	return p.run(ctx, loc, "clickable", chromedp.Click(loc.Value, loc.queryOption()))
}

// TypeText waits for the element to be visible, clears any existing value,
// and types the given text.
func (p *Page) TypeText(ctx context.Context, loc Locator, text string) error {
	if err := p.WaitForVisible(ctx, loc); err != nil {
		return err
	}
	p.logger.Debug("Typing into element.", zap.Stringer("locator", loc), zap.Int("chars", len(text)))
	return p.run(ctx, loc, "editable",
		chromedp.Clear(loc.Value, loc.queryOption()),
		chromedp.SendKeys(loc.Value, text, loc.queryOption()),
	)
}

// Text waits for the element and returns its visible text content.
func (p *Page) Text(ctx context.Context, loc Locator) (string, error) {
	if err := p.WaitForVisible(ctx, loc); err != nil {
		return "", err
	}
	var text string
	if err := p.run(ctx, loc, "readable", chromedp.Text(loc.Value, &text, loc.queryOption())); err != nil {
		return "", err
	}
	return text, nil
}

// Attribute waits for the element and returns the given attribute. ok is
// false when the attribute is absent.
func (p *Page) Attribute(ctx context.Context, loc Locator, name string) (value string, ok bool, err error) {
	if err := p.WaitForPresent(ctx, loc); err != nil {
		return "", false, err
	}
	if err := p.run(ctx, loc, "present", chromedp.AttributeValue(loc.Value, name, &value, &ok, loc.queryOption())); err != nil {
		return "", false, err
	}
	return value, ok, nil
}

// IsVisible reports whether the element is currently visible, without
// waiting. Use WaitForVisible when the element may still be rendering.
func (p *Page) IsVisible(ctx context.Context, loc Locator) (bool, error) {
	var visible bool
	if err := p.session.RunActions(ctx, chromedp.Evaluate(visibilityScript(loc), &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

// WaitForText polls until the element's text contains the given substring,
// at the configured poll interval, within the explicit wait budget.
func (p *Page) WaitForText(ctx context.Context, loc Locator, substr string) error {
	explicit, poll := p.waits()
	deadline := time.Now().Add(explicit)

	for {
		attemptCtx, cancel := context.WithTimeout(ctx, poll)
		var text string
		err := p.session.RunActions(attemptCtx, chromedp.Text(loc.Value, &text, loc.queryOption()))
		cancel()
		if err == nil && strings.Contains(text, substr) {
			return nil
		}
		if err != nil && errors.Is(err, browser.ErrSessionClosed) {
			return err
		}

		if time.Now().After(deadline) {
			return &ElementNotFoundError{
				Locator: loc,
				Timeout: explicit,
				Err:     fmt.Errorf("text did not contain %q", substr),
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

// PressEnter sends the Enter key to the element, typically to submit the
// form it belongs to.
func (p *Page) PressEnter(ctx context.Context, loc Locator) error {
	if err := p.WaitForVisible(ctx, loc); err != nil {
		return err
	}
	return p.run(ctx, loc, "editable", chromedp.SendKeys(loc.Value, kb.Enter, loc.queryOption()))
}

// Texts returns the visible text of every element matching the locator,
// without waiting. Missing elements yield an empty slice, not an error.
func (p *Page) Texts(ctx context.Context, loc Locator) ([]string, error) {
	var texts []string
	if err := p.session.RunActions(ctx, chromedp.Evaluate(textsScript(loc), &texts)); err != nil {
		return nil, err
	}
	return texts, nil
}

// Count returns how many elements currently match the locator.
func (p *Page) Count(ctx context.Context, loc Locator) (int, error) {
	var count int
	if err := p.session.RunActions(ctx, chromedp.Evaluate(countScript(loc), &count)); err != nil {
		return 0, err
	}
	return count, nil
}

// ScrollTo scrolls the element into view.
func (p *Page) ScrollTo(ctx context.Context, loc Locator) error {
	if err := p.WaitForPresent(ctx, loc); err != nil {
		return err
	}
	return p.run(ctx, loc, "present", chromedp.ScrollIntoView(loc.Value, loc.queryOption()))
}

// ScrollToTop scrolls the window to the top of the document.
func (p *Page) ScrollToTop(ctx context.Context) error {
	return p.session.RunActions(ctx, chromedp.Evaluate(`window.scrollTo(0, 0)`, nil))
}

// ScrollToBottom scrolls the window to the bottom of the document.
func (p *Page) ScrollToBottom(ctx context.Context) error {
	return p.session.RunActions(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

// Title returns the current document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	return p.session.Title(ctx)
}

// CurrentURL returns the active document location.
func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	return p.session.CurrentURL(ctx)
}

// Refresh reloads the page.
func (p *Page) Refresh(ctx context.Context) error {
	return p.session.Refresh(ctx)
}

// Back navigates one history entry backwards.
func (p *Page) Back(ctx context.Context) error {
	return p.session.Back(ctx)
}

// Forward navigates one history entry forwards.
func (p *Page) Forward(ctx context.Context) error {
	return p.session.Forward(ctx)
}

// Link is an anchor extracted from the current document.
type Link struct {
	Href string
	Text string
}

// Links parses the current DOM and returns every anchor carrying an href.
func (p *Page) Links(ctx context.Context) ([]Link, error) {
	var outer string
	if err := p.session.RunActions(ctx, chromedp.OuterHTML("html", &outer, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return extractLinks(strings.NewReader(outer))
}

// extractLinks walks an HTML document and collects anchors with an href.
func extractLinks(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page html: %w", err)
	}

	var links []Link
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					links = append(links, Link{Href: attr.Val, Text: strings.TrimSpace(nodeText(n))})
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// lookupAllScript builds a JS expression yielding an array of all elements
// matching the locator.
func lookupAllScript(loc Locator) string {
	if loc.Strategy == ByXPath {
		return fmt.Sprintf(`(() => {
	const snap = document.evaluate(%q, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const els = [];
	for (let i = 0; i < snap.snapshotLength; i++) els.push(snap.snapshotItem(i));
	return els;
})()`, loc.Value)
	}
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%q))`, loc.Value)
}

func textsScript(loc Locator) string {
	return fmt.Sprintf(`%s.map(el => el.innerText.trim()).filter(t => t.length > 0)`, lookupAllScript(loc))
}

func countScript(loc Locator) string {
	return fmt.Sprintf(`%s.length`, lookupAllScript(loc))
}

// visibilityScript builds a JS expression that reports whether the first
// element matching the locator is rendered.
func visibilityScript(loc Locator) string {
	var lookup string
	if loc.Strategy == ByXPath {
		lookup = fmt.Sprintf(
			`document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			loc.Value,
		)
	} else {
		lookup = fmt.Sprintf(`document.querySelector(%q)`, loc.Value)
	}
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden') return false;
	return el.getClientRects().length > 0;
})()`, lookup)
}
