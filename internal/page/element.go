// File: internal/page/element.go
package page

import "context"

// Element is a handle returned by Page.Find. It re-resolves its locator on
// every action, so a re-rendered element never goes stale.
type Element struct {
	page *Page
	loc  Locator
}

// Locator returns the locator the element was found with.
func (e *Element) Locator() Locator { return e.loc }

// Click clicks the element.
func (e *Element) Click(ctx context.Context) error {
	return e.page.Click(ctx, e.loc)
}

// TypeText clears the element and types the given text.
func (e *Element) TypeText(ctx context.Context, text string) error {
	return e.page.TypeText(ctx, e.loc, text)
}

// Text returns the element's visible text.
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.page.Text(ctx, e.loc)
}

// Attribute returns the named attribute; ok is false when absent.
func (e *Element) Attribute(ctx context.Context, name string) (value string, ok bool, err error) {
	return e.page.Attribute(ctx, e.loc, name)
}

// IsVisible reports current visibility without waiting.
func (e *Element) IsVisible(ctx context.Context) (bool, error) {
	return e.page.IsVisible(ctx, e.loc)
}
