// File: internal/page/locator.go
package page

import (
	"fmt"

	"github.com/chromedp/chromedp"
)

// Strategy selects how a locator's value is interpreted.
type Strategy int

const (
	// ByCSS matches elements with a CSS selector.
	ByCSS Strategy = iota
	// ByXPath matches elements with an XPath expression.
	ByXPath
)

func (s Strategy) String() string {
	switch s {
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	default:
		return "unknown"
	}
}

// Locator identifies an element on a page. Page objects declare their
// locators as package-level values so selectors live in one place.
type Locator struct {
	Strategy    Strategy
	Value       string
	Description string
}

// CSS builds a CSS locator. The description names the element in logs and
// error messages.
func CSS(value, description string) Locator {
	return Locator{Strategy: ByCSS, Value: value, Description: description}
}

// XPath builds an XPath locator.
func XPath(value, description string) Locator {
	return Locator{Strategy: ByXPath, Value: value, Description: description}
}

func (l Locator) String() string {
	if l.Description != "" {
		return fmt.Sprintf("%s (%s=%s)", l.Description, l.Strategy, l.Value)
	}
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// queryOption maps the locator strategy to the matching chromedp selector
// mode.
func (l Locator) queryOption() chromedp.QueryOption {
	if l.Strategy == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
