// File: internal/pages/search.go

// Package pages holds the concrete page objects for the application under
// test. Each page embeds page.Page, declares its locators in one place, and
// exposes intent-level methods.
package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/page"
)

// Search page locators.
var (
	searchBox   = page.CSS(`[name="q"]`, "search box")
	searchLogo  = page.CSS("#hplogo", "logo")
	suggestions = page.CSS(".erkvQe li", "search suggestions")
)

// Results page locators.
var (
	searchResults = page.CSS("#search .g", "search results")
	resultTitles  = page.CSS("#search .g h3", "result titles")
	resultStats   = page.CSS("#result-stats", "result stats")
	nextPageLink  = page.CSS("#pnnext", "next page link")
	prevPageLink  = page.CSS("#pnprev", "previous page link")
)

// SearchPage models the search engine's home page, served at the base URL.
type SearchPage struct {
	*page.Page
}

// NewSearchPage binds a search page to the session.
func NewSearchPage(s *browser.Session) *SearchPage {
	return &SearchPage{Page: page.New(s, "")}
}

// Search types the query into the search box, submits with Enter, and
// returns the results page.
func (p *SearchPage) Search(ctx context.Context, query string) (*SearchResultsPage, error) {
	p.Session().Logger().Info("Searching.", zap.String("query", query))

	if err := p.TypeText(ctx, searchBox, query); err != nil {
		return nil, err
	}
	if err := p.PressEnter(ctx, searchBox); err != nil {
		return nil, err
	}
	return newSearchResultsPage(p.Session()), nil
}

// Suggestions types a partial query and returns the live suggestions.
func (p *SearchPage) Suggestions(ctx context.Context, partial string) ([]string, error) {
	if err := p.TypeText(ctx, searchBox, partial); err != nil {
		return nil, err
	}
	if err := p.WaitForVisible(ctx, suggestions); err != nil {
		return nil, err
	}
	return p.Texts(ctx, suggestions)
}

// IsLogoVisible reports whether the logo is currently rendered.
func (p *SearchPage) IsLogoVisible(ctx context.Context) (bool, error) {
	return p.IsVisible(ctx, searchLogo)
}

// SearchResultsPage models a page of search results. It is only reachable
// through SearchPage.Search, so it carries no path of its own.
type SearchResultsPage struct {
	*page.Page
}

func newSearchResultsPage(s *browser.Session) *SearchResultsPage {
	return &SearchResultsPage{Page: page.New(s, "")}
}

// WaitForResults blocks until at least one result is visible.
func (p *SearchResultsPage) WaitForResults(ctx context.Context) error {
	return p.WaitForVisible(ctx, searchResults)
}

// ResultCount returns how many results the current page shows.
func (p *SearchResultsPage) ResultCount(ctx context.Context) (int, error) {
	return p.Count(ctx, searchResults)
}

// ResultTitles returns the visible titles of all results on the page.
func (p *SearchResultsPage) ResultTitles(ctx context.Context) ([]string, error) {
	return p.Texts(ctx, resultTitles)
}

// Stats returns the result statistics line, or empty when it is absent.
func (p *SearchResultsPage) Stats(ctx context.Context) (string, error) {
	visible, err := p.IsVisible(ctx, resultStats)
	if err != nil || !visible {
		return "", err
	}
	return p.Text(ctx, resultStats)
}

// ContainsTerm reports whether any result title mentions the term,
// case-insensitively.
func (p *SearchResultsPage) ContainsTerm(ctx context.Context, term string) (bool, error) {
	titles, err := p.ResultTitles(ctx)
	if err != nil {
		return false, err
	}
	term = strings.ToLower(term)
	for _, title := range titles {
		if strings.Contains(strings.ToLower(title), term) {
			return true, nil
		}
	}
	return false, nil
}

// SearchAgain runs a fresh query from the results page.
func (p *SearchResultsPage) SearchAgain(ctx context.Context, query string) (*SearchResultsPage, error) {
	if err := p.TypeText(ctx, searchBox, query); err != nil {
		return nil, err
	}
	if err := p.PressEnter(ctx, searchBox); err != nil {
		return nil, err
	}
	return newSearchResultsPage(p.Session()), nil
}

// NextPage advances to the next page of results. It fails when pagination is
// not available.
func (p *SearchResultsPage) NextPage(ctx context.Context) error {
	visible, err := p.IsVisible(ctx, nextPageLink)
	if err != nil {
		return err
	}
	if !visible {
		return fmt.Errorf("next page link is not available")
	}
	return p.Click(ctx, nextPageLink)
}

// PreviousPage goes back one page of results. It fails when pagination is
// not available.
func (p *SearchResultsPage) PreviousPage(ctx context.Context) error {
	visible, err := p.IsVisible(ctx, prevPageLink)
	if err != nil {
		return err
	}
	if !visible {
		return fmt.Errorf("previous page link is not available")
	}
	return p.Click(ctx, prevPageLink)
}
