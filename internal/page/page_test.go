// File: internal/page/page_test.go
package page

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/config"
)

func TestLocator_String(t *testing.T) {
	t.Run("with description", func(t *testing.T) {
		loc := CSS("input[name=q]", "search box")
		assert.Equal(t, "search box (css=input[name=q])", loc.String())
	})

	t.Run("without description", func(t *testing.T) {
		loc := XPath("//button[@type='submit']", "")
		assert.Equal(t, "xpath=//button[@type='submit']", loc.String())
	})
}

func TestLocator_Constructors(t *testing.T) {
	css := CSS("#login", "login button")
	assert.Equal(t, ByCSS, css.Strategy)
	assert.Equal(t, "#login", css.Value)

	xp := XPath("//a[text()='Next']", "next link")
	assert.Equal(t, ByXPath, xp.Strategy)
	assert.Equal(t, "next link", xp.Description)
}

func TestElementNotFoundError_Format(t *testing.T) {
	cause := errors.New("not visible")
	err := &ElementNotFoundError{
		Locator: CSS("#results", "results panel"),
		Timeout: 30 * time.Second,
		Err:     cause,
	}

	assert.Contains(t, err.Error(), "results panel")
	assert.Contains(t, err.Error(), "30s")
	assert.ErrorIs(t, err, cause)
}

func TestWaitError_ExpiredBudgetMapsToElementNotFound(t *testing.T) {
	// The combined run context reports Canceled when the per-call deadline
	// fires; classification must consult the per-call context instead.
	callCtx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-callCtx.Done()

	err := waitError(context.Canceled, callCtx, CSS("#results", "results panel"), 30*time.Second, "visible")

	var notFound *ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 30*time.Second, notFound.Timeout)
	assert.Contains(t, notFound.Error(), "results panel")
	assert.Contains(t, notFound.Error(), "not visible")
}

func TestWaitError_DeadlineErrorMapsDirectly(t *testing.T) {
	err := waitError(context.DeadlineExceeded, context.Background(), CSS("#x", "x"), time.Second, "present")

	var notFound *ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestWaitError_OtherFailuresPassThrough(t *testing.T) {
	cause := errors.New("target crashed")
	err := waitError(cause, context.Background(), CSS("#x", "x"), time.Second, "visible")
	assert.Equal(t, cause, err)

	// A canceled call context is a teardown, not a timeout.
	callCtx, cancel := context.WithCancel(context.Background())
	cancel()
	err = waitError(context.Canceled, callCtx, CSS("#x", "x"), time.Second, "visible")
	assert.Equal(t, context.Canceled, err)
}

func TestScrollHelpersFailFastAfterClose(t *testing.T) {
	ctx, cancelSession := context.WithCancel(context.Background())
	s := browser.NewDetachedSession(ctx, cancelSession, config.Default(), zap.NewNop())
	p := New(s, "")
	require.NoError(t, s.Close(context.Background()))

	assert.ErrorIs(t, p.ScrollToTop(context.Background()), browser.ErrSessionClosed)
	assert.ErrorIs(t, p.ScrollToBottom(context.Background()), browser.ErrSessionClosed)
}

func TestResolvePageURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"plain path", "https://app.example.invalid", "login", "https://app.example.invalid/login"},
		{"leading slash", "https://app.example.invalid", "/login", "https://app.example.invalid/login"},
		{"trailing slash on base", "https://app.example.invalid/", "search", "https://app.example.invalid/search"},
		{"nested path", "https://app.example.invalid/ui", "forms/contact", "https://app.example.invalid/ui/forms/contact"},
		{"empty path", "https://app.example.invalid", "", "https://app.example.invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePageURL(tt.base, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLinks(t *testing.T) {
	const doc = `<html><body>
		<a href="/home">  Home  </a>
		<a href="https://other.example.invalid/docs"><span>Docs</span></a>
		<a>No href</a>
		<a href="">Empty href</a>
		<div><a href="#section">Section</a></div>
	</body></html>`

	links, err := extractLinks(strings.NewReader(doc))
	require.NoError(t, err)

	want := []Link{
		{Href: "/home", Text: "Home"},
		{Href: "https://other.example.invalid/docs", Text: "Docs"},
		{Href: "#section", Text: "Section"},
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("extracted links mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinks_EmptyDocument(t *testing.T) {
	links, err := extractLinks(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestLookupAllScript(t *testing.T) {
	t.Run("css", func(t *testing.T) {
		script := textsScript(CSS("#search .g h3", "result titles"))
		assert.Contains(t, script, `document.querySelectorAll("#search .g h3")`)
		assert.Contains(t, script, "innerText")
	})

	t.Run("xpath", func(t *testing.T) {
		script := countScript(XPath("//li[@class='item']", "items"))
		assert.Contains(t, script, "ORDERED_NODE_SNAPSHOT_TYPE")
		assert.Contains(t, script, ".length")
	})
}

func TestVisibilityScript(t *testing.T) {
	t.Run("css lookup", func(t *testing.T) {
		script := visibilityScript(CSS("#main", "main panel"))
		assert.Contains(t, script, `document.querySelector("#main")`)
		assert.Contains(t, script, "getClientRects")
	})

	t.Run("xpath lookup", func(t *testing.T) {
		script := visibilityScript(XPath("//div[@id='main']", "main panel"))
		assert.Contains(t, script, "document.evaluate")
		assert.Contains(t, script, `//div[@id='main']`)
	})
}
