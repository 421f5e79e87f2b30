package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800

	// DefaultTimeout is the page operation timeout in milliseconds.
	DefaultTimeout = 30000

	DefaultMaxSessions = 4
)

// Session is one browser, its isolated context and the page being filled.
type Session struct {
	Name    string
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time
	CurrentURL string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations (in milliseconds)
	Timeout float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil is one of "load", "domcontentloaded" or "networkidle".
	WaitUntil string

	// Timeout in milliseconds (0 means default)
	Timeout float64
}
