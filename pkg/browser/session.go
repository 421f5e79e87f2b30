package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/formpilot/pkg/dom"
)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Navigate loads url in the session's page.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	s.CurrentURL = s.Page.URL()
	return nil
}

// Snapshot parses the page's current markup into a document. Values typed
// by the user are copied into attributes first so the snapshot sees them.
func (s *Session) Snapshot(opts ...dom.Option) (*dom.Document, error) {
	s.UpdateLastUsed()

	if _, err := s.Page.Evaluate(syncStateScript); err != nil {
		return nil, fmt.Errorf("failed to sync form state: %w", err)
	}
	content, err := s.Page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	doc, err := dom.ParseString(content, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page content: %w", err)
	}
	return doc, nil
}

func (s *Session) close() error {
	var errs []error
	if err := s.Page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing session %s: %v", s.Name, errs)
	}
	return nil
}
