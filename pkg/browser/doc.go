// Package browser drives a real page with playwright-go. A session
// snapshots the live page into a dom.Document so the engine can scan and
// fill it offline, then replays the recorded writes into the page with an
// in-page applier that uses the native value setters and fires the same
// input, change and blur sequence as the synth package.
//
// Typical use:
//
//	mgr := browser.NewSessionManager()
//	if err := mgr.Initialize(); err != nil { ... }
//	defer mgr.Shutdown()
//
//	s, _ := mgr.StartSession("default", browser.SessionOptions{Headless: true})
//	_ = s.Navigate("https://example.com/signup", browser.NavigateOptions{})
//	doc, _ := s.Snapshot()
//	engine := formpilot.New(doc, formpilot.Options{})
//	... engine.InjectAnswers(ctx, list, nil) ...
//	results, _ := s.Apply(doc, engine.Session().Entries())
package browser
