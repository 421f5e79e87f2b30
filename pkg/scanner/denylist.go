package scanner

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// systemTokens are name/id substrings of controls a user never fills in.
var systemTokens = []string{
	"csrf",
	"xsrf",
	"token",
	"_token",
	"authenticity_token",
	"utf8",
	"_method",
	"commit",
	"submit",
	"captcha",
	"recaptcha",
	"g-recaptcha-response",
}

// Denylist decides whether a control is system-reserved.
type Denylist struct {
	patterns []glob.Glob
	sources  []string
}

// NewDenylist builds a denylist from the fixed system tokens plus optional
// glob patterns (for example "*honeypot*"), matched case-insensitively
// against name and id.
func NewDenylist(patterns ...string) (*Denylist, error) {
	d := &Denylist{}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid denylist pattern %q: %w", p, err)
		}
		d.patterns = append(d.patterns, g)
		d.sources = append(d.sources, p)
	}
	return d, nil
}

// Blocks reports whether a control with the given name or id is excluded.
func (d *Denylist) Blocks(name, id string) bool {
	for _, v := range []string{name, id} {
		v = strings.ToLower(v)
		if v == "" {
			continue
		}
		for _, tok := range systemTokens {
			if strings.Contains(v, tok) {
				return true
			}
		}
		for _, g := range d.patterns {
			if g.Match(v) {
				return true
			}
		}
	}
	return false
}

// Patterns returns the extra glob patterns in registration order.
func (d *Denylist) Patterns() []string {
	return append([]string(nil), d.sources...)
}
