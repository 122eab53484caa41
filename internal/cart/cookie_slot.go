package cart

import (
	"net/http"
	"strings"
	"time"
)

type CookieOptions struct {
	Name   string
	Path   string
	Secure bool
}

func (o CookieOptions) withDefaults() CookieOptions {
	if o.Name == "" {
		o.Name = SlotName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	return o
}

// CookieSlot is the cart cookie of one HTTP exchange. Reads see the request
// cookie until the handler writes, and the written value from then on.
// Only the last write reaches the response.
type CookieSlot struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions

	written *string
}

func NewCookieSlot(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieSlot {
	return &CookieSlot{w: w, r: r, opts: opts.withDefaults()}
}

func (s *CookieSlot) Read() (string, bool) {
	if s.written != nil {
		return *s.written, true
	}
	c, err := s.r.Cookie(s.opts.Name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (s *CookieSlot) Write(value string, expires time.Time) error {
	h := s.w.Header()
	prefix := s.opts.Name + "="
	var kept []string
	for _, line := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(line, prefix) {
			kept = append(kept, line)
		}
	}
	h.Del("Set-Cookie")
	for _, line := range kept {
		h.Add("Set-Cookie", line)
	}

	// not HttpOnly: browser scripts read and write the same slot
	http.SetCookie(s.w, &http.Cookie{
		Name:     s.opts.Name,
		Value:    value,
		Path:     s.opts.Path,
		Expires:  expires.UTC(),
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.written = &value
	return nil
}
