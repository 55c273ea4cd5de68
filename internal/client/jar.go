package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// swappableJar is an http.CookieJar whose contents can be replaced
// atomically while requests are in flight.
type swappableJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

var _ http.CookieJar = (*swappableJar)(nil)

func newSwappableJar() (*swappableJar, error) {
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	return &swappableJar{jar: jar}, nil
}

func newJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}

// Replace installs a fresh jar holding cookies for u. A nil u leaves it empty.
func (s *swappableJar) Replace(u *url.URL, cookies []*http.Cookie) error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	if u != nil && len(cookies) > 0 {
		jar.SetCookies(u, cookies)
	}

	s.mu.Lock()
	s.jar = jar
	s.mu.Unlock()

	return nil
}

func (s *swappableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()

	jar.SetCookies(u, cookies)
}

func (s *swappableJar) Cookies(u *url.URL) []*http.Cookie {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()

	return jar.Cookies(u)
}
