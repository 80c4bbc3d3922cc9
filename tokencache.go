package main

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// tokenCache holds tokens in memory keyed by scope set. It lives for one
// process, so the first lookup is always a miss.
type tokenCache struct {
	mu      sync.Mutex
	entries map[string]*oauth2.Token
}

func newTokenCache() *tokenCache {
	return &tokenCache{entries: make(map[string]*oauth2.Token)}
}

func scopeKey(scopes []string) string {
	s := append([]string(nil), scopes...)
	sort.Strings(s)
	return strings.Join(s, " ")
}

// lookup returns a cached token for scopes if it is still valid.
func (c *tokenCache) lookup(scopes []string) (*oauth2.Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.entries[scopeKey(scopes)]
	if !ok || !t.Valid() {
		return nil, false
	}
	return t, true
}

func (c *tokenCache) store(scopes []string, t *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[scopeKey(scopes)] = t
}
