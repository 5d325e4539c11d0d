package service

import (
	"time"

	"golang-watchlist/pkg/cache"
)

const sessionTTL = 12 * time.Hour

// SessionStore remembers the partition key each session last authenticated
// with, so a stream can reattach after a reconnect that dropped the query
// string. Entries are keyed by the caller's session token; one session can
// never see the partition another session remembered. An empty token is
// never stored. This is a convenience fallback, not a substitute for
// validation.
type SessionStore interface {
	Remember(token, partitionKey string)
	LastCPF(token string) (string, bool)
}

type sessionStore struct {
	cache cache.Cache
}

func NewSessionStore(c cache.Cache) SessionStore {
	return &sessionStore{cache: c}
}

func (s *sessionStore) Remember(token, partitionKey string) {
	if token == "" {
		return
	}
	s.cache.Set(sessionKey(token), partitionKey, sessionTTL)
}

func (s *sessionStore) LastCPF(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	return cache.GetTyped[string](s.cache, sessionKey(token))
}

func sessionKey(token string) string {
	return "session:cpf:" + token
}
