package auth

import (
	"context"
	"strings"
	"sync"
)

// KeyStore looks up local gateway tokens by hash.
type KeyStore interface {
	Lookup(ctx context.Context, keyHash string) (*Identity, error)
	// Enabled reports whether any tokens are configured. The middleware lets
	// every request through when it returns false.
	Enabled() bool
}

// StaticKeyStore holds token hashes from configuration. Replace swaps the set
// on config reload.
type StaticKeyStore struct {
	mu     sync.RWMutex
	hashes map[string]struct{}
}

func NewStaticKeyStore(hashes []string) *StaticKeyStore {
	s := &StaticKeyStore{}
	s.Replace(hashes)
	return s
}

func (s *StaticKeyStore) Replace(hashes []string) {
	set := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			set[h] = struct{}{}
		}
	}
	s.mu.Lock()
	s.hashes = set
	s.mu.Unlock()
}

func (s *StaticKeyStore) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hashes) > 0
}

func (s *StaticKeyStore) Lookup(_ context.Context, keyHash string) (*Identity, error) {
	s.mu.RLock()
	_, ok := s.hashes[keyHash]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	id := keyHash
	if len(id) > 12 {
		id = id[:12]
	}
	return &Identity{KeyID: id}, nil
}
