//go:build !tinygo && !baremetal

// Package memstore implements config.KVStore in host RAM, for tests and
// for a simulated-reboot property: a Store built on the same *Backing
// value observes whatever was last Set.
package memstore

import (
	"sync"

	"github.com/user/lora-hr-relay/config"
)

// Backing is the durable-looking storage a Store instance is backed by.
// Constructing a fresh KVStore from the same Backing simulates a reboot
// without losing what was persisted.
type Backing struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewBacking returns empty simulated storage, as on first boot.
func NewBacking() *Backing {
	return &Backing{data: make(map[string][]byte)}
}

// KVStore implements config.KVStore against a Backing.
type KVStore struct {
	backing *Backing
}

// New returns a KVStore reading and writing through backing.
func New(backing *Backing) *KVStore {
	return &KVStore{backing: backing}
}

func (s *KVStore) Init() error { return nil }

func (s *KVStore) Get(key string) ([]byte, error) {
	s.backing.mu.Lock()
	defer s.backing.mu.Unlock()
	v, ok := s.backing.data[key]
	if !ok || len(v) == 0 {
		return nil, config.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *KVStore) Set(key string, value []byte) error {
	s.backing.mu.Lock()
	defer s.backing.mu.Unlock()
	if len(value) == 0 {
		delete(s.backing.data, key)
		return nil
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.backing.data[key] = v
	return nil
}
