package config

import (
	"log"

	"github.com/user/lora-hr-relay/protocol"
)

var logger = log.New(log.Writer(), "[config] ", log.LstdFlags)

// Store layers the paired_addr / name_map_key contract of C2 on top of a
// raw KVStore. NotFound is never surfaced past this type: callers get the
// documented defaults (no paired address, name-map key 0).
type Store struct {
	kv KVStore
}

// New wraps kv. Callers must call Init before any Get/Set.
func New(kv KVStore) *Store {
	return &Store{kv: kv}
}

// Init prepares the backing store. It is idempotent and fails only on
// unrecoverable medium errors, which are fatal at boot (see cmd/repeater).
func (s *Store) Init() error {
	return s.kv.Init()
}

// GetAddr returns the persisted paired address, or ok=false if none has
// ever been set.
func (s *Store) GetAddr() (addr protocol.Address, ok bool) {
	raw, err := s.kv.Get(KeyPairedAddr)
	if err == ErrNotFound {
		return protocol.Address{}, false
	}
	if err != nil {
		logger.Printf("get %s: %v", KeyPairedAddr, err)
		return protocol.Address{}, false
	}
	if len(raw) != protocol.AddrSize {
		logger.Printf("get %s: unexpected length %d", KeyPairedAddr, len(raw))
		return protocol.Address{}, false
	}
	copy(addr[:], raw)
	return addr, true
}

// SetAddr persists addr. Failures are logged and non-fatal; the RAM value
// held by the caller (the scan manager) still reflects the request.
func (s *Store) SetAddr(addr protocol.Address) error {
	if err := s.kv.Set(KeyPairedAddr, addr[:]); err != nil {
		logger.Printf("set %s: %v", KeyPairedAddr, err)
		return err
	}
	return nil
}

// ClearAddr removes the persisted paired address by writing a zero-length
// record; GetAddr then reports ok=false.
func (s *Store) ClearAddr() error {
	if err := s.kv.Set(KeyPairedAddr, nil); err != nil {
		logger.Printf("clear %s: %v", KeyPairedAddr, err)
		return err
	}
	return nil
}

// GetNameMapKey returns the persisted name-map key, defaulting to 0 when
// none has ever been set.
func (s *Store) GetNameMapKey() byte {
	raw, err := s.kv.Get(KeyNameMapKey)
	if err == ErrNotFound {
		return 0
	}
	if err != nil {
		logger.Printf("get %s: %v", KeyNameMapKey, err)
		return 0
	}
	if len(raw) != 1 {
		return 0
	}
	return raw[0]
}

// SetNameMapKey persists key. Failures are logged and non-fatal.
func (s *Store) SetNameMapKey(key byte) error {
	if err := s.kv.Set(KeyNameMapKey, []byte{key}); err != nil {
		logger.Printf("set %s: %v", KeyNameMapKey, err)
		return err
	}
	return nil
}
