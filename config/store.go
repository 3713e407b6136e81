// Package config implements the persistent config component (C2): the
// paired BLE address and name-map key survive reboot via a KVStore
// boundary interface standing in for the non-volatile storage primitive.
package config

import "errors"

// ErrNotFound is returned by KVStore.Get when key has never been written.
// It is not surfaced to callers of Store; they substitute a default.
var ErrNotFound = errors.New("config: key not found")

// Key names as they appear in the backing store.
const (
	KeyPairedAddr = "paired_addr"
	KeyNameMapKey = "name_map_key"
)

// KVStore is the boundary interface for the non-volatile key/value medium.
// Get returns ErrNotFound when key has never been written. Implementations
// live in config/flashstore (real hardware) and config/memstore (host
// tests).
type KVStore interface {
	Init() error
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}
