//go:build !tinygo && !baremetal

// This file is built only for non-embedded targets (host-based testing).
package platform

import (
	"github.com/user/lora-hr-relay/config"
	"github.com/user/lora-hr-relay/config/memstore"
	"github.com/user/lora-hr-relay/radio"
	"github.com/user/lora-hr-relay/radio/simradio"
)

// NewRadioDriver returns a simulated LoRa transceiver: there is no real
// SPI/GPIO hardware to drive on a host build.
func NewRadioDriver() radio.Driver {
	return simradio.New()
}

// NewKVStore returns an in-memory key/value store backing C2. State does
// not survive process exit; simulate a reboot in tests by constructing a
// fresh Store over the same memstore.Backing.
func NewKVStore() config.KVStore {
	return memstore.New(memstore.NewBacking())
}
