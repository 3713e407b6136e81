//go:build tinygo || baremetal

// This file is built only for embedded targets (using the real LoRa
// transceiver and QSPI NOR flash).
package platform

import (
	"github.com/user/lora-hr-relay/config"
	"github.com/user/lora-hr-relay/config/flashstore"
	"github.com/user/lora-hr-relay/radio"
	"github.com/user/lora-hr-relay/radio/lora"
)

// NewRadioDriver returns the real SX126x-family transceiver driver.
func NewRadioDriver() radio.Driver {
	return lora.New()
}

// NewKVStore returns the QSPI NOR flash-backed key/value store.
func NewKVStore() config.KVStore {
	return flashstore.New()
}
