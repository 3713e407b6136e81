// Package platform assembles the boundary implementations (radio driver,
// persistent store, BLE central role) behind a single set of
// constructors. The actual implementation is split into build-tag
// specific files:
//   - constructors_embedded.go, real hardware (//go:build tinygo || baremetal)
//   - constructors_host.go, development/testing (//go:build !tinygo && !baremetal)
package platform

import (
	"github.com/user/lora-hr-relay/scan"
	"github.com/user/lora-hr-relay/scan/bleadapter"
)

// NewCentral returns the BLE central-role implementation. It has no
// build-tag split: tinygo.org/x/bluetooth's default adapter works on both
// embedded targets and the host backends (Linux BlueZ, Windows WinRT,
// macOS CoreBluetooth) the pack depends on transitively.
func NewCentral() *bleadapter.Adapter {
	return bleadapter.New()
}

var _ scan.Central = (*bleadapter.Adapter)(nil)
