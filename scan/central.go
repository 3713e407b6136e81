// Package scan implements the BLE central-role state machine (C4): it
// discovers, connects to, and subscribes the paired heart-rate monitor.
package scan

import "github.com/user/lora-hr-relay/protocol"

// ScanResult is one advertisement observed while scanning.
type ScanResult struct {
	Addr      protocol.Address
	LocalName string
}

// Central is the boundary interface for the BLE central role. The real
// implementation (scan/bleadapter) wraps tinygo.org/x/bluetooth; tests use
// a fake that never touches a radio.
type Central interface {
	Enable() error
	// Scan invokes cb for every advertisement seen, until StopScan is
	// called from within cb or from another goroutine.
	Scan(cb func(ScanResult)) error
	StopScan() error
	// Connect connects to addr and discovers the standard Heart Rate
	// service and Measurement characteristic on it.
	Connect(addr protocol.Address) (RemoteDevice, error)
	// SetConnectHandler installs a single adapter-wide handler invoked
	// whenever any connection is established or dropped.
	SetConnectHandler(cb func(addr protocol.Address, connected bool))
	// LocalAddr returns this node's own BLE address, used to answer
	// QueryDeviceByMac requests addressed to it specifically.
	LocalAddr() (protocol.Address, error)
}

// RemoteDevice is a connected peripheral exposing a Heart Rate
// Measurement characteristic.
type RemoteDevice interface {
	// EnableHRNotifications subscribes to Heart Rate Measurement
	// notifications; cb receives the raw GATT value on each one.
	EnableHRNotifications(cb func(data []byte)) error
	Disconnect() error
}
