package scan

import (
	"log"
	"sync"
	"time"

	"github.com/user/lora-hr-relay/protocol"
)

var logger = log.New(log.Writer(), "[scan] ", log.LstdFlags)

// State is a node in the C4 state machine.
type State int

const (
	NoTarget State = iota
	Scanning
	Connecting
	Subscribed
)

func (s State) String() string {
	switch s {
	case NoTarget:
		return "NoTarget"
	case Scanning:
		return "Scanning"
	case Connecting:
		return "Connecting"
	case Subscribed:
		return "Subscribed"
	default:
		return "Unknown"
	}
}

// Scan cadence: active scan in bursts so scanning never monopolizes the
// shared BLE radio.
const (
	scanWindow = 750 * time.Millisecond
	scanSleep  = 250 * time.Millisecond
)

// Manager drives the state machine described in the component design:
// NoTarget -> Scanning -> Connecting -> Subscribed, with disconnects
// returning to Scanning and clear_target returning to NoTarget from any
// state.
type Manager struct {
	central Central

	mu     sync.Mutex
	state  State
	target *protocol.Address
	device *protocol.DiscoveredDeviceInfo
	remote RemoteDevice

	// OnResult fires once per transition into Subscribed.
	OnResult func(name string, addr protocol.Address)
	// OnData fires on every Heart Rate Measurement notification.
	OnData func(device protocol.DiscoveredDeviceInfo, data []byte)
	// OnDisconnect fires when a BLE peer other than the paired monitor
	// disconnects. The shared adapter reports every connection drop
	// through the same handler, and a disconnect that doesn't match the
	// monitor's address is the GATT config-client dropping its
	// connection. The monitor's own disconnect is handled internally
	// (return to Scanning, target retained) and never reaches here.
	OnDisconnect func(addr protocol.Address)
}

// NewManager wires a Manager to central. Callers must call
// StartScanningTask to begin the background activity.
func NewManager(central Central) *Manager {
	m := &Manager{central: central, state: NoTarget}
	central.SetConnectHandler(m.onConnectStateChanged)
	return m
}

// SetTargetAddr sets the paired target. Passing nil clears it. Setting the
// same target the manager is already scanning for, connecting to, or
// subscribed to is a no-op; it must never disturb an existing connection.
func (m *Manager) SetTargetAddr(addr *protocol.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if addr == nil {
		if m.target == nil {
			return
		}
		m.teardownLocked()
		m.target = nil
		m.state = NoTarget
		return
	}

	if m.target != nil && *m.target == *addr {
		return
	}

	m.teardownLocked()
	a := *addr
	m.target = &a
	m.state = Scanning
}

// GetTargetAddr returns the current paired target, or nil if none.
func (m *Manager) GetTargetAddr() *protocol.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.target == nil {
		return nil
	}
	a := *m.target
	return &a
}

// GetDevice returns the device of the current subscription, or nil when
// the manager is not Subscribed (a disconnect or retarget clears it).
func (m *Manager) GetDevice() *protocol.DiscoveredDeviceInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device == nil {
		return nil
	}
	d := *m.device
	return &d
}

// State reports the manager's current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// teardownLocked disconnects any active connection. Caller holds m.mu.
func (m *Manager) teardownLocked() {
	if m.remote != nil {
		_ = m.remote.Disconnect()
		m.remote = nil
	}
	m.device = nil
}

func (m *Manager) onConnectStateChanged(addr protocol.Address, connected bool) {
	if connected {
		return
	}

	m.mu.Lock()
	isMonitor := m.target != nil && *m.target == addr
	if isMonitor {
		logger.Printf("device %s disconnected", addr)
		m.remote = nil
		m.device = nil
		m.state = Scanning
	}
	m.mu.Unlock()

	if !isMonitor {
		if cb := m.OnDisconnect; cb != nil {
			cb(addr)
		}
	}
}

// StartScanningTask launches the background activity that advances the
// state machine: scan in scanWindow bursts separated by scanSleep, connect
// on a matching advertisement, discover and subscribe, then idle until a
// disconnect or retarget puts the manager back into Scanning.
func (m *Manager) StartScanningTask() {
	if err := m.central.Enable(); err != nil {
		logger.Printf("enable central: %v", err)
		return
	}
	go m.loop()
}

func (m *Manager) loop() {
	for {
		m.mu.Lock()
		state := m.state
		target := m.target
		m.mu.Unlock()

		if state != Scanning || target == nil {
			time.Sleep(scanSleep)
			continue
		}

		m.scanBurst(*target)
		time.Sleep(scanSleep)
	}
}

func (m *Manager) scanBurst(target protocol.Address) {
	found := make(chan ScanResult, 1)
	stopped := make(chan struct{})

	go func() {
		err := m.central.Scan(func(r ScanResult) {
			if r.Addr == target {
				select {
				case found <- r:
				default:
				}
				_ = m.central.StopScan()
			}
		})
		if err != nil {
			logger.Printf("scan: %v", err)
		}
		close(stopped)
	}()

	select {
	case r := <-found:
		m.connect(r)
	case <-time.After(scanWindow):
		_ = m.central.StopScan()
	}
	<-stopped
}

func (m *Manager) connect(result ScanResult) {
	m.mu.Lock()
	if m.target == nil || *m.target != result.Addr {
		m.mu.Unlock()
		return
	}
	m.state = Connecting
	m.mu.Unlock()

	remote, err := m.central.Connect(result.Addr)
	if err != nil {
		logger.Printf("connect %s: %v", result.Addr, err)
		m.mu.Lock()
		if m.state == Connecting {
			m.state = Scanning
		}
		m.mu.Unlock()
		return
	}

	name := result.LocalName
	if len(name) > protocol.MaxDeviceNameLen {
		name = name[:protocol.MaxDeviceNameLen]
	}
	device := protocol.DiscoveredDeviceInfo{Addr: result.Addr, Name: name}
	if err := remote.EnableHRNotifications(func(data []byte) {
		if cb := m.OnData; cb != nil {
			cb(device, data)
		}
	}); err != nil {
		logger.Printf("subscribe %s: %v", result.Addr, err)
		_ = remote.Disconnect()
		m.mu.Lock()
		if m.state == Connecting {
			m.state = Scanning
		}
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if m.target == nil || *m.target != result.Addr {
		m.mu.Unlock()
		_ = remote.Disconnect()
		return
	}
	m.remote = remote
	m.device = &device
	m.state = Subscribed
	m.mu.Unlock()

	if cb := m.OnResult; cb != nil {
		cb(name, result.Addr)
	}
}
