package scan

import (
	"sync"
	"testing"
	"time"

	"github.com/user/lora-hr-relay/protocol"
)

// fakeCentral is a deterministic stand-in for the real BLE central: Scan
// immediately reports whatever results are queued (if any match the
// caller's filtering, the manager decides), Connect always succeeds and
// hands back a fakeRemote unless told to fail.
type fakeCentral struct {
	mu           sync.Mutex
	results      []ScanResult
	connectFails bool
	connectCount int
	disconnects  int
	onState      func(addr protocol.Address, connected bool)
}

func (c *fakeCentral) Enable() error { return nil }

func (c *fakeCentral) Scan(cb func(ScanResult)) error {
	c.mu.Lock()
	results := append([]ScanResult(nil), c.results...)
	c.mu.Unlock()
	for _, r := range results {
		cb(r)
	}
	return nil
}

func (c *fakeCentral) StopScan() error { return nil }

func (c *fakeCentral) LocalAddr() (protocol.Address, error) {
	return protocol.Address{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}, nil
}

func (c *fakeCentral) SetConnectHandler(cb func(addr protocol.Address, connected bool)) {
	c.mu.Lock()
	c.onState = cb
	c.mu.Unlock()
}

func (c *fakeCentral) Connect(addr protocol.Address) (RemoteDevice, error) {
	c.mu.Lock()
	c.connectCount++
	fail := c.connectFails
	c.mu.Unlock()
	if fail {
		return nil, errConnect
	}
	return &fakeRemote{addr: addr, central: c}, nil
}

func (c *fakeCentral) fireDisconnect(addr protocol.Address) {
	c.mu.Lock()
	handler := c.onState
	c.mu.Unlock()
	if handler != nil {
		handler(addr, false)
	}
}

type errStr string

func (e errStr) Error() string { return string(e) }

const errConnect = errStr("connect failed")

type fakeRemote struct {
	addr    protocol.Address
	central *fakeCentral
}

func (r *fakeRemote) EnableHRNotifications(cb func([]byte)) error {
	return nil
}

func (r *fakeRemote) Disconnect() error {
	r.central.mu.Lock()
	r.central.disconnects++
	r.central.mu.Unlock()
	return nil
}

func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("State() never reached %v, stuck at %v", want, m.State())
}

func TestSetTargetAddrEntersScanning(t *testing.T) {
	central := &fakeCentral{}
	m := NewManager(central)

	addr := protocol.Address{1, 2, 3, 4, 5, 6}
	m.SetTargetAddr(&addr)

	if m.State() != Scanning {
		t.Errorf("State() = %v, want Scanning", m.State())
	}
	if got := m.GetTargetAddr(); got == nil || *got != addr {
		t.Errorf("GetTargetAddr() = %v, want %v", got, addr)
	}
}

func TestClearTargetReturnsToNoTarget(t *testing.T) {
	central := &fakeCentral{}
	m := NewManager(central)
	addr := protocol.Address{1, 2, 3, 4, 5, 6}
	m.SetTargetAddr(&addr)
	m.SetTargetAddr(nil)

	if m.State() != NoTarget {
		t.Errorf("State() = %v, want NoTarget", m.State())
	}
	if got := m.GetTargetAddr(); got != nil {
		t.Errorf("GetTargetAddr() = %v, want nil", got)
	}
}

func TestScanConnectSubscribeReachesSubscribed(t *testing.T) {
	addr := protocol.Address{9, 9, 9, 9, 9, 9}
	central := &fakeCentral{results: []ScanResult{{Addr: addr, LocalName: "Polar H10"}}}
	m := NewManager(central)

	var resultName string
	var resultAddr protocol.Address
	done := make(chan struct{})
	m.OnResult = func(name string, a protocol.Address) {
		resultName, resultAddr = name, a
		close(done)
	}

	m.SetTargetAddr(&addr)
	m.StartScanningTask()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnResult never fired")
	}

	waitForState(t, m, Subscribed)
	if resultName != "Polar H10" || resultAddr != addr {
		t.Errorf("OnResult(%q, %v), want (%q, %v)", resultName, resultAddr, "Polar H10", addr)
	}
	if dev := m.GetDevice(); dev == nil || dev.Addr != addr {
		t.Errorf("GetDevice() = %v, want addr %v", dev, addr)
	}
}

func TestIdempotentRetargetDoesNotDisturbSubscribed(t *testing.T) {
	addr := protocol.Address{7, 7, 7, 7, 7, 7}
	central := &fakeCentral{results: []ScanResult{{Addr: addr, LocalName: "Monitor"}}}
	m := NewManager(central)

	done := make(chan struct{})
	m.OnResult = func(string, protocol.Address) { close(done) }

	m.SetTargetAddr(&addr)
	m.StartScanningTask()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnResult never fired")
	}
	waitForState(t, m, Subscribed)

	before := central.disconnects
	m.SetTargetAddr(&addr) // same target again: must be a no-op
	time.Sleep(20 * time.Millisecond)

	if central.disconnects != before {
		t.Errorf("disconnects = %d, want %d (retarget disturbed connection)", central.disconnects, before)
	}
	if m.State() != Subscribed {
		t.Errorf("State() = %v, want Subscribed", m.State())
	}
}

func TestDisconnectReturnsToScanning(t *testing.T) {
	addr := protocol.Address{3, 3, 3, 3, 3, 3}
	central := &fakeCentral{results: []ScanResult{{Addr: addr, LocalName: "Monitor"}}}
	m := NewManager(central)

	done := make(chan struct{})
	m.OnResult = func(string, protocol.Address) { close(done) }
	m.SetTargetAddr(&addr)
	m.StartScanningTask()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnResult never fired")
	}
	waitForState(t, m, Subscribed)

	central.fireDisconnect(addr)
	waitForState(t, m, Scanning)
	if dev := m.GetDevice(); dev != nil {
		t.Errorf("GetDevice() = %v, want nil after disconnect", dev)
	}
}

func TestOtherDeviceDisconnectFiresOnDisconnectAndRetainsTarget(t *testing.T) {
	addr := protocol.Address{3, 3, 3, 3, 3, 3}
	other := protocol.Address{4, 4, 4, 4, 4, 4}
	central := &fakeCentral{results: []ScanResult{{Addr: addr, LocalName: "Monitor"}}}
	m := NewManager(central)

	done := make(chan struct{})
	m.OnResult = func(string, protocol.Address) { close(done) }
	var gotDisconnect protocol.Address
	disconnected := make(chan struct{})
	m.OnDisconnect = func(a protocol.Address) {
		gotDisconnect = a
		close(disconnected)
	}
	m.SetTargetAddr(&addr)
	m.StartScanningTask()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnResult never fired")
	}
	waitForState(t, m, Subscribed)

	central.fireDisconnect(other)

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect never fired")
	}
	if gotDisconnect != other {
		t.Errorf("OnDisconnect(%v), want %v", gotDisconnect, other)
	}
	if m.State() != Subscribed {
		t.Errorf("State() = %v, want Subscribed (monitor connection undisturbed)", m.State())
	}
	if got := m.GetTargetAddr(); got == nil || *got != addr {
		t.Errorf("GetTargetAddr() = %v, want %v (target retained)", got, addr)
	}
}
