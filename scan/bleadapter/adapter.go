// Package bleadapter implements scan.Central and scan.RemoteDevice against
// the real tinygo.org/x/bluetooth central role.
package bleadapter

import (
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/user/lora-hr-relay/protocol"
	"github.com/user/lora-hr-relay/scan"
)

var (
	heartRateServiceUUID        = bluetooth.ServiceUUIDHeartRate
	heartRateCharacteristicUUID = bluetooth.CharacteristicUUIDHeartRateMeasurement
)

// Adapter wraps *bluetooth.Adapter to satisfy scan.Central.
type Adapter struct {
	adapter *bluetooth.Adapter

	mu      sync.Mutex
	onState func(addr protocol.Address, connected bool)
}

// New wraps bluetooth.DefaultAdapter.
func New() *Adapter {
	return &Adapter{adapter: bluetooth.DefaultAdapter}
}

func (a *Adapter) Enable() error {
	return a.adapter.Enable()
}

// Raw exposes the underlying *bluetooth.Adapter so the same adapter
// instance can also drive the peripheral (GATT server) role.
func (a *Adapter) Raw() *bluetooth.Adapter {
	return a.adapter
}

// LocalAddr returns this node's own BLE address.
func (a *Adapter) LocalAddr() (protocol.Address, error) {
	mac, err := a.adapter.Address()
	if err != nil {
		return protocol.Address{}, err
	}
	return toProtocolAddr(mac.MAC), nil
}

func (a *Adapter) SetConnectHandler(cb func(addr protocol.Address, connected bool)) {
	a.mu.Lock()
	a.onState = cb
	a.mu.Unlock()

	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		a.mu.Lock()
		handler := a.onState
		a.mu.Unlock()
		if handler != nil {
			handler(toProtocolAddr(device.Address.MAC), connected)
		}
	})
}

func (a *Adapter) Scan(cb func(scan.ScanResult)) error {
	return a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		cb(scan.ScanResult{
			Addr:      toProtocolAddr(result.Address.MAC),
			LocalName: result.LocalName(),
		})
	})
}

func (a *Adapter) StopScan() error {
	return a.adapter.StopScan()
}

func (a *Adapter) Connect(addr protocol.Address) (scan.RemoteDevice, error) {
	bleAddr := bluetooth.Address{}
	bleAddr.MAC = toBluetoothMAC(addr)

	device, err := a.adapter.Connect(bleAddr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, err
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{heartRateServiceUUID})
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		_ = device.Disconnect()
		return nil, errNoHeartRateService
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{heartRateCharacteristicUUID})
	if err != nil {
		return nil, err
	}
	if len(chars) == 0 {
		_ = device.Disconnect()
		return nil, errNoHeartRateCharacteristic
	}

	return &remoteDevice{device: device, char: chars[0]}, nil
}

type remoteDevice struct {
	device bluetooth.Device
	char   bluetooth.DeviceCharacteristic
}

func (r *remoteDevice) EnableHRNotifications(cb func([]byte)) error {
	return r.char.EnableNotifications(cb)
}

func (r *remoteDevice) Disconnect() error {
	return r.device.Disconnect()
}

func toProtocolAddr(mac bluetooth.MAC) protocol.Address {
	return protocol.Address(mac)
}

func toBluetoothMAC(addr protocol.Address) bluetooth.MAC {
	return bluetooth.MAC(addr)
}

type errString string

func (e errString) Error() string { return string(e) }

const (
	errNoHeartRateService        = errString("bleadapter: no heart rate service on device")
	errNoHeartRateCharacteristic = errString("bleadapter: no heart rate measurement characteristic on device")
)
