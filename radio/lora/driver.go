//go:build tinygo || baremetal

// Package lora implements radio.Driver against real SX126x-family
// transceiver hardware via tinygo.org/x/drivers/sx126x. This board wires
// a BUSY line to the transceiver, which identifies it as SX126x-family
// rather than SX127x/RFM9x (no BUSY pin).
package lora

import (
	"machine"
	"strings"
	"sync"

	"tinygo.org/x/drivers/sx126x"

	"github.com/user/lora-hr-relay/radio"
)

// rxPollTimeoutMs bounds each LoraRx call so a pending Standby is noticed
// promptly instead of the receive loop blocking indefinitely.
const rxPollTimeoutMs = 500

// txTimeoutMs bounds LoraTx; on expiry it is reported as radio.ErrTxTimeout.
const txTimeoutMs = 4000

// Driver wraps *sx126x.Device to implement radio.Driver. LoraRx blocks
// with its own timeout, so continuous receive is modeled as a background
// goroutine feeding a small buffered channel; ReceiveInto only ever
// drains that channel and never touches the SPI bus itself. Standby
// blocks until that goroutine has actually exited, so Transmit never
// races it on the bus: the two must never drive the transceiver at the
// same time.
type Driver struct {
	dev *sx126x.Device

	mu      sync.Mutex
	rx      chan []byte
	stop    chan struct{}
	stopped chan struct{}
	running bool

	controller *radio.Controller
}

// New wraps the SPI bus wired to the transceiver on this board's SPI0.
func New() *Driver {
	return &Driver{dev: sx126x.New(machine.SPI0), rx: make(chan []byte, 4)}
}

// AttachController lets the driver signal PacketReceived on the owning
// controller when a frame lands in the receive queue, standing in for
// the transceiver's DIO1 packet-received interrupt.
func (d *Driver) AttachController(c *radio.Controller) {
	d.controller = c
}

// Begin configures the transceiver with this deployment's fixed
// modulation parameters. Mismatched parameters between peers just mean
// no traffic; nothing here is negotiated at runtime.
func (d *Driver) Begin(p radio.Params) error {
	d.dev.SetDeviceType(sx126x.DEVICE_TYPE_SX1262)
	if !d.dev.DetectDevice() {
		return radio.ErrHardware{Cause: errNotDetected{}}
	}

	d.dev.LoraConfig(sx126x.LoraConfig{
		Freq:           p.FrequencyHz,
		Bw:             sx126x.SX126X_LORA_BW_500_0,
		Sf:             sx126x.SX126X_LORA_SF7,
		Cr:             sx126x.SX126X_LORA_CR_4_7,
		HeaderType:     sx126x.SX126X_LORA_HEADER_EXPLICIT,
		Preamble:       p.PreambleLen,
		Ldr:            sx126x.SX126X_LORA_LOW_DATA_RATE_OPTIMIZE_OFF,
		Iq:             sx126x.SX126X_LORA_IQ_STANDARD,
		Crc:            sx126x.SX126X_LORA_CRC_ON,
		SyncWord:       sx126x.SX126X_LORA_MAC_PRIVATE_SYNCWORD,
		LoraTxPowerDBm: p.PowerDbm,
	})
	return nil
}

// Standby stops the background receive loop and waits for it to exit
// before returning, so the caller can rely on the SPI bus being free of
// any pending LoraRx call the moment Standby returns.
func (d *Driver) Standby() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	close(d.stop)
	stopped := d.stopped
	d.running = false
	d.mu.Unlock()

	<-stopped
	return nil
}

// StartReceive arms continuous receive by starting a background loop
// that repeatedly polls LoraRx and queues whatever it returns.
func (d *Driver) StartReceive() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.stop = make(chan struct{})
	d.stopped = make(chan struct{})
	d.running = true
	stop, stopped := d.stop, d.stopped
	d.mu.Unlock()

	go d.receiveLoop(stop, stopped)
	return nil
}

func (d *Driver) receiveLoop(stop, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-stop:
			return
		default:
		}

		pkt, err := d.dev.LoraRx(rxPollTimeoutMs)
		if err != nil || len(pkt) == 0 {
			continue
		}

		select {
		case d.rx <- pkt:
		default:
			// receive queue full: this new packet is dropped and the
			// queued ones are kept.
		}
		if d.controller != nil {
			d.controller.Signal()
		}
	}
}

// Transmit blocks until LoraTx reports completion or its own timeout.
func (d *Driver) Transmit(buf []byte) error {
	frame := make([]byte, len(buf))
	copy(frame, buf)

	err := d.dev.LoraTx(frame, txTimeoutMs)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "timeout") {
		return radio.ErrTxTimeout{}
	}
	return radio.ErrHardware{Cause: err}
}

// ReceiveInto drains the background receive loop's queue; it never
// blocks and never touches the SPI bus directly.
func (d *Driver) ReceiveInto(buf []byte) int {
	select {
	case pkt := <-d.rx:
		return copy(buf, pkt)
	default:
		return 0
	}
}

type errNotDetected struct{}

func (errNotDetected) Error() string { return "sx126x: device not detected" }
