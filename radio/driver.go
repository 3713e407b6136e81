// Package radio implements the LoRa half-duplex radio controller (C3): a
// single mutex-guarded state machine layered on a Driver boundary
// interface that stands in for the SPI/GPIO transceiver and its register
// programming.
package radio

import "time"

// Params configures the transceiver's modulation. This node's deployment
// uses one fixed set of values; see DefaultParams.
type Params struct {
	FrequencyHz     uint32
	BandwidthHz     uint32
	SpreadingFactor uint8
	CodingRate      uint8 // denominator, e.g. 7 for 4/7
	SyncWord        uint8
	PowerDbm        int8
	PreambleLen     uint16
	TCXODelay       time.Duration
}

// DefaultParams are the canonical modulation parameters for this
// deployment: 434 MHz, 500 kHz BW, SF7, CR4/7, private sync word, +22 dBm,
// preamble 8, TCXO 1.6 ms.
var DefaultParams = Params{
	FrequencyHz:     434_000_000,
	BandwidthHz:     500_000,
	SpreadingFactor: 7,
	CodingRate:      7,
	SyncWord:        0x12, // private, non-LoRaWAN sync word
	PowerDbm:        22,
	PreambleLen:     8,
	TCXODelay:       1600 * time.Microsecond,
}

// Driver is the boundary interface for the LoRa transceiver: SPI/GPIO
// wiring and register-level modulation programming are out of scope and
// live behind this interface's two implementations (radio/lora for real
// hardware, radio/simradio for host tests).
type Driver interface {
	// Begin configures the transceiver per p. Returns an error only on
	// unrecoverable hardware failure.
	Begin(p Params) error
	// StartReceive arms continuous-receive mode.
	StartReceive() error
	// Standby disables both TX and RX paths.
	Standby() error
	// Transmit sends buf and blocks until the transceiver signals TX
	// done or the driver's internal timeout fires.
	Transmit(buf []byte) error
	// ReceiveInto copies the oldest pending received packet into buf and
	// returns its length, or 0 if none is pending.
	ReceiveInto(buf []byte) int
}

// ErrTxTimeout is returned by Driver.Transmit when the hardware TX-done
// signal never arrives within the driver's internal deadline.
type ErrTxTimeout struct{}

func (ErrTxTimeout) Error() string { return "radio: tx timeout" }

// ErrHardware wraps an unrecoverable transceiver failure.
type ErrHardware struct{ Cause error }

func (e ErrHardware) Error() string { return "radio: hardware error: " + e.Cause.Error() }
func (e ErrHardware) Unwrap() error { return e.Cause }
