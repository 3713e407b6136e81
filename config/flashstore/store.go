//go:build tinygo || baremetal

// Package flashstore implements config.KVStore against an SPI/QSPI NOR
// flash chip via tinygo.org/x/drivers/flash. The two persisted records
// are small enough to fit in a single erase sector, so every Set rewrites
// the whole sector: read the current record, patch the one field, erase,
// rewrite.
package flashstore

import (
	"machine"

	"tinygo.org/x/drivers/flash"

	"github.com/user/lora-hr-relay/config"
)

// Sector layout within the reserved config sector:
//
//	offset 0: paired_addr presence byte (0 absent, 1 present)
//	offset 1: paired_addr, 6 bytes
//	offset 7: name_map_key presence byte
//	offset 8: name_map_key, 1 byte
const (
	sectorOffset   = 0
	offAddrPresent = 0
	offAddr        = 1
	offKeyPresent  = 7
	offKeyValue    = 8
	recordSize     = 9
)

// KVStore implements config.KVStore against onboard NOR flash.
type KVStore struct {
	dev *flash.Device
}

// New returns a KVStore backed by the QSPI flash on the standard pins for
// this board's flash.NewQSPI wiring.
func New() *KVStore {
	dev := flash.NewQSPI(
		machine.QSPI_CS,
		machine.QSPI_SCK,
		machine.QSPI_DATA0,
		machine.QSPI_DATA1,
		machine.QSPI_DATA2,
		machine.QSPI_DATA3,
	)
	return &KVStore{dev: dev}
}

func (s *KVStore) Init() error {
	return s.dev.Configure(&flash.DeviceConfig{Identifier: flash.DefaultDeviceIdentifier})
}

func (s *KVStore) Get(key string) ([]byte, error) {
	buf := make([]byte, recordSize)
	if _, err := s.dev.ReadAt(buf, sectorOffset); err != nil {
		return nil, config.ErrNotFound
	}

	switch key {
	case config.KeyPairedAddr:
		if buf[offAddrPresent] != 1 {
			return nil, config.ErrNotFound
		}
		return buf[offAddr : offAddr+6], nil
	case config.KeyNameMapKey:
		if buf[offKeyPresent] != 1 {
			return nil, config.ErrNotFound
		}
		return buf[offKeyValue : offKeyValue+1], nil
	default:
		return nil, config.ErrNotFound
	}
}

func (s *KVStore) Set(key string, value []byte) error {
	buf := make([]byte, recordSize)
	// Best-effort read of the existing record so the field we're not
	// touching survives the sector erase below.
	_, _ = s.dev.ReadAt(buf, sectorOffset)

	switch key {
	case config.KeyPairedAddr:
		if len(value) == 0 {
			buf[offAddrPresent] = 0
		} else {
			buf[offAddrPresent] = 1
			copy(buf[offAddr:offAddr+6], value)
		}
	case config.KeyNameMapKey:
		if len(value) == 0 {
			buf[offKeyPresent] = 0
		} else {
			buf[offKeyPresent] = 1
			buf[offKeyValue] = value[0]
		}
	}

	if err := s.dev.EraseSector(sectorOffset); err != nil {
		return err
	}
	_, err := s.dev.WriteAt(buf, sectorOffset)
	return err
}
