// Package mem provides the memory that sits behind the peripheral.
package mem

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfCapacity is returned when an access touches bytes beyond the
// capacity of a storage.
var ErrOutOfCapacity = errors.New("access beyond storage capacity")

// DefaultUnitSize is the allocation granularity of a Storage.
const DefaultUnitSize = 4096

// A Storage keeps the bytes of a memory.
//
// The storage is managed in units, similar to pages. A unit is allocated
// the first time one of its bytes is touched, so a large and mostly empty
// storage stays cheap.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity.
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithUnitSize(capacity, DefaultUnitSize)
}

// NewStorageWithUnitSize creates a storage that allocates unitSize bytes at
// a time.
func NewStorageWithUnitSize(capacity, unitSize uint64) *Storage {
	if unitSize == 0 {
		panic("storage unit size must not be 0")
	}

	return &Storage{
		unitSize: unitSize,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the number of bytes in the storage.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// NumAllocatedUnits returns how many units have been touched.
func (s *Storage) NumAllocatedUnits() int {
	return len(s.data)
}

func (s *Storage) checkRange(address, length uint64) error {
	if address >= s.capacity || length > s.capacity-address {
		return fmt.Errorf("%w: %d bytes at %#x, capacity %#x",
			ErrOutOfCapacity, length, address, s.capacity)
	}

	return nil
}

func (s *Storage) unit(address uint64) []byte {
	baseAddr, _ := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns length bytes starting at address.
func (s *Storage) Read(address, length uint64) ([]byte, error) {
	if err := s.checkRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)
	currAddr := address
	offset := uint64(0)

	for offset < length {
		unit := s.unit(currAddr)
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		n := min(length-offset, baseAddr+s.unitSize-currAddr)

		copy(res[offset:offset+n], unit[inUnitAddr:inUnitAddr+n])
		offset += n
		currAddr += n
	}

	return res, nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))
	if err := s.checkRange(address, length); err != nil {
		return err
	}

	currAddr := address
	offset := uint64(0)

	for offset < length {
		unit := s.unit(currAddr)
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		n := min(length-offset, baseAddr+s.unitSize-currAddr)

		copy(unit[inUnitAddr:inUnitAddr+n], data[offset:offset+n])
		offset += n
		currAddr += n
	}

	return nil
}

// ReadWord reads a little-endian word of size bytes.
func (s *Storage) ReadWord(address uint64, size int) (uint64, error) {
	b, err := s.Read(address, uint64(size))
	if err != nil {
		return 0, err
	}

	var buf [8]byte
	copy(buf[:], b)

	return binary.LittleEndian.Uint64(buf[:]), nil
}

// WriteWord writes the bytes of a little-endian word of size bytes whose
// bit is set in sel. Other bytes keep their value.
func (s *Storage) WriteWord(
	address uint64,
	size int,
	value uint64,
	sel uint8,
) error {
	if err := s.checkRange(address, uint64(size)); err != nil {
		return err
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)

	for i := 0; i < size; i++ {
		if sel&(1<<i) == 0 {
			continue
		}

		if err := s.Write(address+uint64(i), buf[i:i+1]); err != nil {
			return err
		}
	}

	return nil
}
