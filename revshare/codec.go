package revshare

import (
	"encoding/binary"
	"math"

	"github.com/bitfsorg/libsynapse-go/errors"
)

const (
	expertHeaderSize = 78 // id(8) + total_weight(32) + lifetime_earnings(32) + num_entries(4) + key_len(2)
	expertEntrySize  = 40 // pool_id(8) + weight(32)
)

// SerializeExpert serializes an Expert to binary format.
func SerializeExpert(e *Expert) ([]byte, error) {
	if len(e.Entries) > math.MaxUint32 {
		return nil, errors.Wrapf(ErrTooManyEntries, "%d entries", len(e.Entries))
	}
	if len(e.Key) > MaxKeyLen {
		return nil, errors.Wrapf(errors.ErrInvalidName, "revshare: key is %d bytes", len(e.Key))
	}
	size := expertHeaderSize + expertEntrySize*len(e.Entries) + len(e.Key)
	buf := make([]byte, size)
	offset := 0

	binary.BigEndian.PutUint64(buf[offset:offset+8], e.ID)
	offset += 8

	tw := e.TotalWeight.Bytes32()
	copy(buf[offset:offset+32], tw[:])
	offset += 32

	le := e.LifetimeEarnings.Bytes32()
	copy(buf[offset:offset+32], le[:])
	offset += 32

	binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(len(e.Entries)))
	offset += 4

	binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(len(e.Key)))
	offset += 2

	for _, entry := range e.Entries {
		binary.BigEndian.PutUint64(buf[offset:offset+8], entry.PoolID)
		offset += 8
		w := entry.Weight.Bytes32()
		copy(buf[offset:offset+32], w[:])
		offset += 32
	}

	copy(buf[offset:], e.Key)
	return buf, nil
}

// DeserializeExpert deserializes binary data into an Expert.
func DeserializeExpert(data []byte) (*Expert, error) {
	if len(data) < expertHeaderSize {
		return nil, errors.Wrapf(ErrInvalidExpertData, "too short (%d bytes)", len(data))
	}
	offset := 0

	e := &Expert{}
	e.ID = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8

	e.TotalWeight.SetBytes32(data[offset : offset+32])
	offset += 32

	e.LifetimeEarnings.SetBytes32(data[offset : offset+32])
	offset += 32

	numEntries := int(binary.BigEndian.Uint32(data[offset : offset+4]))
	offset += 4

	keyLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
	offset += 2

	expectedSize := expertHeaderSize + expertEntrySize*numEntries + keyLen
	if len(data) != expectedSize {
		return nil, errors.Wrapf(ErrInvalidExpertData, "expected %d bytes for %d entries, got %d",
			expectedSize, numEntries, len(data))
	}

	e.Entries = make([]Entry, numEntries)
	for i := 0; i < numEntries; i++ {
		e.Entries[i].PoolID = binary.BigEndian.Uint64(data[offset : offset+8])
		offset += 8
		e.Entries[i].Weight.SetBytes32(data[offset : offset+32])
		offset += 32
	}

	e.Key = string(data[offset:])
	return e, nil
}
