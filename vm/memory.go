package vm

import (
	"encoding/binary"
	"fmt"
)

// AddressSpace unifies a host-owned data region, addressed [0, len(data)),
// with a VM-owned stack region immediately above it, addressed
// [len(data), len(data)+len(stack)): two backing slices with a dispatcher
// on address, rather than one materialised buffer.
type AddressSpace struct {
	data  []byte // borrowed: caller retains ownership, must outlive execute
	stack []byte // owned by the VM
}

// dataBase is always 0: map_data attaches the host buffer at guest address 0.
const dataBase = 0

func newAddressSpace(stackSize uint64) *AddressSpace {
	return &AddressSpace{stack: make([]byte, stackSize)}
}

// setData attaches (or detaches, with buf == nil) the host-owned data
// region and returns its base address.
func (a *AddressSpace) setData(buf []byte) uint64 {
	a.data = buf
	return dataBase
}

func (a *AddressSpace) dataLen() uint64  { return uint64(len(a.data)) }
func (a *AddressSpace) stackLen() uint64 { return uint64(len(a.stack)) }
func (a *AddressSpace) totalLen() uint64 { return a.dataLen() + a.stackLen() }

// slice returns the backing bytes for [addr, addr+width), or an error if the
// access falls outside [0, dataLen+stackLen) or straddles the data/stack
// seam.
func (a *AddressSpace) slice(addr, width uint64) ([]byte, error) {
	end, overflow := addAddr(addr, width)
	if overflow || end > a.totalLen() {
		return nil, &ErrOutOfBounds{Addr: addr, Width: width}
	}
	d := a.dataLen()
	if addr < d {
		if end > d {
			return nil, &ErrOutOfBounds{Addr: addr, Width: width} // straddles the seam
		}
		return a.data[addr:end], nil
	}
	return a.stack[addr-d : end-d], nil
}

// addAddr adds two uint64s and reports whether the sum overflowed.
func addAddr(a, b uint64) (sum uint64, overflow bool) {
	sum = a + b
	return sum, sum < a
}

// Load reads a little-endian unsigned value of the given width (in bytes:
// 1, 2, 4, or 8) from addr.
func (a *AddressSpace) Load(addr, width uint64) (uint64, error) {
	b, err := a.slice(addr, width)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 8:
		return binary.LittleEndian.Uint64(b), nil
	default:
		panic(fmt.Sprintf("unsupported memory access width: %d", width))
	}
}

// Store writes the low `width` bytes of value, little-endian, to addr.
func (a *AddressSpace) Store(addr, width, value uint64) error {
	b, err := a.slice(addr, width)
	if err != nil {
		return err
	}
	switch width {
	case 1:
		b[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(b, value)
	default:
		panic(fmt.Sprintf("unsupported memory access width: %d", width))
	}
	return nil
}
