// Package vm implements the RV64IM embeddable interpreter: address-space
// management, per-opcode execution, the pre-execution validator, and the
// VM façade a host program drives directly.
package vm

import (
	"os"
	"unsafe"

	"github.com/ethereum/go-ethereum/log"
)

const maxProgramSize = 1 << 20 // 1 MiB

// VM is the host-facing façade: construct with a stack size, optionally
// attach a data region, load a program, then execute it. All state
// (registers, pc, halt flag, instruction counter) persists across
// ExecuteProgram calls; LoadProgram replaces only the program image and
// leaves that state as it is.
type VM struct {
	mem     *AddressSpace
	st      state
	program []byte

	log           log.Logger
	defaultBudget uint64
	tracer        Tracer
}

// New allocates a VM with a stack of the given size and zeroed registers.
func New(stackSize uint64, opts ...Option) *VM {
	v := &VM{
		mem:           newAddressSpace(stackSize),
		log:           log.Root(),
		defaultBudget: defaultInstructionBudget,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LoadProgram replaces the current program image. The image must be no
// larger than 1 MiB; it is then run through the validator, and load
// fails with ErrInvalidProgram if any instruction word decodes to an
// unknown opcode or funct combination.
func (v *VM) LoadProgram(program []byte) error {
	if len(program) > maxProgramSize {
		return &ErrProgramTooLarge{Size: len(program)}
	}
	if err := validate(program); err != nil {
		v.log.Debug("rv64im: program rejected by validator", "size", len(program), "err", err)
		return err
	}
	v.program = program
	v.log.Debug("rv64im: program loaded", "size", len(program))
	return nil
}

// LoadProgramFile reads a flat binary image from disk and loads it via
// LoadProgram. This is the minimal "read bytes from a source" loader the
// façade exposes for host convenience; ELF parsing and other richer
// formats are the host's responsibility.
func (v *VM) LoadProgramFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return &ErrLoadFailed{Path: path, Err: err}
	}
	return v.LoadProgram(b)
}

// MapData attaches buf as the data region, based at guest address 0, and
// returns that base address. buf must outlive any subsequent
// ExecuteProgram call; the VM never takes ownership of it.
func (v *VM) MapData(buf []byte) uint64 {
	return v.mem.setData(buf)
}

// RegisterGet reads register i (0..31).
func (v *VM) RegisterGet(i int) (uint64, error) {
	if i < 0 || i > 31 {
		return 0, &ErrBadRegister{Index: i}
	}
	return v.st.reg(uint32(i)), nil
}

// RegisterSet writes register i (0..31); writes to x0 are silently
// discarded per the ISA.
func (v *VM) RegisterSet(i int, val uint64) error {
	if i < 0 || i > 31 {
		return &ErrBadRegister{Index: i}
	}
	v.st.setReg(uint32(i), val)
	return nil
}

// PC returns the current program counter.
func (v *VM) PC() uint64 { return v.st.pc }

// Halted reports whether the last ExecuteProgram call ended via EBREAK.
func (v *VM) Halted() bool { return v.st.halted }

// InstructionCount returns the total number of instructions decoded
// across every ExecuteProgram call so far — a running counter useful for
// fault-injection harnesses correlating a failure with an instruction
// index without re-deriving it from the budget.
func (v *VM) InstructionCount() uint64 { return v.st.step }

// StackPush decrements x2 (the stack pointer) by sizeof(T), stores v at
// the resulting address, and returns that address.
func StackPush[T ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64](v *VM, val T) (uint64, error) {
	width := uint64(unsafe.Sizeof(val))
	sp := v.st.reg(2) - width
	if err := v.mem.Store(sp, width, toU64(val)); err != nil {
		return 0, err
	}
	v.st.setReg(2, sp)
	return sp, nil
}

// StackPop loads a value of type T from x2 and increments x2 by
// sizeof(T).
func StackPop[T ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64](v *VM) (T, error) {
	var zero T
	width := uint64(unsafe.Sizeof(zero))
	sp := v.st.reg(2)
	raw, err := v.mem.Load(sp, width)
	if err != nil {
		return zero, err
	}
	v.st.setReg(2, sp+width)
	return T(raw), nil
}

func toU64[T ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64](v T) uint64 {
	return uint64(v)
}

// ExecuteProgram sets pc = entry, clears halted, sets x2 to the top of
// the combined data+stack address space, and runs until EBREAK, the pc
// running off the end of the program image, or instructionBudget
// instructions have been decoded (a budget of 0 uses the VM's configured
// default). A memory or decode fault aborts the call and leaves register,
// pc, and stack state exactly as of the faulting instruction.
func (v *VM) ExecuteProgram(entry uint64, instructionBudget uint64) error {
	if v.mem.totalLen() == 0 {
		return ErrNoDataMemory
	}
	if instructionBudget == 0 {
		instructionBudget = v.defaultBudget
	}

	v.st.pc = entry
	v.st.halted = false
	v.st.setReg(2, v.mem.totalLen())

	var decoded uint64
	for {
		if v.st.pc+4 > uint64(len(v.program)) {
			return nil
		}
		if decoded >= instructionBudget {
			return &ErrInstructionBudgetExceeded{Budget: instructionBudget}
		}
		if v.tracer != nil {
			if word, err := fetch(v.program, v.st.pc); err == nil {
				v.log.Trace("rv64im: step", "pc", v.st.pc, "instr", word)
				v.tracer(v.st.pc, word)
			}
		}
		if err := stepOnce(&v.st, v.mem, v.program); err != nil {
			v.log.Debug("rv64im: execution fault", "pc", v.st.pc, "err", err)
			return err
		}
		decoded++
		if v.st.halted {
			return nil
		}
	}
}
