package vm

import (
	"errors"
	"fmt"
)

// ErrNoDataMemory is returned by ExecuteProgram when the VM has no memory
// at all: no data region is attached and the stack has size 0. A VM with a
// non-empty stack executes without a data region.
var ErrNoDataMemory = errors.New("vm: execute called with no data region attached")

// ErrProgramTooLarge is returned by LoadProgram when the image exceeds the
// 1 MiB size bound.
type ErrProgramTooLarge struct {
	Size int
}

func (e *ErrProgramTooLarge) Error() string {
	return fmt.Sprintf("vm: program of %d bytes exceeds the 1 MiB limit", e.Size)
}

// ErrLoadFailed wraps a failure to read a program image from its source.
type ErrLoadFailed struct {
	Path string
	Err  error
}

func (e *ErrLoadFailed) Error() string {
	return fmt.Sprintf("vm: failed to load program from %q: %v", e.Path, e.Err)
}

func (e *ErrLoadFailed) Unwrap() error { return e.Err }

// ErrBadRegister is returned by RegisterGet/RegisterSet for an out-of-range
// register index.
type ErrBadRegister struct {
	Index int
}

func (e *ErrBadRegister) Error() string {
	return fmt.Sprintf("vm: register index %d out of range [0,32)", e.Index)
}

// ErrOutOfBounds is returned by memory accesses that fall outside
// [0, dataLen+stackLen) or that straddle the data/stack seam.
type ErrOutOfBounds struct {
	Addr  uint64
	Width uint64
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("vm: memory access at 0x%x width %d out of bounds", e.Addr, e.Width)
}

// ErrInstructionBudgetExceeded is returned when instruction_budget
// instructions have been executed and the program has neither halted nor
// run off the end of its image; the next instruction is not decoded.
type ErrInstructionBudgetExceeded struct {
	Budget uint64
}

func (e *ErrInstructionBudgetExceeded) Error() string {
	return fmt.Sprintf("vm: exceeded instruction budget of %d", e.Budget)
}

// ErrInvalidProgram is returned by LoadProgram when the validator's
// dry-run pass records one or more structural (decode-level) errors.
type ErrInvalidProgram struct {
	Errs []error
}

func (e *ErrInvalidProgram) Error() string {
	return fmt.Sprintf("vm: invalid program: %d structural error(s), first: %v", len(e.Errs), e.Errs[0])
}

func (e *ErrInvalidProgram) Unwrap() []error { return e.Errs }
