package vm

import "github.com/nstephens/rv64im/riscv"

// validate performs a pre-execution dry-run pass: decode and dispatch
// every 4-byte-aligned word of program against a scratch state with the
// data region detached, so any load/store is guaranteed to fault and is
// discarded. Only decode-level errors (riscv.ErrUnknownOpcode /
// riscv.ErrUnknownFunct) are collected; everything else — out-of-bounds
// memory, control-flow effects — is thrown away.
func validate(program []byte) error {
	scratch := &state{}
	detached := &AddressSpace{stack: make([]byte, 0)}

	var errs []error
	for pc := uint64(0); pc+4 <= uint64(len(program)); pc += 4 {
		*scratch = state{pc: pc}
		if err := stepOnce(scratch, detached, program); err != nil && isDecodeError(err) {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &ErrInvalidProgram{Errs: errs}
	}
	return nil
}

// isDecodeError reports whether err is a structural decode failure, as
// opposed to a memory fault the detached data region is expected to
// produce for any load/store instruction.
func isDecodeError(err error) bool {
	switch err.(type) {
	case *riscv.ErrUnknownOpcode, *riscv.ErrUnknownFunct:
		return true
	default:
		return false
	}
}
