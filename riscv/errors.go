package riscv

import "fmt"

// ErrUnknownOpcode is raised when an instruction word's opcode field has no
// defined RV64IM semantics.
type ErrUnknownOpcode struct {
	Opcode uint32
}

func (e *ErrUnknownOpcode) Error() string {
	return fmt.Sprintf("riscv: unknown opcode 0x%02x", e.Opcode)
}

// ErrUnknownFunct is raised when an instruction's opcode is recognised but
// its funct3/funct7 combination is not (e.g. an undefined shift-type bit,
// or an ALU op with no assigned funct3).
type ErrUnknownFunct struct {
	Opcode, Funct3, Funct7 uint32
}

func (e *ErrUnknownFunct) Error() string {
	return fmt.Sprintf("riscv: unknown funct3/funct7 (0x%x/0x%x) for opcode 0x%02x", e.Funct3, e.Funct7, e.Opcode)
}
