package vm

import "github.com/nstephens/rv64im/riscv"

// stepOnce fetches, decodes, and executes a single instruction against st
// and mem, reading the word at st.pc from program. It is the one dispatch
// both ExecuteProgram's run loop and the program validator's dry-run pass
// use (see validator.go) — a deliberate single-decoder design serving both
// execution and static linting.
//
// x0 is clamped back to 0 on the way out rather than guarded on every
// write.
func stepOnce(st *state, mem *AddressSpace, program []byte) error {
	pc := st.pc
	word, err := fetch(program, pc)
	if err != nil {
		return err
	}
	instr := riscv.Decode(word)

	switch instr.Opcode {
	case riscv.OpLoad:
		if err := execLoad(st, mem, instr, pc); err != nil {
			return err
		}
	case riscv.OpStore:
		if err := execStore(st, mem, instr, pc); err != nil {
			return err
		}
	case riscv.OpBranch:
		if err := execBranch(st, instr, pc); err != nil {
			return err
		}
	case riscv.OpImm:
		if err := execOpImm(st, instr, pc); err != nil {
			return err
		}
	case riscv.OpImm32:
		if err := execOpImm32(st, instr, pc); err != nil {
			return err
		}
	case riscv.OpReg:
		if err := execOpReg(st, instr, pc); err != nil {
			return err
		}
	case riscv.OpReg32:
		if err := execOpReg32(st, instr, pc); err != nil {
			return err
		}
	case riscv.OpLUI:
		st.setReg(instr.Rd, uint64(instr.ImmU))
		st.pc = pc + 4
	case riscv.OpAUIPC:
		st.setReg(instr.Rd, pc+uint64(instr.ImmU))
		st.pc = pc + 4
	case riscv.OpJAL:
		st.setReg(instr.Rd, pc+4)
		st.pc = uint64(int64(pc) + instr.ImmJ)
	case riscv.OpJALR:
		rs1 := st.reg(instr.Rs1)
		target := (rs1 + uint64(instr.ImmI)) &^ 1
		st.setReg(instr.Rd, pc+4)
		st.pc = target
	case riscv.OpFence:
		st.pc = pc + 4
	case riscv.OpSystem:
		if word == riscv.EBREAKInstruction {
			st.halted = true
		}
		st.pc = pc + 4
	default:
		return &riscv.ErrUnknownOpcode{Opcode: instr.Opcode}
	}

	st.registers[0] = 0
	st.step++
	return nil
}

// fetch reads the little-endian 32-bit word at pc, failing if the 4 bytes
// don't lie entirely within the program image.
func fetch(program []byte, pc uint64) (uint32, error) {
	if pc+4 > uint64(len(program)) {
		return 0, &ErrOutOfBounds{Addr: pc, Width: 4}
	}
	return uint32(program[pc]) | uint32(program[pc+1])<<8 | uint32(program[pc+2])<<16 | uint32(program[pc+3])<<24, nil
}

func execLoad(st *state, mem *AddressSpace, instr riscv.Instruction, pc uint64) error {
	if instr.Funct3 > riscv.Funct3WordU {
		return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3}
	}
	width := riscv.WidthFromFunct3(instr.Funct3)
	addr := st.reg(instr.Rs1) + uint64(instr.ImmI)
	v, err := mem.Load(addr, width)
	if err != nil {
		return err
	}
	if riscv.LoadIsSigned(instr.Funct3) && width < 8 {
		v = signExtend(v, uint(width*8-1))
	}
	st.setReg(instr.Rd, v)
	st.pc = pc + 4
	return nil
}

func execStore(st *state, mem *AddressSpace, instr riscv.Instruction, pc uint64) error {
	if instr.Funct3 > riscv.Funct3Double {
		return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3}
	}
	width := riscv.WidthFromFunct3(instr.Funct3)
	addr := st.reg(instr.Rs1) + uint64(instr.ImmS)
	if err := mem.Store(addr, width, st.reg(instr.Rs2)); err != nil {
		return err
	}
	st.pc = pc + 4
	return nil
}

func execBranch(st *state, instr riscv.Instruction, pc uint64) error {
	a, b := st.reg(instr.Rs1), st.reg(instr.Rs2)
	var taken bool
	switch instr.Funct3 {
	case riscv.Funct3BEQ:
		taken = a == b
	case riscv.Funct3BNE:
		taken = a != b
	case riscv.Funct3BLT:
		taken = int64(a) < int64(b)
	case riscv.Funct3BGE:
		taken = int64(a) >= int64(b)
	case riscv.Funct3BLTU:
		taken = a < b
	case riscv.Funct3BGEU:
		taken = a >= b
	default:
		return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3}
	}
	if taken {
		st.pc = uint64(int64(pc) + instr.ImmB)
	} else {
		st.pc = pc + 4
	}
	return nil
}

func execOpImm(st *state, instr riscv.Instruction, pc uint64) error {
	rs1 := st.reg(instr.Rs1)
	imm := instr.ImmI
	var rd uint64
	switch instr.Funct3 {
	case riscv.Funct3AddSub:
		rd = rs1 + uint64(imm)
	case riscv.Funct3SLL:
		rd = rs1 << (uint64(imm) & 0x3F)
	case riscv.Funct3SLT:
		rd = boolU64(int64(rs1) < imm)
	case riscv.Funct3SLTU:
		rd = boolU64(rs1 < uint64(imm))
	case riscv.Funct3XOR:
		rd = rs1 ^ uint64(imm)
	case riscv.Funct3SR:
		shamt := uint64(imm) & 0x3F
		switch instr.Funct7 &^ 0x1 { // funct7 bit 0 is shamt[5]
		case riscv.Funct7Base:
			rd = rs1 >> shamt
		case riscv.Funct7AltSub:
			rd = uint64(int64(rs1) >> shamt)
		default:
			return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
		}
	case riscv.Funct3OR:
		rd = rs1 | uint64(imm)
	case riscv.Funct3AND:
		rd = rs1 & uint64(imm)
	}
	st.setReg(instr.Rd, rd)
	st.pc = pc + 4
	return nil
}

func execOpImm32(st *state, instr riscv.Instruction, pc uint64) error {
	rs1 := uint32(st.reg(instr.Rs1))
	imm := instr.ImmI
	var rd uint32
	switch instr.Funct3 {
	case riscv.Funct3AddSub: // ADDIW
		rd = rs1 + uint32(imm)
	case riscv.Funct3SLL: // SLLIW
		rd = rs1 << (uint32(imm) & 0x1F)
	case riscv.Funct3SR: // SRLIW / SRAIW
		shamt := uint32(imm) & 0x1F
		switch instr.Funct7 {
		case riscv.Funct7Base:
			rd = rs1 >> shamt
		case riscv.Funct7AltSub:
			rd = uint32(int32(rs1) >> shamt)
		default:
			return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
		}
	default:
		return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3}
	}
	st.setReg(instr.Rd, mask32(uint64(rd)))
	st.pc = pc + 4
	return nil
}

func execOpReg(st *state, instr riscv.Instruction, pc uint64) error {
	a, b := st.reg(instr.Rs1), st.reg(instr.Rs2)
	var rd uint64
	switch instr.Funct7 {
	case riscv.Funct7MulDiv:
		v, ok := mulDiv64(instr.Funct3, a, b)
		if !ok {
			return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
		}
		rd = v
	case riscv.Funct7Base:
		v, ok := aluReg(instr.Funct3, a, b, false)
		if !ok {
			return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
		}
		rd = v
	case riscv.Funct7AltSub:
		v, ok := aluReg(instr.Funct3, a, b, true)
		if !ok {
			return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
		}
		rd = v
	default:
		return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
	}
	st.setReg(instr.Rd, rd)
	st.pc = pc + 4
	return nil
}

// aluReg computes the non-M-extension register-register ALU ops. alt
// selects SUB/SRA over ADD/SRL (funct7 bit 5).
func aluReg(funct3 uint32, a, b uint64, alt bool) (uint64, bool) {
	switch funct3 {
	case riscv.Funct3AddSub:
		if alt {
			return a - b, true
		}
		return a + b, true
	case riscv.Funct3SLL:
		if alt {
			return 0, false
		}
		return a << (b & 0x3F), true
	case riscv.Funct3SLT:
		if alt {
			return 0, false
		}
		return boolU64(int64(a) < int64(b)), true
	case riscv.Funct3SLTU:
		if alt {
			return 0, false
		}
		return boolU64(a < b), true
	case riscv.Funct3XOR:
		if alt {
			return 0, false
		}
		return a ^ b, true
	case riscv.Funct3SR:
		if alt {
			return uint64(int64(a) >> (b & 0x3F)), true
		}
		return a >> (b & 0x3F), true
	case riscv.Funct3OR:
		if alt {
			return 0, false
		}
		return a | b, true
	case riscv.Funct3AND:
		if alt {
			return 0, false
		}
		return a & b, true
	default:
		return 0, false
	}
}

// mulDiv64 computes the M-extension register-register ops.
func mulDiv64(funct3 uint32, a, b uint64) (uint64, bool) {
	switch funct3 {
	case riscv.Funct3MUL:
		return a * b, true
	case riscv.Funct3MULH:
		return mulHigh64(a, b, true, true), true
	case riscv.Funct3MULHSU:
		return mulHigh64(a, b, true, false), true
	case riscv.Funct3MULHU:
		return mulHigh64(a, b, false, false), true
	case riscv.Funct3DIV:
		return sdiv64Checked(a, b), true
	case riscv.Funct3DIVU:
		if b == 0 {
			return ^uint64(0), true
		}
		return a / b, true
	case riscv.Funct3REM:
		return smod64Checked(a, b), true
	case riscv.Funct3REMU:
		if b == 0 {
			return a, true
		}
		return a % b, true
	default:
		return 0, false
	}
}

// sdiv64Checked is DIV: divisor 0 returns all-ones, and the one signed
// overflow case (INT64_MIN / -1, which a native int64 divide would trap
// on) returns INT64_MIN unchanged.
func sdiv64Checked(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	if a == 1<<63 && b == ^uint64(0) {
		return a
	}
	return uint64(sdiv64(int64(a), int64(b)))
}

// smod64Checked is REM: divisor 0 returns the dividend unchanged, and
// INT64_MIN % -1 is 0 (no trap).
func smod64Checked(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	if a == 1<<63 && b == ^uint64(0) {
		return 0
	}
	return uint64(smod64(int64(a), int64(b)))
}

func execOpReg32(st *state, instr riscv.Instruction, pc uint64) error {
	a, b := uint32(st.reg(instr.Rs1)), uint32(st.reg(instr.Rs2))
	var rd uint32
	switch instr.Funct7 {
	case riscv.Funct7MulDiv:
		v, ok := mulDiv32(instr.Funct3, a, b)
		if !ok {
			return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
		}
		rd = v
	case riscv.Funct7Base:
		v, ok := aluReg32(instr.Funct3, a, b, false)
		if !ok {
			return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
		}
		rd = v
	case riscv.Funct7AltSub:
		v, ok := aluReg32(instr.Funct3, a, b, true)
		if !ok {
			return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
		}
		rd = v
	default:
		return &riscv.ErrUnknownFunct{Opcode: instr.Opcode, Funct3: instr.Funct3, Funct7: instr.Funct7}
	}
	st.setReg(instr.Rd, mask32(uint64(rd)))
	st.pc = pc + 4
	return nil
}

func aluReg32(funct3 uint32, a, b uint32, alt bool) (uint32, bool) {
	switch funct3 {
	case riscv.Funct3AddSub:
		if alt {
			return a - b, true
		}
		return a + b, true
	case riscv.Funct3SLL:
		if alt {
			return 0, false
		}
		return a << (b & 0x1F), true
	case riscv.Funct3SR:
		if alt {
			return uint32(int32(a) >> (b & 0x1F)), true
		}
		return a >> (b & 0x1F), true
	default:
		return 0, false
	}
}

func mulDiv32(funct3 uint32, a, b uint32) (uint32, bool) {
	switch funct3 {
	case riscv.Funct3MUL: // MULW
		return a * b, true
	case riscv.Funct3DIV: // DIVW
		if b == 0 {
			return ^uint32(0), true
		}
		if a == 1<<31 && b == ^uint32(0) {
			return a, true
		}
		return uint32(int32(a) / int32(b)), true
	case riscv.Funct3DIVU: // DIVUW
		if b == 0 {
			return ^uint32(0), true
		}
		return a / b, true
	case riscv.Funct3REM: // REMW
		if b == 0 {
			return a, true
		}
		if a == 1<<31 && b == ^uint32(0) {
			return 0, true
		}
		return uint32(int32(a) % int32(b)), true
	case riscv.Funct3REMU: // REMUW
		if b == 0 {
			return a, true
		}
		return a % b, true
	default:
		return 0, false
	}
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
