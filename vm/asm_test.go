package vm

import (
	"encoding/binary"

	"github.com/nstephens/rv64im/riscv"
)

// The helpers below hand-assemble RV64IM instruction words for tests. They
// exist only to make test programs readable; they are not part of the VM.

func rType(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func iType(opcode, rd, funct3, rs1 uint32, imm int64) uint32 {
	return (uint32(imm)&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func iTypeShift(opcode, rd, funct3, rs1, shamt, funct7 uint32) uint32 {
	return funct7<<25 | shamt<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func sType(opcode, funct3, rs1, rs2 uint32, imm int64) uint32 {
	u := uint32(imm)
	return (u&0xFE0)<<20 | rs2<<20 | rs1<<15 | funct3<<12 | (u&0x1F)<<7 | opcode
}

func bType(funct3, rs1, rs2 uint32, imm int64) uint32 {
	u := uint32(imm)
	bit12 := (u >> 12) & 0x1
	bits10to5 := (u >> 5) & 0x3F
	bit11 := (u >> 11) & 0x1
	bits4to1 := (u >> 1) & 0xF
	return bit12<<31 | bits10to5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | bits4to1<<8 | bit11<<7 | riscv.OpBranch
}

func uType(opcode, rd uint32, imm20 uint32) uint32 {
	return (imm20 << 12) | rd<<7 | opcode
}

func jType(rd uint32, imm int64) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 0x1
	bits10to1 := (u >> 1) & 0x3FF
	bit11 := (u >> 11) & 0x1
	bits19to12 := (u >> 12) & 0xFF
	return bit20<<31 | bits10to1<<21 | bit11<<20 | bits19to12<<12 | rd<<7 | riscv.OpJAL
}

func addi(rd, rs1 uint32, imm int64) uint32 {
	return iType(riscv.OpImm, rd, riscv.Funct3AddSub, rs1, imm)
}
func addiw(rd, rs1 uint32, imm int64) uint32 {
	return iType(riscv.OpImm32, rd, riscv.Funct3AddSub, rs1, imm)
}
func slti(rd, rs1 uint32, imm int64) uint32 {
	return iType(riscv.OpImm, rd, riscv.Funct3SLT, rs1, imm)
}
func lui(rd uint32, imm20 uint32) uint32 {
	return uType(riscv.OpLUI, rd, imm20)
}
func auipc(rd uint32, imm20 uint32) uint32 {
	return uType(riscv.OpAUIPC, rd, imm20)
}
func jal(rd uint32, imm int64) uint32 {
	return jType(rd, imm)
}
func jalr(rd, rs1 uint32, imm int64) uint32 {
	return iType(riscv.OpJALR, rd, 0, rs1, imm)
}
func add(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3AddSub, rs1, rs2, riscv.Funct7Base)
}
func sub(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3AddSub, rs1, rs2, riscv.Funct7AltSub)
}
func xorReg(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3XOR, rs1, rs2, riscv.Funct7Base)
}
func slt(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3SLT, rs1, rs2, riscv.Funct7Base)
}
func sltu(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3SLTU, rs1, rs2, riscv.Funct7Base)
}
func mulh(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3MULH, rs1, rs2, riscv.Funct7MulDiv)
}
func mulhu(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3MULHU, rs1, rs2, riscv.Funct7MulDiv)
}
func mul(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3MUL, rs1, rs2, riscv.Funct7MulDiv)
}
func div(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3DIV, rs1, rs2, riscv.Funct7MulDiv)
}
func rem(rd, rs1, rs2 uint32) uint32 {
	return rType(riscv.OpReg, rd, riscv.Funct3REM, rs1, rs2, riscv.Funct7MulDiv)
}
func beq(rs1, rs2 uint32, imm int64) uint32 {
	return bType(riscv.Funct3BEQ, rs1, rs2, imm)
}
func lb(rd, rs1 uint32, imm int64) uint32 {
	return iType(riscv.OpLoad, rd, riscv.Funct3Byte, rs1, imm)
}
func lbu(rd, rs1 uint32, imm int64) uint32 {
	return iType(riscv.OpLoad, rd, riscv.Funct3ByteU, rs1, imm)
}
func ld(rd, rs1 uint32, imm int64) uint32 {
	return iType(riscv.OpLoad, rd, riscv.Funct3Double, rs1, imm)
}
func sb(rs1, rs2 uint32, imm int64) uint32 {
	return sType(riscv.OpStore, riscv.Funct3Byte, rs1, rs2, imm)
}
func sd(rs1, rs2 uint32, imm int64) uint32 {
	return sType(riscv.OpStore, riscv.Funct3Double, rs1, rs2, imm)
}
func ebreak() uint32 { return riscv.EBREAKInstruction }

// assemble packs a sequence of instruction words into a little-endian
// flat binary image.
func assemble(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}
