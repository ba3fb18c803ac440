package riscv

// Instruction is a decoded 32-bit RV64IM instruction word. Fields are
// populated regardless of opcode; callers read only the ones their opcode's
// semantics define.
type Instruction struct {
	Raw    uint32
	Opcode uint32
	Rd     uint32
	Rs1    uint32
	Rs2    uint32
	Funct3 uint32
	Funct7 uint32

	ImmI int64
	ImmS int64
	ImmB int64
	ImmJ int64
	ImmU int64
}

// Decode splits a 32-bit instruction word into opcode/register/immediate
// fields. It never fails: unrecognised opcodes are caught by the execution
// engine's dispatch, not here.
func Decode(instr uint32) Instruction {
	return Instruction{
		Raw:    instr,
		Opcode: instr & 0x7F,
		Rd:     (instr >> 7) & 0x1F,
		Rs1:    (instr >> 15) & 0x1F,
		Rs2:    (instr >> 20) & 0x1F,
		Funct3: (instr >> 12) & 0x7,
		Funct7: (instr >> 25) & 0x7F,

		ImmI: immTypeI(instr),
		ImmS: immTypeS(instr),
		ImmB: immTypeB(instr),
		ImmJ: immTypeJ(instr),
		ImmU: immTypeU(instr),
	}
}

// immTypeI sign-extends instr[31:20] — arithmetic right shift of the word,
// read as signed 32-bit, by 20.
func immTypeI(instr uint32) int64 {
	return int64(int32(instr)) >> 20
}

// immTypeS rebuilds the S-type immediate from the I-type one: clear its low
// 5 bits (which carried rs2 in the I-type decode) and splice in rd's field.
func immTypeS(instr uint32) int64 {
	imm := immTypeI(instr)
	return (imm &^ 0x1F) | int64((instr>>7)&0x1F)
}

// immTypeB: sign bit replicated above bit 12, inst[7] at bit 11,
// inst[30:25] at bits 10:5, inst[11:8] at bits 4:1, bit 0 hardcoded to 0.
func immTypeB(instr uint32) int64 {
	sign := int64(int32(instr&0x80000000)) >> 19
	bit11 := int64((instr >> 7) & 0x1)
	bits10to5 := int64((instr >> 25) & 0x3F)
	bits4to1 := int64((instr >> 8) & 0xF)
	return sign | (bit11 << 11) | (bits10to5 << 5) | (bits4to1 << 1)
}

// immTypeJ: sign bit replicated above bit 20, inst[19:12] at bits 19:12,
// inst[20] at bit 11, inst[30:21] at bits 10:1, bit 0 hardcoded to 0.
func immTypeJ(instr uint32) int64 {
	sign := int64(int32(instr&0x80000000)) >> 11
	bits19to12 := int64(instr & 0xFF000)
	bit11 := int64((instr >> 9) & 0x800)
	bits10to1 := int64((instr >> 20) & 0x7FE)
	return sign | bits19to12 | bit11 | bits10to1
}

// immTypeU: upper 20 bits already in place, no shift needed; sign extension
// falls out of the int32→int64 conversion.
func immTypeU(instr uint32) int64 {
	return int64(int32(instr & 0xFFFFF000))
}
