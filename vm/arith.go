package vm

import "github.com/holiman/uint256"

// signExtend replicates bit `sign` of v into all bits above it, producing a
// 64-bit two's-complement value from a narrower signed field.
func signExtend(v uint64, sign uint) uint64 {
	m := uint64(1) << sign
	if v&m == 0 {
		return v &^ (^uint64(0) << sign) // zero-fill above the sign bit
	}
	return v | (^uint64(0) << sign) // one-fill above the sign bit
}

// mask32 sign-extends the low 32 bits of v to 64 bits, for the *W opcodes.
func mask32(v uint64) uint64 {
	return signExtend(v&0xFFFFFFFF, 31)
}

// to256 widens a uint64 to uint256, sign-extending if signed is true.
func to256(v uint64, signed bool) uint256.Int {
	var out uint256.Int
	out.SetUint64(v)
	if signed && int64(v) < 0 {
		// out -= 2^64, equivalently: out |= ones above bit 63
		var ones64 uint256.Int
		ones64.SetAllOne()
		ones64.Lsh(&ones64, 64) // 0xFFFF...FFFF0000000000000000 (bits 64..255 set)
		out.Or(&out, &ones64)
	}
	return out
}

// mulHigh64 returns the high 64 bits of the 128-bit product of x and y,
// each widened per its own signedness (signed×signed, signed×unsigned, or
// unsigned×unsigned), via a 256-bit intermediate — the portable substitute
// for a native int128 multiply.
func mulHigh64(x, y uint64, xSigned, ySigned bool) uint64 {
	xw := to256(x, xSigned)
	yw := to256(y, ySigned)
	var prod uint256.Int
	prod.Mul(&xw, &yw)
	prod.Rsh(&prod, 64)
	return prod.Uint64()
}

// sdiv64 is signed division with RV64IM's two quirks: divide-by-zero and
// INT64_MIN / -1 (the one input pair that would overflow a native divide)
// are both handled by the caller; this performs the ordinary truncating
// divide for every other case.
func sdiv64(x, y int64) int64 {
	return x / y
}

// smod64 mirrors sdiv64 for remainder.
func smod64(x, y int64) int64 {
	return x % y
}
