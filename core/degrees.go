package core

// Angles are expressed in binary degrees: a value of 256 spans the full
// reference base passed alongside it. degreesOf converts a whole angle in
// degrees to that unit for a reference spanning spanDeg degrees.
func degreesOf(angle, spanDeg uint32) uint8 {
	return uint8(angle * 256 / spanDeg)
}

// DegreesToTime returns ref + base*deg/256 in 24-bit time. The product is
// formed byte by byte so the intermediate never needs more than 24 bits.
func DegreesToTime(base, ref uint32, deg uint8) uint32 {
	d := uint32(deg)
	t := ref
	t += (d * (base & 0xFF)) >> 8
	t += d * ((base >> 8) & 0xFF)
	t += (d * ((base >> 16) & 0xFF)) << 8
	return t & TimerMask
}

// DegreesToTimeFast is the 16-bit form of DegreesToTime for bases below
// 0x10000. Its result equals the low 16 bits of the 24-bit form.
func DegreesToTimeFast(base, ref uint16, deg uint8) uint16 {
	d := uint16(deg)
	t := ref
	t += (d * (base & 0xFF)) >> 8
	t += d * (base >> 8)
	return t
}
