package core

// DivideRestoring returns num/den by shift-and-subtract. Division by zero
// saturates instead of trapping.
func DivideRestoring(num, den uint32) uint32 {
	if den == 0 {
		return ^uint32(0)
	}
	var q uint32
	var rem uint64
	for i := 31; i >= 0; i-- {
		rem = rem<<1 | uint64(num>>uint(i))&1
		if rem >= uint64(den) {
			rem -= uint64(den)
			q |= 1 << uint(i)
		}
	}
	return q
}
