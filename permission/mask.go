package permission

// Mask is a capability bitset sized to the registry at policy build time.
type Mask []uint64

func newMask(bits int) Mask {
	return make(Mask, (bits+63)/64)
}

// Has reports whether bit is set. Out-of-range bits are never set.
func (m Mask) Has(bit int) bool {
	if bit < 0 || bit/64 >= len(m) {
		return false
	}
	return m[bit/64]&(1<<(uint(bit)%64)) != 0
}

// Set sets bit. Out-of-range bits are ignored.
func (m Mask) Set(bit int) {
	if bit < 0 || bit/64 >= len(m) {
		return
	}
	m[bit/64] |= 1 << (uint(bit) % 64)
}
