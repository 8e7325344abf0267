// Package hash provides stateless 32-bit integer hash finalizers and the
// helpers that turn their output into lattice seeds and uniform floats.
package hash

import "math/bits"

// Wang is Thomas Wang's 32-bit integer hash.
func Wang(key uint32) uint32 {
	key = (key ^ 61) ^ (key >> 16)
	key *= 9
	key ^= key >> 4
	key *= 0x27d4eb2d
	key ^= key >> 15
	return key
}

// PCG is the single-round PCG RXS-M-XS hash: one LCG step followed by a
// data-dependent shift.
func PCG(key uint32) uint32 {
	state := key*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// XXHash32Finalizer is the avalanche stage of xxHash32.
func XXHash32Finalizer(key uint32) uint32 {
	key ^= key >> 15
	key *= 0x85ebca77
	key ^= key >> 13
	key *= 0xc2b2ae3d
	key ^= key >> 16
	return key
}

// Combine folds v into h. The fold is not commutative: combining a then b
// gives a different result than b then a.
func Combine(h, v uint32) uint32 {
	return h ^ (v + 0x9e3779b9 + (h << 6) + (h >> 2))
}

// Hash2D returns a stable hash for a 2D lattice cell.
func Hash2D(x, y uint32) uint32 {
	return Wang(Combine(Wang(x), y))
}

// Hash3D returns a stable hash for a 3D lattice cell.
func Hash3D(x, y, z uint32) uint32 {
	return Wang(Combine(Combine(Wang(x), y), z))
}

// ToFloat maps the top 24 bits of h to [0,1). Every 24-bit prefix maps to a
// distinct float64 and ToFloat(0) == 0.
func ToFloat(h uint32) float64 {
	return float64(h>>8) * (1.0 / (1 << 24))
}

// ToSFloat maps h to [-1,1).
func ToSFloat(h uint32) float64 {
	return ToFloat(h)*2 - 1
}

// Avalanche returns the number of output bits that flip, averaged over all
// 32 single-bit flips of key. An ideal mixer scores 16.
func Avalanche(f Family, key uint32) float64 {
	base := f.Sum(key)
	total := 0
	for bit := 0; bit < 32; bit++ {
		total += bits.OnesCount32(base ^ f.Sum(key^(1<<bit)))
	}
	return float64(total) / 32
}
