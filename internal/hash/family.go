package hash

import (
	"fmt"
	"strings"
)

// Family selects one of the fixed finalizers.
type Family int

const (
	FamilyWang Family = iota
	FamilyPCG
	FamilyXXHash32
)

// Families lists every finalizer in display order.
func Families() []Family {
	return []Family{FamilyWang, FamilyPCG, FamilyXXHash32}
}

// Sum applies the selected finalizer to key.
func (f Family) Sum(key uint32) uint32 {
	switch f {
	case FamilyPCG:
		return PCG(key)
	case FamilyXXHash32:
		return XXHash32Finalizer(key)
	default:
		return Wang(key)
	}
}

func (f Family) String() string {
	switch f {
	case FamilyWang:
		return "wang"
	case FamilyPCG:
		return "pcg"
	case FamilyXXHash32:
		return "xxhash32"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ParseFamily parses a finalizer name as printed by String.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wang":
		return FamilyWang, nil
	case "pcg":
		return FamilyPCG, nil
	case "xxhash32", "xxhash", "xxh32":
		return FamilyXXHash32, nil
	default:
		return 0, fmt.Errorf("unknown hash family %q (valid: wang, pcg, xxhash32)", s)
	}
}
