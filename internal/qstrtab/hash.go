// Package qstrtab implements the interned string table: an open-addressed
// hash table over byte sequences, keyed by a 32-bit hash, with a
// deterministic probe step and prime-sized resizing.
package qstrtab

// murmur2 is MurmurHash2 (32-bit), used for string interning since the
// design calls for a deterministic, non-cryptographic, cheap hash with a
// well-understood avalanche property.
func murmur2(data []byte, seed uint32) uint32 {
	const magicM = uint32(0x5bd1e995)
	const magicR = 24

	h := seed ^ uint32(len(data))
	i := 0
	for len(data)-i >= 4 {
		k := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		k *= magicM
		k ^= k >> magicR
		k *= magicM
		h *= magicM
		h ^= k
		i += 4
	}
	switch len(data) - i {
	case 3:
		h ^= uint32(data[i+2]) << 16
		fallthrough
	case 2:
		h ^= uint32(data[i+1]) << 8
		fallthrough
	case 1:
		h ^= uint32(data[i])
		h *= magicM
	}
	h ^= h >> 13
	h *= magicM
	h ^= h >> 15
	return h
}

// probeSteps is a table of 32 odd step values, indexed by the low 5 bits of
// a string's hash, so that probe sequences vary across the table instead of
// colliding in lockstep for hashes sharing the same low bits beyond 5.
var probeSteps = [32]uint32{
	1, 3, 5, 7, 9, 11, 13, 15,
	17, 19, 21, 23, 25, 27, 29, 31,
	33, 35, 37, 39, 41, 43, 45, 47,
	49, 51, 53, 55, 57, 59, 61, 63,
}

func probeStep(hash uint32) uint32 {
	return probeSteps[hash&0x1f]
}

// primes is the resize target table: the next table capacity is the first
// entry strictly greater than 2x the live-entry count.
var primes = []uint32{
	17, 37, 79, 163, 331, 673, 1361, 2729, 5471, 10949, 21911, 43853,
	87719, 175447, 350899, 701819, 1403641, 2807303, 5614657, 11229331,
	22458671, 44917381, 89834777, 179669557,
}

func nextPrime(minSize uint32) uint32 {
	for _, p := range primes {
		if p >= minSize {
			return p
		}
	}
	return primes[len(primes)-1]
}
