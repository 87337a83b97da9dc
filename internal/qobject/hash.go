package qobject

// probeSteps mirrors qstrtab's deterministic probe-step table: 32 odd
// values indexed by the low 5 bits of the key's hash.
var probeSteps = [32]uint32{
	1, 3, 5, 7, 9, 11, 13, 15,
	17, 19, 21, 23, 25, 27, 29, 31,
	33, 35, 37, 39, 41, 43, 45, 47,
	49, 51, 53, 55, 57, 59, 61, 63,
}

func probeStep(hash uint32) uint32 { return probeSteps[hash&0x1f] }

var hashPrimes = []uint32{17, 37, 79, 163, 331, 673, 1361, 2729, 5471, 10949, 21911, 43853, 87719}

func nextHashPrime(minSize uint32) uint32 {
	for _, p := range hashPrimes {
		if p >= minSize {
			return p
		}
	}
	return hashPrimes[len(hashPrimes)-1]
}
