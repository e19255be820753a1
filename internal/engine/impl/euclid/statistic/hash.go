package statistic

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/twmb/murmur3"
)

// RowHasher maps an address to a bucket and a sign for every sketch row.
type RowHasher interface {
	Depth() int
	Bucket(row int, address uint32) int
	Sign(row int, address uint32) int64
}

// HashFamily holds depth independent (bucket, sign) hash pairs.
type HashFamily struct {
	width       uint32
	bucketSeeds []uint32
	signSeeds   []uint32
}

// NewHashFamily derives the per-row sub-seeds from seed.
// The same seed always yields the same family.
func NewHashFamily(depth, width uint32, seed uint64) *HashFamily {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	h := &HashFamily{
		width:       width,
		bucketSeeds: make([]uint32, depth),
		signSeeds:   make([]uint32, depth),
	}
	for i := range h.bucketSeeds {
		h.bucketSeeds[i] = rng.Uint32()
		h.signSeeds[i] = rng.Uint32()
	}
	return h
}

func (h *HashFamily) Depth() int {
	return len(h.bucketSeeds)
}

func (h *HashFamily) Width() uint32 {
	return h.width
}

// Bucket returns the column of address in the given row, in [0, width).
func (h *HashFamily) Bucket(row int, address uint32) int {
	return int(hashAddress(address, h.bucketSeeds[row]) % h.width)
}

// Sign returns +1 or -1.
func (h *HashFamily) Sign(row int, address uint32) int64 {
	return 2*int64(hashAddress(address, h.signSeeds[row])&1) - 1
}

// hashAddress XORs the address with the row seed before hashing so that
// collisions in different rows are not correlated.
func hashAddress(address, seed uint32) uint32 {
	var key [4]byte
	binary.LittleEndian.PutUint32(key[:], address^seed)
	return murmur3.SeedSum32(seed, key[:])
}
