package statistic

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestHashFamily_Uniformity(t *testing.T) {
	const (
		numKeys    = 1_000_000
		numBuckets = 1 << 10
	)

	h := NewHashFamily(1, numBuckets, 17371)
	buckets := make([]int, numBuckets)
	rng := rand.New(rand.NewPCG(1, 1))
	for i := 0; i < numKeys; i++ {
		buckets[h.Bucket(0, rng.Uint32())]++
	}

	avg := float64(numKeys) / float64(numBuckets)
	var variance float64
	for _, cnt := range buckets {
		diff := float64(cnt) - avg
		variance += diff * diff
	}
	std := math.Sqrt(variance / float64(numBuckets))
	cv := std / avg // coefficient of variation

	t.Logf("avg = %.2f, std = %.2f, CV = %.4f", avg, std, cv)
	if cv > 0.1 {
		t.Errorf("Bucket distribution too skewed, CV = %.4f", cv)
	}
}

func BenchmarkHashFamily_Bucket(b *testing.B) {
	h := NewHashFamily(5, 1<<16, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = h.Bucket(i%5, uint32(i))
	}
}

func BenchmarkManager_Update(b *testing.B) {
	m := NewWindowedSketchManager(5, 1<<16, 1)
	rng := rand.New(rand.NewPCG(1, 2))
	addrs := make([]uint32, 1<<16)
	for i := range addrs {
		addrs[i] = rng.Uint32()
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Update(addrs[i&(len(addrs)-1)], uint32(i>>12)+1, true)
	}
}
