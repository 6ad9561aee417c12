package pipeline

import (
	"sync"

	"github.com/mrjoshuak/deepmerge/sample"
)

// sampleSizes are the discrete sample-count buckets a sampleSlicePool
// serves, mirroring a BufferPool bucket-ladder design
// (exr/pool.go) but sized in sample.Sample elements rather than bytes,
// since every window-slot row buffer holds samples, not raw bytes.
var sampleSizes = []int{
	64,
	256,
	1024,
	4096,
	16384,
	65536,
}

// sampleSlicePool recycles the backing []sample.Sample arrays behind
// window-slot row buffers so a slot's storage is reused across window
// rotations instead of reallocated on every AllocateCapacity call.
type sampleSlicePool struct {
	pools []*sync.Pool
}

func newSampleSlicePool() *sampleSlicePool {
	p := &sampleSlicePool{pools: make([]*sync.Pool, len(sampleSizes))}
	for i, size := range sampleSizes {
		size := size
		p.pools[i] = &sync.Pool{
			New: func() any { return make([]sample.Sample, size) },
		}
	}
	return p
}

func (p *sampleSlicePool) bucket(n int) int {
	for i, s := range sampleSizes {
		if n <= s {
			return i
		}
	}
	return -1
}

// Get returns a slice of at least n samples. Implements
// rowbuffer.Pool.
func (p *sampleSlicePool) Get(n int) []sample.Sample {
	idx := p.bucket(n)
	if idx < 0 {
		return make([]sample.Sample, n)
	}
	buf := p.pools[idx].Get().([]sample.Sample)
	if cap(buf) < n {
		return make([]sample.Sample, n)
	}
	return buf[:n]
}

// Put returns buf (keyed by its capacity) to the pool for reuse.
// Implements rowbuffer.Pool.
func (p *sampleSlicePool) Put(buf []sample.Sample) {
	if buf == nil {
		return
	}
	idx := p.bucket(cap(buf))
	if idx < 0 || cap(buf) != sampleSizes[idx] {
		return
	}
	p.pools[idx].Put(buf[:cap(buf)])
}
