// Package predictor implements the horizontal differencing predictor
// deepexr's compression chain applies to a chunk's payload before
// byte-plane interleaving and zlib. Converting absolute sample values
// to differences from the previous byte tends to produce smaller
// deltas, and smaller deltas compress better, for the scanline's
// worth of depth and color samples the chunk holds.
package predictor

// EncodeSIMD applies horizontal differencing to data in place. The
// first byte is unchanged; every subsequent byte becomes the
// difference from its predecessor. The encode direction must walk
// backward so each subtraction reads the still-original predecessor
// before it is itself overwritten.
//
// The name reflects the teacher package this was adapted from,
// which dispatched to SIMD assembly on some platforms; this module's
// chunks are small enough that the loop-unrolled pure Go below is
// what actually runs everywhere.
func EncodeSIMD(data []byte) {
	n := len(data)
	if n < 2 {
		return
	}

	i := n - 1
	for ; i >= 8; i -= 8 {
		data[i] = data[i] - data[i-1]
		data[i-1] = data[i-1] - data[i-2]
		data[i-2] = data[i-2] - data[i-3]
		data[i-3] = data[i-3] - data[i-4]
		data[i-4] = data[i-4] - data[i-5]
		data[i-5] = data[i-5] - data[i-6]
		data[i-6] = data[i-6] - data[i-7]
		data[i-7] = data[i-7] - data[i-8]
	}
	for ; i >= 1; i-- {
		data[i] = data[i] - data[i-1]
	}
}

// DecodeSIMD reverses EncodeSIMD in place: each byte becomes the sum
// of itself and every byte before it, restoring the original values.
func DecodeSIMD(data []byte) {
	n := len(data)
	if n < 2 {
		return
	}

	i := 1
	for ; i+7 < n; i += 8 {
		data[i] = data[i] + data[i-1]
		data[i+1] = data[i+1] + data[i]
		data[i+2] = data[i+2] + data[i+1]
		data[i+3] = data[i+3] + data[i+2]
		data[i+4] = data[i+4] + data[i+3]
		data[i+5] = data[i+5] + data[i+4]
		data[i+6] = data[i+6] + data[i+5]
		data[i+7] = data[i+7] + data[i+6]
	}
	for ; i < n; i++ {
		data[i] = data[i] + data[i-1]
	}
}
