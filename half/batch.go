package half

// batchSize is the loop-unroll width for the batch conversion routines
// below, used by deepexr's color-channel codec to convert a whole
// scanline's worth of one channel in a single pass rather than one
// sample at a time.
const batchSize = 8

// ConvertBytesToFloat32 decodes little-endian half-precision bytes (2
// bytes per value) into dst.
func ConvertBytesToFloat32(dst []float32, src []byte) {
	n := len(src) / 2
	if len(dst) < n {
		panic("half: destination slice too small")
	}

	i := 0
	for ; i+batchSize <= n; i += batchSize {
		j := i * 2
		dst[i] = FromBits(uint16(src[j]) | uint16(src[j+1])<<8).Float32()
		dst[i+1] = FromBits(uint16(src[j+2]) | uint16(src[j+3])<<8).Float32()
		dst[i+2] = FromBits(uint16(src[j+4]) | uint16(src[j+5])<<8).Float32()
		dst[i+3] = FromBits(uint16(src[j+6]) | uint16(src[j+7])<<8).Float32()
		dst[i+4] = FromBits(uint16(src[j+8]) | uint16(src[j+9])<<8).Float32()
		dst[i+5] = FromBits(uint16(src[j+10]) | uint16(src[j+11])<<8).Float32()
		dst[i+6] = FromBits(uint16(src[j+12]) | uint16(src[j+13])<<8).Float32()
		dst[i+7] = FromBits(uint16(src[j+14]) | uint16(src[j+15])<<8).Float32()
	}
	for ; i < n; i++ {
		j := i * 2
		dst[i] = FromBits(uint16(src[j]) | uint16(src[j+1])<<8).Float32()
	}
}

// ConvertFloat32ToBytes encodes src as little-endian half-precision
// bytes (2 bytes per value) into dst.
func ConvertFloat32ToBytes(dst []byte, src []float32) {
	n := len(src)
	if len(dst) < n*2 {
		panic("half: destination slice too small")
	}

	i := 0
	for ; i+batchSize <= n; i += batchSize {
		j := i * 2
		h0 := FromFloat32(src[i]).Bits()
		h1 := FromFloat32(src[i+1]).Bits()
		h2 := FromFloat32(src[i+2]).Bits()
		h3 := FromFloat32(src[i+3]).Bits()
		h4 := FromFloat32(src[i+4]).Bits()
		h5 := FromFloat32(src[i+5]).Bits()
		h6 := FromFloat32(src[i+6]).Bits()
		h7 := FromFloat32(src[i+7]).Bits()

		dst[j] = byte(h0)
		dst[j+1] = byte(h0 >> 8)
		dst[j+2] = byte(h1)
		dst[j+3] = byte(h1 >> 8)
		dst[j+4] = byte(h2)
		dst[j+5] = byte(h2 >> 8)
		dst[j+6] = byte(h3)
		dst[j+7] = byte(h3 >> 8)
		dst[j+8] = byte(h4)
		dst[j+9] = byte(h4 >> 8)
		dst[j+10] = byte(h5)
		dst[j+11] = byte(h5 >> 8)
		dst[j+12] = byte(h6)
		dst[j+13] = byte(h6 >> 8)
		dst[j+14] = byte(h7)
		dst[j+15] = byte(h7 >> 8)
	}
	for ; i < n; i++ {
		j := i * 2
		h := FromFloat32(src[i]).Bits()
		dst[j] = byte(h)
		dst[j+1] = byte(h >> 8)
	}
}
