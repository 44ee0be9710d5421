package pap

type Limits struct {
	MaxContainerLen  uint64 // container JSON bytes, after storage decompression
	MaxImageLen      uint64 // decoded image payload bytes
	MaxAnnotationLen uint64 // decoded annotation payload bytes
	MaxImagePixels   uint64 // width*height accepted by Decode
}

func defaultLimits() Limits {
	return Limits{
		MaxContainerLen:  1 << 30,   // 1 GiB
		MaxImageLen:      512 << 20, // 512 MiB
		MaxAnnotationLen: 256 << 20, // 256 MiB
		MaxImagePixels:   1 << 28,   // ~268 MP
	}
}

// DefaultLimits returns the limits applied when no custom Limits are given.
func DefaultLimits() Limits {
	return defaultLimits()
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxContainerLen == 0 {
		l.MaxContainerLen = d.MaxContainerLen
	}
	if l.MaxImageLen == 0 {
		l.MaxImageLen = d.MaxImageLen
	}
	if l.MaxAnnotationLen == 0 {
		l.MaxAnnotationLen = d.MaxAnnotationLen
	}
	if l.MaxImagePixels == 0 {
		l.MaxImagePixels = d.MaxImagePixels
	}
	return l
}
