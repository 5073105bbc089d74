package fmp4

import (
	"cmp"
	"math/bits"
	"slices"
)

// Assemble orders samples by decode time, keeping the input order of samples
// with equal times. The order is by DTS/Timescale compared exactly, so with
// mixed timescales raw DTS values are not monotonic; use Sample.DecodeTime to
// check the order.
func Assemble(samples []Sample) []Sample {
	slices.SortStableFunc(samples, func(a, b Sample) int {
		return compareDecodeTime(a.DTS, a.Timescale, b.DTS, b.Timescale)
	})
	return samples
}

// compareDecodeTime compares a/ta with b/tb without rounding.
func compareDecodeTime(a int64, ta uint32, b int64, tb uint32) int {
	if ta == tb {
		return cmp.Compare(a, b)
	}
	switch {
	case a < 0 && b >= 0:
		return -1
	case a >= 0 && b < 0:
		return 1
	case a < 0:
		// both negative: the larger magnitude is the earlier time
		return -compareScaled(uint64(-a), uint64(tb), uint64(-b), uint64(ta))
	}
	return compareScaled(uint64(a), uint64(tb), uint64(b), uint64(ta))
}

// compareScaled compares x*sx with y*sy as 128-bit products.
func compareScaled(x, sx, y, sy uint64) int {
	xh, xl := bits.Mul64(x, sx)
	yh, yl := bits.Mul64(y, sy)
	if c := cmp.Compare(xh, yh); c != 0 {
		return c
	}
	return cmp.Compare(xl, yl)
}
