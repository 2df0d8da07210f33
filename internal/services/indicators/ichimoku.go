package indicators

import "FXForge/internal/domain/models"

// ichimoku returns the conversion line, base line and the two leading
// spans. Lines are rolling high/low midpoints:
//
//	conversion = (max high + min low) / 2 over p.Conversion bars
//	base       = same over p.Base bars
//	span A     = (conversion + base) / 2, shifted forward p.Displacement bars
//	span B     = high/low midpoint over p.SpanB bars, shifted forward likewise
//
// The leading spans legitimately reference the current computation window
// but are plotted p.Displacement positions ahead: the value stored at
// position i+disp was fully known at position i. This is a display offset
// carried over from charting convention, not a lookahead.
func ichimoku(high, low []float64, p IchimokuParams) (conv, base, spanA, spanB []float64) {
	size := len(high)
	conv = midline(high, low, p.Conversion)
	base = midline(high, low, p.Base)

	spanA = markerSlice(size)
	spanB = markerSlice(size)
	rawB := midline(high, low, p.SpanB)
	for i := 0; i < size; i++ {
		j := i + p.Displacement
		if j >= size {
			break
		}
		if !models.IsMarker(conv[i]) && !models.IsMarker(base[i]) {
			spanA[j] = (conv[i] + base[i]) / 2
		}
		if !models.IsMarker(rawB[i]) {
			spanB[j] = rawB[i]
		}
	}
	return conv, base, spanA, spanB
}

// midline returns the rolling (max high + min low) / 2 over n bars.
func midline(high, low []float64, n int) []float64 {
	out := markerSlice(len(high))
	if n <= 0 || len(high) < n {
		return out
	}
	for i := n - 1; i < len(high); i++ {
		hi, lo := windowExtremes(high, low, i, n)
		out[i] = (hi + lo) / 2
	}
	return out
}
