package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// trueRange returns the per-bar true range; the first bar has no prior
// close, so its range is simply high-low.
func trueRange(high, low, closeV []float64) []float64 {
	tr := make([]float64, len(closeV))
	for i := range closeV {
		hl := high[i] - low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(high[i] - closeV[i-1])
		lc := math.Abs(low[i] - closeV[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// atr returns the Wilder-smoothed average true range: an SMA seed over the
// first n true ranges, then the n-period Wilder recursion.
func atr(high, low, closeV []float64, n int) []float64 {
	out := markerSlice(len(closeV))
	if n <= 0 || len(closeV) < n {
		return out
	}
	tr := trueRange(high, low, closeV)
	var seed float64
	for i := 0; i < n; i++ {
		seed += tr[i]
	}
	cur := seed / float64(n)
	out[n-1] = cur
	p := float64(n)
	for i := n; i < len(tr); i++ {
		cur = (cur*(p-1) + tr[i]) / p
		out[i] = cur
	}
	return out
}

// adx returns the Average Directional Index plus the +DI and -DI lines.
// Directional movement needs one prior bar, DI needs n movements, and ADX
// needs a further n DX values, so DI first appears at position n and ADX at
// position 2n-1.
func adx(high, low, closeV []float64, n int) (adxOut, plusDI, minusDI []float64) {
	size := len(closeV)
	adxOut = markerSlice(size)
	plusDI = markerSlice(size)
	minusDI = markerSlice(size)
	if n <= 0 || size <= n {
		return adxOut, plusDI, minusDI
	}

	tr := trueRange(high, low, closeV)
	plusDM := make([]float64, size)
	minusDM := make([]float64, size)
	for i := 1; i < size; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder-smoothed running sums, seeded over movements 1..n.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= n; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := markerSlice(size)
	p := float64(n)
	for i := n; i < size; i++ {
		if i > n {
			smTR = smTR - smTR/p + tr[i]
			smPlus = smPlus - smPlus/p + plusDM[i]
			smMinus = smMinus - smMinus/p + minusDM[i]
		}
		if smTR == 0 {
			plusDI[i], minusDI[i], dx[i] = 0, 0, 0
			continue
		}
		pdi := 100 * smPlus / smTR
		mdi := 100 * smMinus / smTR
		plusDI[i] = pdi
		minusDI[i] = mdi
		if pdi+mdi == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(pdi-mdi) / (pdi + mdi)
	}

	// ADX: Wilder smoothing of DX, seeded over its first n values.
	if size <= 2*n-1 {
		return adxOut, plusDI, minusDI
	}
	var seed float64
	for i := n; i < 2*n; i++ {
		seed += dx[i]
	}
	cur := seed / p
	adxOut[2*n-1] = cur
	for i := 2 * n; i < size; i++ {
		cur = (cur*(p-1) + dx[i]) / p
		adxOut[i] = cur
	}
	return adxOut, plusDI, minusDI
}

// bollinger returns the upper/lower bands (SMA +- k*sigma, sample standard
// deviation), the relative band width, and the close position within the
// band (0.5 for a degenerate zero-width band).
func bollinger(vals []float64, n int, k float64) (upper, lower, width, pos []float64) {
	size := len(vals)
	upper = markerSlice(size)
	lower = markerSlice(size)
	width = markerSlice(size)
	pos = markerSlice(size)
	if n <= 1 || size < n {
		return upper, lower, width, pos
	}
	for i := n - 1; i < size; i++ {
		window := vals[i-n+1 : i+1]
		mean := stat.Mean(window, nil)
		sd := stat.StdDev(window, nil)
		upper[i] = mean + k*sd
		lower[i] = mean - k*sd
		if mean != 0 {
			width[i] = (upper[i] - lower[i]) / mean
		}
		if upper[i] == lower[i] {
			pos[i] = 0.5
			continue
		}
		pos[i] = (vals[i] - lower[i]) / (upper[i] - lower[i])
	}
	return upper, lower, width, pos
}

// realizedVol is the annualized rolling standard deviation of one-step
// returns. Returns need a prior close, so the first value appears at
// position n.
func realizedVol(vals []float64, n int) []float64 {
	out := markerSlice(len(vals))
	if n <= 1 || len(vals) <= n {
		return out
	}
	rets := make([]float64, len(vals))
	for i := 1; i < len(vals); i++ {
		if vals[i-1] == 0 {
			continue
		}
		rets[i] = vals[i]/vals[i-1] - 1
	}
	annual := math.Sqrt(252)
	for i := n; i < len(vals); i++ {
		window := rets[i-n+1 : i+1]
		out[i] = stat.StdDev(window, nil) * annual
	}
	return out
}
