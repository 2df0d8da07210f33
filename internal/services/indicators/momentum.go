package indicators

import "math"

// rsi returns the Relative Strength Index with Wilder smoothing. The first
// value appears at position n-1, seeded with the average gain/loss over the
// deltas observed so far; later values use the n-period Wilder recursion.
// When the average loss is zero the index saturates to 100 instead of
// dividing by zero.
func rsi(vals []float64, n int) []float64 {
	out := markerSlice(len(vals))
	if n <= 0 || len(vals) < n {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i < n && i < len(vals); i++ {
		delta := vals[i] - vals[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	if n > 1 {
		avgGain /= float64(n - 1)
		avgLoss /= float64(n - 1)
	}
	out[n-1] = rsiValue(avgGain, avgLoss)

	p := float64(n)
	for i := n; i < len(vals); i++ {
		delta := vals[i] - vals[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// stochastic returns %K over window n and %D, the 3-step SMA of %K.
// A flat window (high == low) yields the midpoint 50.
func stochastic(high, low, closeV []float64, n, dN int) (k, d []float64) {
	k = markerSlice(len(closeV))
	for i := n - 1; i < len(closeV); i++ {
		hi, lo := windowExtremes(high, low, i, n)
		if hi == lo {
			k[i] = 50
			continue
		}
		k[i] = 100 * (closeV[i] - lo) / (hi - lo)
	}
	// %D warms up dN-1 values after %K's first value.
	d = markerSlice(len(closeV))
	if n-1 < len(closeV) {
		copy(d[n-1:], sma(k[n-1:], dN))
	}
	return k, d
}

// williamsR returns Williams %R over window n, in [-100, 0]. A flat window
// yields the midpoint -50.
func williamsR(high, low, closeV []float64, n int) []float64 {
	out := markerSlice(len(closeV))
	for i := n - 1; i < len(closeV); i++ {
		hi, lo := windowExtremes(high, low, i, n)
		if hi == lo {
			out[i] = -50
			continue
		}
		out[i] = -100 * (hi - closeV[i]) / (hi - lo)
	}
	return out
}

// cci returns the Commodity Channel Index over window n with the standard
// 0.015 mean-absolute-deviation scaling. Zero deviation yields 0.
func cci(high, low, closeV []float64, n int) []float64 {
	tp := make([]float64, len(closeV))
	for i := range closeV {
		tp[i] = (high[i] + low[i] + closeV[i]) / 3
	}
	out := markerSlice(len(closeV))
	for i := n - 1; i < len(tp); i++ {
		var sum float64
		for j := i - n + 1; j <= i; j++ {
			sum += tp[j]
		}
		mean := sum / float64(n)
		var mad float64
		for j := i - n + 1; j <= i; j++ {
			mad += math.Abs(tp[j] - mean)
		}
		mad /= float64(n)
		if mad == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - mean) / (0.015 * mad)
	}
	return out
}

// mfi returns the Money Flow Index over n flow observations. Flows need a
// prior typical price, so the first value appears at position n. All-zero
// negative flow saturates to 100.
func mfi(high, low, closeV, volume []float64, n int) []float64 {
	out := markerSlice(len(closeV))
	if n <= 0 || len(closeV) <= n {
		return out
	}
	tp := make([]float64, len(closeV))
	for i := range closeV {
		tp[i] = (high[i] + low[i] + closeV[i]) / 3
	}
	pos := make([]float64, len(closeV))
	neg := make([]float64, len(closeV))
	for i := 1; i < len(tp); i++ {
		mf := tp[i] * volume[i]
		if tp[i] > tp[i-1] {
			pos[i] = mf
		} else if tp[i] < tp[i-1] {
			neg[i] = mf
		}
	}
	for i := n; i < len(tp); i++ {
		var posSum, negSum float64
		for j := i - n + 1; j <= i; j++ {
			posSum += pos[j]
			negSum += neg[j]
		}
		if negSum == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+posSum/negSum)
	}
	return out
}

// windowExtremes returns the max high and min low over the n bars ending at i.
func windowExtremes(high, low []float64, i, n int) (hi, lo float64) {
	hi, lo = high[i], low[i]
	for j := i - n + 1; j <= i; j++ {
		if high[j] > hi {
			hi = high[j]
		}
		if low[j] < lo {
			lo = low[j]
		}
	}
	return hi, lo
}
