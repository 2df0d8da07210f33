package indicators

import "FXForge/internal/domain/models"

// sma returns the simple moving average with window n. Markers for the
// first n-1 positions; no partial windows.
func sma(vals []float64, n int) []float64 {
	out := markerSlice(len(vals))
	if n <= 0 || len(vals) < n {
		return out
	}
	var sum float64
	for i, v := range vals {
		sum += v
		if i >= n {
			sum -= vals[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// ema returns the exponential moving average with smoothing 2/(n+1),
// seeded with the SMA of the first n values.
func ema(vals []float64, n int) []float64 {
	out := markerSlice(len(vals))
	if n <= 0 || len(vals) < n {
		return out
	}
	mult := 2.0 / float64(n+1)
	var seed float64
	for i := 0; i < n; i++ {
		seed += vals[i]
	}
	cur := seed / float64(n)
	out[n-1] = cur
	for i := n; i < len(vals); i++ {
		cur = vals[i]*mult + cur*(1-mult)
		out[i] = cur
	}
	return out
}

// macd returns the MACD line (fast EMA minus slow EMA), its signal-line EMA,
// and the histogram (line minus signal). The line warms up with the slow
// EMA; the signal warms up a further signalN-1 values after that.
func macd(vals []float64, fastN, slowN, signalN int) (line, signal, hist []float64) {
	line = markerSlice(len(vals))
	signal = markerSlice(len(vals))
	hist = markerSlice(len(vals))

	fast := ema(vals, fastN)
	slow := ema(vals, slowN)
	for i := range vals {
		if models.IsMarker(fast[i]) || models.IsMarker(slow[i]) {
			continue
		}
		line[i] = fast[i] - slow[i]
	}

	// EMA of the MACD line, starting from its first defined value.
	first := slowN - 1
	if first >= len(vals) {
		return line, signal, hist
	}
	sub := ema(line[first:], signalN)
	copy(signal[first:], sub)

	for i := range vals {
		if models.IsMarker(line[i]) || models.IsMarker(signal[i]) {
			continue
		}
		hist[i] = line[i] - signal[i]
	}
	return line, signal, hist
}

// roc is the rate of change over n steps: (c_t - c_{t-n}) / c_{t-n}.
func roc(vals []float64, n int) []float64 {
	out := markerSlice(len(vals))
	for i := n; i < len(vals); i++ {
		if vals[i-n] == 0 {
			continue
		}
		out[i] = (vals[i] - vals[i-n]) / vals[i-n]
	}
	return out
}

// momentum is the absolute change over n steps.
func momentum(vals []float64, n int) []float64 {
	out := markerSlice(len(vals))
	for i := n; i < len(vals); i++ {
		if models.IsMarker(vals[i]) || models.IsMarker(vals[i-n]) {
			continue
		}
		out[i] = vals[i] - vals[i-n]
	}
	return out
}
