package indicators

// obv returns On-Balance Volume: the running sum of volume signed by the
// close-to-close direction, starting at zero.
func obv(closeV, volume []float64) []float64 {
	out := make([]float64, len(closeV))
	if len(closeV) == 0 {
		return out
	}
	var cum float64
	out[0] = 0
	for i := 1; i < len(closeV); i++ {
		switch {
		case closeV[i] > closeV[i-1]:
			cum += volume[i]
		case closeV[i] < closeV[i-1]:
			cum -= volume[i]
		}
		out[i] = cum
	}
	return out
}
