package dispatcher

import "math"

func float64bits(v float64) int64 {
	return int64(math.Float64bits(v))
}

func float64frombits(b int64) float64 {
	return math.Float64frombits(uint64(b))
}
