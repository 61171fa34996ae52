package rating

// Mean calculates the arithmetic mean
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// WeightedMean calculates sum(v*w)/sum(w). ok is false when the weights sum to zero.
func WeightedMean(values, weights []float64) (mean float64, ok bool) {
	if len(values) != len(weights) {
		return 0, false
	}
	sum, total := 0.0, 0.0
	for i, v := range values {
		sum += v * weights[i]
		total += weights[i]
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}

// ClampFloat64 constrains a value to a range
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampScore constrains a section score to 0-100
func ClampScore(score float64) float64 {
	return ClampFloat64(score, 0, 100)
}
