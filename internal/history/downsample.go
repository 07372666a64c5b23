package history

// DefaultMaxPoints bounds how many samples a single chart draws.
const DefaultMaxPoints = 800

// Downsample keeps every step-th sample so that at most maxPoints (+1 for the
// forced last sample) remain. Short inputs are returned as is.
func Downsample(points []Sample, maxPoints int) []Sample {
	if maxPoints < 1 {
		maxPoints = 1
	}
	if len(points) <= maxPoints {
		return points
	}
	step := (len(points) + maxPoints - 1) / maxPoints
	out := make([]Sample, 0, maxPoints+1)
	for i := 0; i < len(points); i += step {
		out = append(out, points[i])
	}
	if (len(points)-1)%step != 0 {
		out = append(out, points[len(points)-1])
	}
	return out
}
