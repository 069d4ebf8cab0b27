package metrics

import (
	"math"
	"sort"
)

// =============================================================================
// Basic statistics
// =============================================================================

// Mean returns the arithmetic mean. NaN on an empty sample.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation (n-1 denominator).
// NaN when fewer than two points are available.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	mean := Mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// Median returns the statistical median. NaN on an empty sample.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// PearsonCorrelation returns the correlation coefficient of two equal
// length samples. NaN when either sample has zero variance or fewer than
// two points.
func PearsonCorrelation(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return math.NaN()
	}

	meanX := Mean(xs)
	meanY := Mean(ys)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// =============================================================================
// Regularized incomplete beta function
// =============================================================================

// RegularizedIncompleteBeta computes I_x(a, b) via the continued fraction
// expansion with the modified Lentz method. Used by the Student-t CDF.
func RegularizedIncompleteBeta(x, a, b float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	// The continued fraction converges rapidly for x < (a+1)/(a+b+2);
	// use the symmetry relation otherwise.
	if x > (a+1)/(a+b+2) {
		return 1 - RegularizedIncompleteBeta(1-x, b, a)
	}

	lgA, _ := math.Lgamma(a)
	lgB, _ := math.Lgamma(b)
	lgAB, _ := math.Lgamma(a + b)
	front := math.Exp(a*math.Log(x)+b*math.Log(1-x)-(lgA+lgB-lgAB)) / a

	const (
		maxIterations = 200
		epsilon       = 1e-14
		tiny          = 1e-30
	)

	f, c, d := 1.0, 1.0, 0.0
	for i := 0; i <= maxIterations; i++ {
		m := float64(i / 2)

		var num float64
		switch {
		case i == 0:
			num = 1.0
		case i%2 == 0:
			num = m * (b - m) * x / ((a + 2*m - 1) * (a + 2*m))
		default:
			num = -(a + m) * (a + b + m) * x / ((a + 2*m) * (a + 2*m + 1))
		}

		d = 1 + num*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		d = 1 / d

		c = 1 + num/c
		if math.Abs(c) < tiny {
			c = tiny
		}

		cd := c * d
		f *= cd
		if math.Abs(1-cd) < epsilon {
			return front * (f - 1)
		}
	}

	// Did not converge within budget; return the best estimate.
	return front * (f - 1)
}
