package metrics

import (
	"math"
	"sort"
)

// =============================================================================
// Student's-t location-scale distribution
// =============================================================================

// StudentT is a Student's-t distribution with location and scale.
type StudentT struct {
	DF    float64 `json:"df"` // degrees of freedom
	Loc   float64 `json:"loc"`
	Scale float64 `json:"scale"`
}

// CDF returns P(X <= x) under the distribution.
func (d StudentT) CDF(x float64) float64 {
	z := (x - d.Loc) / d.Scale
	if z == 0 {
		return 0.5
	}

	w := d.DF / (d.DF + z*z)
	p := 0.5 * RegularizedIncompleteBeta(w, d.DF/2, 0.5)
	if z < 0 {
		return p
	}
	return 1 - p
}

// logLikelihood returns the log-likelihood of the sample under d.
func (d StudentT) logLikelihood(xs []float64) float64 {
	lgHalf1, _ := math.Lgamma((d.DF + 1) / 2)
	lgHalf, _ := math.Lgamma(d.DF / 2)
	c := lgHalf1 - lgHalf - 0.5*math.Log(d.DF*math.Pi) - math.Log(d.Scale)

	var ll float64
	for _, x := range xs {
		z := (x - d.Loc) / d.Scale
		ll += c - (d.DF+1)/2*math.Log1p(z*z/d.DF)
	}
	return ll
}

// minFitSamples is the fail-closed floor for the MLE fit.
const minFitSamples = 30

// FitStudentT fits (df, loc, scale) to a sample by maximum likelihood.
// The t distribution captures the fat left tail of asset returns better
// than a normal fit. Returns ErrInsufficientData when the sample is too
// short or carries no dispersion for a fit to be meaningful.
func FitStudentT(xs []float64) (StudentT, error) {
	if len(xs) < minFitSamples {
		return StudentT{}, ErrInsufficientData
	}

	std := StdDev(xs)
	if std == 0 || math.IsNaN(std) {
		return StudentT{}, ErrInsufficientData
	}

	// Optimize in transformed space so df and scale stay positive.
	objective := func(p []float64) float64 {
		d := StudentT{
			DF:    math.Exp(p[0]),
			Loc:   p[1],
			Scale: math.Exp(p[2]),
		}
		ll := d.logLikelihood(xs)
		if math.IsNaN(ll) || math.IsInf(ll, 0) {
			return math.MaxFloat64
		}
		return -ll
	}

	start := []float64{math.Log(4), Mean(xs), math.Log(std)}
	best := nelderMead(objective, start, 2000, 1e-10)

	return StudentT{
		DF:    math.Exp(best[0]),
		Loc:   best[1],
		Scale: math.Exp(best[2]),
	}, nil
}

// =============================================================================
// Nelder-Mead simplex minimizer
// =============================================================================

// nelderMead minimizes f starting from x0 using the downhill simplex
// method with standard coefficients (reflect 1, expand 2, contract 0.5,
// shrink 0.5). Small and dependency-free; the likelihood surfaces here
// are low-dimensional and smooth.
func nelderMead(f func([]float64) float64, x0 []float64, maxIter int, tol float64) []float64 {
	n := len(x0)

	type vertex struct {
		x []float64
		v float64
	}

	simplex := make([]vertex, n+1)
	simplex[0] = vertex{x: append([]float64(nil), x0...), v: f(x0)}
	for i := 0; i < n; i++ {
		x := append([]float64(nil), x0...)
		step := 0.1
		if x[i] == 0 {
			step = 0.00025
		} else {
			step = 0.05 * math.Abs(x[i])
			if step < 1e-6 {
				step = 1e-6
			}
		}
		x[i] += step
		simplex[i+1] = vertex{x: x, v: f(x)}
	}

	for iter := 0; iter < maxIter; iter++ {
		sort.Slice(simplex, func(i, j int) bool { return simplex[i].v < simplex[j].v })

		if math.Abs(simplex[n].v-simplex[0].v) < tol {
			break
		}

		// Centroid of all but the worst vertex
		centroid := make([]float64, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				centroid[j] += simplex[i].x[j] / float64(n)
			}
		}

		worst := simplex[n]

		// Reflection
		reflected := make([]float64, n)
		for j := 0; j < n; j++ {
			reflected[j] = centroid[j] + (centroid[j] - worst.x[j])
		}
		rv := f(reflected)

		switch {
		case rv < simplex[0].v:
			// Expansion
			expanded := make([]float64, n)
			for j := 0; j < n; j++ {
				expanded[j] = centroid[j] + 2*(centroid[j]-worst.x[j])
			}
			if ev := f(expanded); ev < rv {
				simplex[n] = vertex{x: expanded, v: ev}
			} else {
				simplex[n] = vertex{x: reflected, v: rv}
			}

		case rv < simplex[n-1].v:
			simplex[n] = vertex{x: reflected, v: rv}

		default:
			// Contraction
			contracted := make([]float64, n)
			for j := 0; j < n; j++ {
				contracted[j] = centroid[j] + 0.5*(worst.x[j]-centroid[j])
			}
			if cv := f(contracted); cv < worst.v {
				simplex[n] = vertex{x: contracted, v: cv}
			} else {
				// Shrink toward the best vertex
				for i := 1; i <= n; i++ {
					for j := 0; j < n; j++ {
						simplex[i].x[j] = simplex[0].x[j] + 0.5*(simplex[i].x[j]-simplex[0].x[j])
					}
					simplex[i].v = f(simplex[i].x)
				}
			}
		}
	}

	sort.Slice(simplex, func(i, j int) bool { return simplex[i].v < simplex[j].v })
	return simplex[0].x
}
