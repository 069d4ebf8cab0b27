package metrics

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); !almostEqual(got, 2.5, 1e-12) {
		t.Errorf("Mean = %v, want 2.5", got)
	}
	if got := Mean(nil); !math.IsNaN(got) {
		t.Errorf("Mean(nil) = %v, want NaN", got)
	}
}

func TestStdDev(t *testing.T) {
	// Sample (n-1) standard deviation of {2,4,4,4,5,5,7,9} is ~2.138.
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if !almostEqual(got, 2.13809, 1e-4) {
		t.Errorf("StdDev = %v, want ~2.13809", got)
	}

	if got := StdDev([]float64{1}); !math.IsNaN(got) {
		t.Errorf("StdDev(single point) = %v, want NaN", got)
	}
	if got := StdDev([]float64{3, 3, 3}); got != 0 {
		t.Errorf("StdDev(constant) = %v, want 0", got)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"odd count", []float64{3, 1, 2}, 2},
		{"even count", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.xs); !almostEqual(got, tt.want, 1e-12) {
				t.Errorf("Median(%v) = %v, want %v", tt.xs, got, tt.want)
			}
		})
	}

	if got := Median(nil); !math.IsNaN(got) {
		t.Errorf("Median(nil) = %v, want NaN", got)
	}
}

func TestPearsonCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}

	if got := PearsonCorrelation(xs, xs); !almostEqual(got, 1.0, 1e-12) {
		t.Errorf("correlation with itself = %v, want 1", got)
	}

	inverse := []float64{5, 4, 3, 2, 1}
	if got := PearsonCorrelation(xs, inverse); !almostEqual(got, -1.0, 1e-12) {
		t.Errorf("correlation with inverse = %v, want -1", got)
	}

	constant := []float64{2, 2, 2, 2, 2}
	if got := PearsonCorrelation(xs, constant); !math.IsNaN(got) {
		t.Errorf("correlation with constant = %v, want NaN", got)
	}

	if got := PearsonCorrelation(xs, []float64{1, 2}); !math.IsNaN(got) {
		t.Errorf("correlation with length mismatch = %v, want NaN", got)
	}
}

func TestRegularizedIncompleteBeta(t *testing.T) {
	tests := []struct {
		name    string
		x, a, b float64
		want    float64
	}{
		{"boundary zero", 0, 2, 3, 0},
		{"boundary one", 1, 2, 3, 1},
		// I_x(1,1) is the identity.
		{"uniform", 0.3, 1, 1, 0.3},
		// I_0.5(a,a) = 0.5 by symmetry.
		{"symmetric half", 0.5, 4, 4, 0.5},
		// I_x(1,b) = 1-(1-x)^b.
		{"closed form a=1", 0.2, 1, 3, 1 - math.Pow(0.8, 3)},
		// I_x(2,2) = x^2(3-2x).
		{"closed form a=b=2", 0.25, 2, 2, 0.25 * 0.25 * (3 - 0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegularizedIncompleteBeta(tt.x, tt.a, tt.b)
			if !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("I_%v(%v,%v) = %v, want %v", tt.x, tt.a, tt.b, got, tt.want)
			}
		})
	}
}
