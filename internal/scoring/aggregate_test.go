package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

func TestCompositeWeightsSumTo100(t *testing.T) {
	var sum float64
	for _, cw := range CompositeWeights {
		sum += cw.Weight
	}
	if !almostEqual(sum, 100) {
		t.Errorf("weight table sums to %v, want 100", sum)
	}
}

func TestComposite(t *testing.T) {
	scores := make(map[string]float64)
	for _, cw := range CompositeWeights {
		scores[cw.Name] = 1.0
	}
	got, err := Composite(scores)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	if !almostEqual(got, 1.0) {
		t.Errorf("Composite(all ones) = %v, want 1.0", got)
	}

	// Halving one category moves the composite by half its weight share.
	scores[contracts.CategoryBadDebt] = 0.5
	got, err = Composite(scores)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	want := 1.0 - 0.5*WeightFor(contracts.CategoryBadDebt)/100
	if !almostEqual(got, want) {
		t.Errorf("Composite() = %v, want %v", got, want)
	}
}

func TestCompositeMissingCategory(t *testing.T) {
	scores := map[string]float64{
		contracts.CategoryBadDebt: 1.0,
	}
	_, err := Composite(scores)
	if !errors.Is(err, ErrMissingCategory) {
		t.Errorf("Composite() error = %v, want ErrMissingCategory", err)
	}
}

func TestDynamicComposite(t *testing.T) {
	tests := []struct {
		name   string
		inputs map[string]DynamicInput
		want   float64
	}{
		{
			name: "equal weights average the scores",
			inputs: map[string]DynamicInput{
				"a": {Score: 0.8, Weight: 50},
				"b": {Score: 0.2, Weight: 50},
			},
			want: 0.5,
		},
		{
			name: "weights normalize when not summing to 100",
			inputs: map[string]DynamicInput{
				"a": {Score: 0.8, Weight: 25},
				"b": {Score: 0.2, Weight: 25},
			},
			want: 0.5,
		},
		{
			name: "skewed weights pull toward the heavier score",
			inputs: map[string]DynamicInput{
				"a": {Score: 1.0, Weight: 75},
				"b": {Score: 0.0, Weight: 25},
			},
			want: 0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DynamicComposite(tt.inputs)
			if err != nil {
				t.Fatalf("DynamicComposite() error = %v", err)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("DynamicComposite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDynamicCompositeZeroWeight(t *testing.T) {
	_, err := DynamicComposite(map[string]DynamicInput{
		"a": {Score: 0.8, Weight: 0},
	})
	if !errors.Is(err, ErrZeroWeight) {
		t.Errorf("DynamicComposite() error = %v, want ErrZeroWeight", err)
	}

	_, err = DynamicComposite(nil)
	if !errors.Is(err, ErrZeroWeight) {
		t.Errorf("DynamicComposite(nil) error = %v, want ErrZeroWeight", err)
	}
}

func TestInterdependencyScores(t *testing.T) {
	// Even count takes the mean of the middle pair.
	got := InterdependencyMomentum(0.1, 0.2, 0.8, 0.9)
	if !almostEqual(got, 0.5) {
		t.Errorf("InterdependencyMomentum = %v, want 0.5", got)
	}

	// Odd count takes the middle value.
	got = InterdependencyVolatility(0.1, 0.3, 0.5, 0.7, 0.9)
	if !almostEqual(got, 0.5) {
		t.Errorf("InterdependencyVolatility = %v, want 0.5", got)
	}
}

func TestCollateralRatioScoreBlend(t *testing.T) {
	got := CollateralRatioScore(1.0, 0.0)
	if !almostEqual(got, 0.4) {
		t.Errorf("CollateralRatioScore(1, 0) = %v, want 0.4", got)
	}
	got = CollateralRatioScore(0.0, 1.0)
	if !almostEqual(got, 0.6) {
		t.Errorf("CollateralRatioScore(0, 1) = %v, want 0.6", got)
	}
}

func TestVolatilityScoreNaNPropagates(t *testing.T) {
	if got := VolatilityScore(math.NaN(), 0.5); !math.IsNaN(got) {
		t.Errorf("VolatilityScore(NaN, 0.5) = %v, want NaN", got)
	}
}
