package aggregate

import (
	"errors"
	"testing"
)

func TestAverage(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		want    float64
		wantErr error
	}{
		{"plain", []float64{30000, 30010, 29990}, 30000, nil},
		{"zeros filtered", []float64{0, 30000, 0, 30010, 29990, 0}, 30000, nil},
		{"single", []float64{42}, 42, nil},
		{"empty", nil, 0, ErrEmptyData},
		{"all zero", []float64{0, 0, 0}, 0, ErrEmptyData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Average(tt.prices)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Average() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Average() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		want    float64
		wantErr error
	}{
		{"odd", []float64{3, 1, 2}, 2, nil},
		{"even", []float64{4, 1, 3, 2}, 2.5, nil},
		{"zeros filtered to odd", []float64{0, 5, 0, 1, 3}, 3, nil},
		{"single", []float64{7}, 7, nil},
		{"empty", []float64{0, 0}, 0, ErrEmptyData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Median(tt.prices)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Median() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Median() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeighted(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		volumes []float64
		want    float64
		wantErr error
	}{
		{"skips zero cells", []float64{10, 20, 0, 30}, []float64{1, 2, 5, 0}, 50.0 / 3.0, nil},
		{"uniform volume", []float64{10, 20}, []float64{1, 1}, 15, nil},
		{"all undefined", []float64{0, 10}, []float64{5, 0}, 0, ErrWeightedUndefined},
		{"empty", nil, nil, 0, ErrWeightedUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Weighted(tt.prices, tt.volumes)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Weighted() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Weighted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMax(t *testing.T) {
	got, err := Max([]float64{0, 3, 9, 1})
	if err != nil {
		t.Fatalf("Max() error = %v", err)
	}
	if got != 9 {
		t.Errorf("Max() = %v, want 9", got)
	}

	if _, err := Max([]float64{0}); !errors.Is(err, ErrEmptyData) {
		t.Errorf("Max() error = %v, want %v", err, ErrEmptyData)
	}
}

func TestBackwad(t *testing.T) {
	column := []float64{30000, 30100, 40000, 0, 30050}

	tests := []struct {
		name    string
		prices  []float64
		diff    uint16
		ratio   uint16
		want    float64
		wantErr error
	}{
		{"consensus reached", column, 1, 66, 30000, nil},
		{"consensus too low", column, 1, 80, 0, ErrConsensusBelowRatio},
		{"zero thresholds return master", []float64{100, 105, 200, 300}, 0, 0, 100, nil},
		{"master falls back", []float64{0, 100, 100, 100}, 0, 100, 100, nil},
		{"master missing", []float64{0, 0, 100, 100}, 0, 0, 0, ErrMasterPriceMissing},
		{"too short", []float64{1, 2, 3}, 0, 0, 0, ErrInsufficientInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Backwad(tt.prices, tt.diff, tt.ratio)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Backwad() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Backwad() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	column := []float64{30000, 30100, 40000, 0, 30050}

	got, err := Resolve(AlgoBackwad, column, nil, 0.01, 0.66)
	if err != nil {
		t.Fatalf("Resolve(backwad) error = %v", err)
	}
	if got != 30000 {
		t.Errorf("Resolve(backwad) = %v, want 30000", got)
	}

	if _, err := Resolve(AlgoBackwad, column, nil, 0.01, 0.80); !errors.Is(err, ErrConsensusBelowRatio) {
		t.Errorf("Resolve(backwad, ratio=0.80) error = %v, want %v", err, ErrConsensusBelowRatio)
	}

	avg, err := Resolve(AlgoAverage, []float64{1, 2, 3}, nil, 0, 0)
	if err != nil {
		t.Fatalf("Resolve(average) error = %v", err)
	}
	if avg != 2 {
		t.Errorf("Resolve(average) = %v, want 2", avg)
	}

	if _, err := Resolve("vwap", column, nil, 0, 0); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("Resolve(vwap) error = %v, want %v", err, ErrUnknownAlgorithm)
	}
}

// The default 0.001 deviation fraction truncates to zero integer
// percent, so a 1.5% outlier only agrees once diff reaches 0.01.
func TestResolveDiffTruncation(t *testing.T) {
	column := []float64{100, 101.5, 100, 100}

	if _, err := Resolve(AlgoBackwad, column, nil, 0.001, 0.80); !errors.Is(err, ErrConsensusBelowRatio) {
		t.Fatalf("Resolve(diff=0.001) error = %v, want %v", err, ErrConsensusBelowRatio)
	}

	got, err := Resolve(AlgoBackwad, column, nil, 0.01, 0.80)
	if err != nil {
		t.Fatalf("Resolve(diff=0.01) error = %v", err)
	}
	if got != 100 {
		t.Errorf("Resolve(diff=0.01) = %v, want 100", got)
	}
}

func TestTruncU16(t *testing.T) {
	tests := []struct {
		in   float64
		want uint16
	}{
		{0, 0},
		{-3.2, 0},
		{0.99, 0},
		{1.0, 1},
		{66.0, 66},
		{75.9, 75},
		{70000, 65535},
	}

	for _, tt := range tests {
		if got := truncU16(tt.in); got != tt.want {
			t.Errorf("truncU16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
