package dataset

import (
	"errors"
	"math"
	"testing"
)

func rampSeries(n, dim int) [][]float64 {
	s := make([][]float64, n)
	for i := range s {
		s[i] = make([]float64, dim)
		for j := range s[i] {
			s[i][j] = float64(i) + float64(j)*100
		}
	}
	return s
}

func TestMinMaxScalerRoundtrip(t *testing.T) {
	series := rampSeries(50, 3)

	sc := NewMinMax()
	if err := sc.Fit(series); err != nil {
		t.Fatal(err)
	}

	scaled, err := sc.Transform(series)
	if err != nil {
		t.Fatal(err)
	}

	for _, row := range scaled {
		for _, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("scaled value out of [0,1]: %f", v)
			}
		}
	}

	back, err := sc.Inverse(scaled)
	if err != nil {
		t.Fatal(err)
	}
	for i := range series {
		for j := range series[i] {
			if math.Abs(back[i][j]-series[i][j]) > 1e-9 {
				t.Fatalf("roundtrip mismatch at (%d,%d): %f != %f", i, j, back[i][j], series[i][j])
			}
		}
	}
}

func TestStandardScalerMoments(t *testing.T) {
	series := rampSeries(100, 2)

	sc := NewStandard()
	if err := sc.Fit(series); err != nil {
		t.Fatal(err)
	}
	scaled, err := sc.Transform(series)
	if err != nil {
		t.Fatal(err)
	}

	for ch := 0; ch < 2; ch++ {
		sum := 0.0
		for _, row := range scaled {
			sum += row[ch]
		}
		mean := sum / float64(len(scaled))
		if math.Abs(mean) > 1e-9 {
			t.Errorf("channel %d mean not ~0: %e", ch, mean)
		}
	}
}

func TestScalerConstantChannel(t *testing.T) {
	series := [][]float64{{1, 5}, {2, 5}, {3, 5}}

	sc := NewMinMax()
	if err := sc.Fit(series); err != nil {
		t.Fatal(err)
	}
	scaled, err := sc.Transform(series)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range scaled {
		if math.IsNaN(row[1]) || math.IsInf(row[1], 0) {
			t.Fatal("constant channel produced NaN/Inf")
		}
	}
}

func TestScalerNotFitted(t *testing.T) {
	_, err := NewMinMax().Transform([][]float64{{1}})
	if !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
}

func TestScalerEmptySeries(t *testing.T) {
	if err := NewStandard().Fit(nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}

func TestMakeWindowsShapes(t *testing.T) {
	series := rampSeries(20, 3)

	set, err := MakeWindows(series, 5, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	// start in [0, 13]: start+5+2 <= 20
	if set.Len() != 14 {
		t.Fatalf("expected 14 samples, got %d", set.Len())
	}

	for _, s := range set.Samples {
		if len(s.Window) != 5 || len(s.Target) != 2 {
			t.Fatalf("bad shapes: window %d, target %d", len(s.Window), len(s.Target))
		}
	}

	// Target of the first window must be the rows just after it.
	if set.Samples[0].Target[0][0] != series[5][0] {
		t.Error("first target row misaligned")
	}
}

func TestMakeWindowsStride(t *testing.T) {
	series := rampSeries(20, 1)

	set, err := MakeWindows(series, 5, 1, 3)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < set.Len(); i++ {
		prev := set.Samples[i-1].Window[0][0]
		cur := set.Samples[i].Window[0][0]
		if cur-prev != 3 {
			t.Fatalf("stride not respected: %f -> %f", prev, cur)
		}
	}
}

func TestMakeWindowsTooShort(t *testing.T) {
	_, err := MakeWindows(rampSeries(5, 1), 5, 2, 1)
	if !errors.Is(err, ErrShortSeries) {
		t.Errorf("expected ErrShortSeries, got %v", err)
	}
}

func TestSplitChronological(t *testing.T) {
	series := rampSeries(30, 1)
	set, err := MakeWindows(series, 4, 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	train, val := Split(set, 0.8)
	if train.Len()+val.Len() != set.Len() {
		t.Fatal("split lost samples")
	}

	lastTrain := train.Samples[train.Len()-1].Window[0][0]
	firstVal := val.Samples[0].Window[0][0]
	if firstVal <= lastTrain {
		t.Error("validation samples precede training samples")
	}
}
