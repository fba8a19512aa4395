package internaldefs

import (
	"strings"
	"testing"

	"github.com/MrEthical07/authcore"
)

func TestDefsCoverEveryMetric(t *testing.T) {
	seen := map[authcore.MetricID]bool{}
	names := map[string]bool{}
	for _, d := range CounterDefs {
		seen[d.ID] = true
		names[d.Name] = true
		if !strings.HasPrefix(d.Name, "authcore_") || !strings.HasSuffix(d.Name, "_total") {
			t.Errorf("bad counter name %q", d.Name)
		}
	}
	for _, d := range HistogramDefs {
		seen[d.ID] = true
		names[d.Name] = true
	}
	if len(seen) != int(authcore.MetricValidateLatency)+1 {
		t.Fatalf("defs cover %d metrics, want %d", len(seen), int(authcore.MetricValidateLatency)+1)
	}
	if len(names) != len(CounterDefs)+len(HistogramDefs) {
		t.Fatal("duplicate metric names")
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if len(HistogramUpperBounds)+1 != len(HistogramBoundSuffix) {
		t.Fatal("bounds and suffixes disagree")
	}
}
