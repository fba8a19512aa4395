package main

import (
	"strings"
	"testing"
)

const baselineOutput = `goos: linux
BenchmarkValidateAccess-8   500000   2000 ns/op   900 B/op   12 allocs/op
BenchmarkValidateAccess-8   500000   2200 ns/op   900 B/op   12 allocs/op
BenchmarkValidateAccess-8   500000   2100 ns/op   900 B/op   12 allocs/op
BenchmarkAuthorize-8     90000000     12 ns/op      0 B/op    0 allocs/op
BenchmarkRefresh-8           1000 900000 ns/op
BenchmarkUntracked-8           10      5 ns/op
PASS
`

func TestParseTracksOnlyKnownBenchmarks(t *testing.T) {
	s, err := parse(strings.NewReader(baselineOutput))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := s["BenchmarkUntracked"]; ok {
		t.Fatal("untracked benchmark should be ignored")
	}
	if got := len(s["BenchmarkValidateAccess"]["ns/op"]); got != 3 {
		t.Fatalf("ValidateAccess ns/op samples = %d, want 3", got)
	}
	if got := median(s["BenchmarkValidateAccess"]["ns/op"]); got != 2100 {
		t.Fatalf("median = %v, want 2100", got)
	}
}

func TestCompareFlagsRegressionsAndMissing(t *testing.T) {
	base, _ := parse(strings.NewReader(baselineOutput))
	cand, _ := parse(strings.NewReader(`
BenchmarkValidateAccess-8   500000   4000 ns/op   900 B/op   12 allocs/op
BenchmarkAuthorize-8     90000000     12 ns/op      0 B/op    1 allocs/op
`))

	regressed := map[string]bool{}
	for _, r := range compare(base, cand) {
		if r.regressed(defaultThreshold) {
			regressed[r.benchmark+" "+r.unit] = true
		}
	}

	want := map[string]bool{
		"BenchmarkValidateAccess ns/op": true,
		"BenchmarkAuthorize allocs/op":  true,
		"BenchmarkRefresh ns/op":        true,
	}
	for k := range want {
		if !regressed[k] {
			t.Errorf("%s should be flagged", k)
		}
	}
	if len(regressed) != len(want) {
		t.Errorf("flagged %v, want %v", regressed, want)
	}
}

func TestTrimProcs(t *testing.T) {
	for raw, want := range map[string]string{
		"BenchmarkRefresh-16": "BenchmarkRefresh",
		"BenchmarkRefresh":    "BenchmarkRefresh",
		"BenchmarkA-b":        "BenchmarkA-b",
	} {
		if got := trimProcs(raw); got != want {
			t.Errorf("trimProcs(%q) = %q, want %q", raw, got, want)
		}
	}
}
