// Command authcore-perfcheck compares two `go test -bench` outputs and fails
// when a tracked authcore hot path got slower than the allowed ratio.
//
//	go test -run '^$' -bench 'ValidateAccess|Refresh|Authorize' -count 6 . > new.txt
//	authcore-perfcheck -baseline old.txt -candidate new.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

const defaultThreshold = 0.30

// trackedMetrics lists the hot paths of the engine and the units checked for
// each. Refresh is dominated by argon2 so only its latency is tracked.
var trackedMetrics = map[string][]string{
	"BenchmarkValidateAccess": {"ns/op", "allocs/op"},
	"BenchmarkAuthorize":      {"ns/op", "allocs/op"},
	"BenchmarkRefresh":        {"ns/op"},
}

// samples maps benchmark name -> unit -> observed values.
type samples map[string]map[string][]float64

type comparison struct {
	benchmark string
	unit      string
	baseline  float64
	candidate float64
	delta     float64
	missing   bool
}

func (c comparison) regressed(threshold float64) bool {
	return c.missing || c.delta > threshold
}

func main() {
	baselinePath := flag.String("baseline", "", "path to baseline benchmark output")
	candidatePath := flag.String("candidate", "", "path to candidate benchmark output")
	threshold := flag.Float64("threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	flag.Parse()

	if *baselinePath == "" || *candidatePath == "" {
		fmt.Fprintln(os.Stderr, "-baseline and -candidate are required")
		os.Exit(2)
	}
	if *threshold < 0 {
		fmt.Fprintln(os.Stderr, "-threshold must be >= 0")
		os.Exit(2)
	}

	baseline, err := parseFile(*baselinePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse baseline: %v\n", err)
		os.Exit(1)
	}
	candidate, err := parseFile(*candidatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse candidate: %v\n", err)
		os.Exit(1)
	}

	results := compare(baseline, candidate)
	failed := 0
	fmt.Printf("%-26s %-10s %14s %14s %9s\n", "benchmark", "unit", "baseline", "candidate", "delta")
	for _, r := range results {
		if r.missing {
			fmt.Printf("%-26s %-10s %14s %14s %9s\n", r.benchmark, r.unit, "-", "-", "missing")
		} else {
			fmt.Printf("%-26s %-10s %14.1f %14.1f %+8.1f%%\n", r.benchmark, r.unit, r.baseline, r.candidate, r.delta*100)
		}
		if r.regressed(*threshold) {
			failed++
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d metric(s) regressed beyond %+0.1f%% or were missing\n", failed, *threshold*100)
		os.Exit(1)
	}
}

// compare takes the median of each tracked metric in both runs. Results are
// sorted by benchmark then unit so output is stable.
func compare(baseline, candidate samples) []comparison {
	var out []comparison
	for benchmark, units := range trackedMetrics {
		for _, unit := range units {
			c := comparison{benchmark: benchmark, unit: unit}
			base, cand := baseline[benchmark][unit], candidate[benchmark][unit]
			if len(base) == 0 || len(cand) == 0 {
				c.missing = true
				out = append(out, c)
				continue
			}
			c.baseline, c.candidate = median(base), median(cand)
			switch {
			case c.baseline > 0:
				c.delta = (c.candidate - c.baseline) / c.baseline
			case c.candidate > 0:
				// Zero allocations growing to any allocation is a regression.
				c.delta = 1
			}
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b comparison) int {
		if a.benchmark != b.benchmark {
			return strings.Compare(a.benchmark, b.benchmark)
		}
		return strings.Compare(a.unit, b.unit)
	})
	return out
}

func parseFile(path string) (samples, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parse(file)
}

// parse reads lines like
//
//	BenchmarkRefresh-8   1234   950000 ns/op   4096 B/op   51 allocs/op
func parse(r io.Reader) (samples, error) {
	out := samples{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") {
			continue
		}

		name := trimProcs(fields[0])
		if _, ok := trackedMetrics[name]; !ok {
			continue
		}
		if out[name] == nil {
			out[name] = map[string][]float64{}
		}

		for i := 2; i+1 < len(fields); i += 2 {
			value, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			out[name][fields[i+1]] = append(out[name][fields[i+1]], value)
		}
	}
	return out, scanner.Err()
}

// trimProcs drops the -GOMAXPROCS suffix.
func trimProcs(raw string) string {
	if idx := strings.LastIndexByte(raw, '-'); idx > 0 {
		if _, err := strconv.Atoi(raw[idx+1:]); err == nil {
			return raw[:idx]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
