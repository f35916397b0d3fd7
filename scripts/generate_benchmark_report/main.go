package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a single benchmark result
type BenchmarkResult struct {
	Name        string
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// BenchmarkGroup pairs a markedjson benchmark with its yaml.v3 counterpart
type BenchmarkGroup struct {
	Operation  string
	MarkedJSON *BenchmarkResult
	YAMLv3     *BenchmarkResult

	// Ratios are yaml.v3 relative to markedjson (>1 means markedjson wins)
	SpeedupFactor float64
	MemoryRatio   float64
	AllocRatio    float64
}

// comparisons maps each markedjson operation to the yaml.v3 benchmark that
// does the same work.
var comparisons = []struct {
	Operation string
	Ours      string
	Theirs    string
}{
	{"Load", "BenchmarkMarkedJSON_Load", "BenchmarkYAMLv3_Node"},
	{"Unmarshal", "BenchmarkMarkedJSON_Unmarshal", "BenchmarkYAMLv3_Unmarshal"},
	{"Marshal", "BenchmarkMarkedJSON_Marshal", "BenchmarkYAMLv3_Marshal"},
}

var benchLine = regexp.MustCompile(`^(Benchmark\S+?)(?:-\d+)?\s+(\d+)\s+(\d+(?:\.\d+)?)\s+ns/op(?:\s+\d+(?:\.\d+)?\s+MB/s)?\s+(\d+)\s+B/op\s+(\d+)\s+allocs/op`)

func main() {
	benchTime := flag.String("benchtime", "3s", "Value passed to go test -benchtime")
	input := flag.String("input", "", "Read benchmark output from this file instead of running go test")
	output := flag.String("o", "PERFORMANCE_REPORT.md", "Report path, relative to the project root")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		fatal("Failed to get working directory: %v", err)
	}
	projectRoot := findProjectRoot(cwd)
	if projectRoot == "" {
		fatal("Could not find project root (looking for go.mod)")
	}

	var benchmarkOutput string
	if *input != "" {
		data, err := os.ReadFile(*input)
		if err != nil {
			fatal("Failed to read %s: %v", *input, err)
		}
		benchmarkOutput = string(data)
	} else {
		fmt.Println("Running benchmarks (this may take a few minutes)...")
		benchmarkOutput, err = runBenchmarks(projectRoot, *benchTime)
		if err != nil {
			fatal("Failed to run benchmarks: %v", err)
		}
	}

	results, err := parseBenchmarkOutput(strings.NewReader(benchmarkOutput))
	if err != nil {
		fatal("Failed to parse benchmark results: %v", err)
	}
	groups := groupBenchmarks(results)
	fmt.Printf("Parsed %d results into %d comparison groups\n", len(results), len(groups))

	reportPath := filepath.Join(projectRoot, *output)
	report := generateReport(groups, *benchTime, time.Now())
	if err := os.WriteFile(reportPath, []byte(report), 0644); err != nil {
		fatal("Failed to write report: %v", err)
	}
	fmt.Printf("Performance report written to: %s\n", reportPath)
}

// findProjectRoot walks up the directory tree to find go.mod
func findProjectRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func runBenchmarks(projectRoot, benchTime string) (string, error) {
	cmd := exec.Command("go", "test", "-run=^$", "-bench=.", "-benchmem", "-benchtime="+benchTime, "./pkg/markedjson/")
	cmd.Dir = projectRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("benchmark execution failed: %v\nStderr: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// parseBenchmarkOutput parses the output from go test -bench -benchmem
func parseBenchmarkOutput(r io.Reader) (map[string]*BenchmarkResult, error) {
	results := make(map[string]*BenchmarkResult)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		matches := benchLine.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)
		bytesPerOp, _ := strconv.ParseInt(matches[4], 10, 64)
		allocsPerOp, _ := strconv.ParseInt(matches[5], 10, 64)

		results[matches[1]] = &BenchmarkResult{
			Name:        matches[1],
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no benchmark results found in output")
	}
	return results, nil
}

// groupBenchmarks builds one group per operation that has both sides present
func groupBenchmarks(results map[string]*BenchmarkResult) []*BenchmarkGroup {
	var groups []*BenchmarkGroup
	for _, c := range comparisons {
		ours, theirs := results[c.Ours], results[c.Theirs]
		if ours == nil || theirs == nil {
			continue
		}
		group := &BenchmarkGroup{Operation: c.Operation, MarkedJSON: ours, YAMLv3: theirs}
		calculateRatios(group)
		groups = append(groups, group)
	}
	return groups
}

func calculateRatios(group *BenchmarkGroup) {
	if group.MarkedJSON.NsPerOp > 0 {
		group.SpeedupFactor = group.YAMLv3.NsPerOp / group.MarkedJSON.NsPerOp
	}
	if group.MarkedJSON.BytesPerOp > 0 {
		group.MemoryRatio = float64(group.YAMLv3.BytesPerOp) / float64(group.MarkedJSON.BytesPerOp)
	}
	if group.MarkedJSON.AllocsPerOp > 0 {
		group.AllocRatio = float64(group.YAMLv3.AllocsPerOp) / float64(group.MarkedJSON.AllocsPerOp)
	}
}

func generateReport(groups []*BenchmarkGroup, benchTime string, now time.Time) string {
	var buf bytes.Buffer

	buf.WriteString("# Performance Benchmark Report: shape-markedjson vs gopkg.in/yaml.v3\n\n")
	fmt.Fprintf(&buf, "**Date:** %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(&buf, "**Platform:** %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&buf, "**Go Version:** %s\n", runtime.Version())
	fmt.Fprintf(&buf, "**Benchmark Time:** %s per test\n\n", benchTime)

	buf.WriteString("yaml.v3 parses JSON as a YAML flow document and also tracks positions, ")
	buf.WriteString("which makes it the closest comparison for a marked loader.\n\n")

	buf.WriteString("## Summary\n\n")
	buf.WriteString("| Operation | markedjson | yaml.v3 | Speed | Memory | Allocs |\n")
	buf.WriteString("|-----------|-----------:|--------:|------:|-------:|-------:|\n")
	for _, g := range groups {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s | %s |\n",
			g.Operation,
			formatDuration(g.MarkedJSON.NsPerOp),
			formatDuration(g.YAMLv3.NsPerOp),
			formatRatio(g.SpeedupFactor),
			formatRatio(g.MemoryRatio),
			formatRatio(g.AllocRatio))
	}
	buf.WriteString("\nRatios above 1.0x favor markedjson.\n\n")

	buf.WriteString("## Raw Results\n\n```\n")
	for _, g := range groups {
		buf.WriteString(formatBenchmarkLine(g.MarkedJSON))
		buf.WriteString(formatBenchmarkLine(g.YAMLv3))
	}
	buf.WriteString("```\n\n")

	buf.WriteString("## Running the Benchmarks\n\n```bash\n")
	buf.WriteString("go test -run='^$' -bench=. -benchmem ./pkg/markedjson/\n")
	buf.WriteString("go run ./scripts/generate_benchmark_report\n```\n")
	return buf.String()
}

func formatBenchmarkLine(r *BenchmarkResult) string {
	return fmt.Sprintf("%-32s %10d %14.0f ns/op %10d B/op %8d allocs/op\n",
		r.Name, r.Iterations, r.NsPerOp, r.BytesPerOp, r.AllocsPerOp)
}

func formatRatio(r float64) string {
	if r == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2fx", r)
}

func formatDuration(ns float64) string {
	switch {
	case ns >= 1e9:
		return fmt.Sprintf("%.2f s", ns/1e9)
	case ns >= 1e6:
		return fmt.Sprintf("%.2f ms", ns/1e6)
	case ns >= 1e3:
		return fmt.Sprintf("%.2f us", ns/1e3)
	default:
		return fmt.Sprintf("%.0f ns", ns)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
