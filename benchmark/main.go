// Package main provides a performance benchmarking tool for the Foothold CLI.
// It generates synthetic city datasets of increasing size in CSV and XLSX form and
// measures execution times per command, running each test multiple times, treating
// the first successful cached run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - foothold binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated datasets and the isolated cache
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v2"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// DatasetSpec describes one synthetic dataset.
type DatasetSpec struct {
	Name     string
	Cities   int
	Criteria int
	Format   string // csv or xlsx
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    []DatasetSpec
	Commands    []string
}

var sphereLabels = []string{"Political", "Economic", "Social", "Spiritual"}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}
	workDir := os.Args[1]

	config := BenchmarkConfig{
		WorkDir:     workDir,
		Timeout:     5 * time.Minute,
		Workers:     14,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets: []DatasetSpec{
			{Name: "small", Cities: 50, Criteria: 8, Format: "csv"},
			{Name: "medium", Cities: 500, Criteria: 16, Format: "csv"},
			{Name: "medium-xlsx", Cities: 500, Criteria: 16, Format: "xlsx"},
			{Name: "large", Cities: 5000, Criteria: 32, Format: "csv"},
		},
		Commands: []string{"rank", "normalize"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Clear the cache using foothold cache clear
	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("foothold", "cache", "clear")
	clearCmd.Env = benchEnv(config)
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the foothold binary exists and the work dir is usable.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("foothold"); err != nil {
		return fmt.Errorf("foothold binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// benchEnv points HOME at the work dir so the SQLite cache is isolated.
func benchEnv(config BenchmarkConfig) []string {
	return append(os.Environ(), "HOME="+config.WorkDir, "FOOTHOLD_COLOR=no")
}

// runBenchmarks generates every dataset and executes all commands against it.
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, spec := range config.Datasets {
		path, err := generateDataset(config.WorkDir, spec)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", spec.Name, err)
		}
		fmt.Printf("Benchmarking %s (%d cities x %d criteria, %s)\n", spec.Name, spec.Cities, spec.Criteria, spec.Format)

		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, spec.Name, path, command))
		}
	}

	return results, nil
}

// generateDataset writes a reproducible random dataset with about 5% missing cells.
func generateDataset(dir string, spec DatasetSpec) (string, error) {
	rng := rand.New(rand.NewPCG(uint64(spec.Cities), uint64(spec.Criteria)))

	header := []string{"City"}
	spheres := []string{""}
	for i := range spec.Criteria {
		header = append(header, fmt.Sprintf("c%02d", i+1))
		spheres = append(spheres, sphereLabels[i*len(sphereLabels)/spec.Criteria])
	}
	rows := [][]string{header, spheres}
	for c := range spec.Cities {
		row := []string{fmt.Sprintf("City %05d", c+1)}
		for range spec.Criteria {
			if rng.Float64() < 0.05 {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(rng.Float64()*1000, 'f', 2, 64))
		}
		rows = append(rows, row)
	}

	path := filepath.Join(dir, spec.Name+"."+spec.Format)
	if spec.Format == "xlsx" {
		return path, writeXLSX(path, rows)
	}
	return path, writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func writeXLSX(path string, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Cities")
	if err != nil {
		return err
	}
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	return f.Save(path)
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, source, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, source, command, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a foothold command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, source, command, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{command, source, "--cache-backend", cacheBackend, "--workers", strconv.Itoa(config.Workers)}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("foothold", args...)
		cmd.Env = benchEnv(config)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "Cache backend:")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("foothold_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"dataset", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-12s: No-cache: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}

	fmt.Printf("Benchmark script completed successfully\n")
}
