//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package timings extracts kernel execution times from the logs written by
// sanitizer-instrumented test runs and aggregates them per test and per
// cache configuration.
package timings

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
)

// The triton-sanitizer reports one line per traced kernel execution, e.g.:
// Triton-Viz: execution time for _jsd_kernel: 3.326 ms
var execTimeRegex = regexp.MustCompile(`Triton-Viz:\s+execution time for\s+(\S+):\s+([\d.]+)\s+ms`)

// Header lines written by the runner at the top of every log file
var testNumberRegex = regexp.MustCompile(`Test Number:\s+(\d+)`)
var testNameRegex = regexp.MustCompile(`Test:\s+(.+)`)

// Logs may also carry pytest-style node identifiers for individual test cases
var pytestIDRegex = regexp.MustCompile(`(test_\w+\.py::\S+)`)

// KernelTiming is one traced kernel execution
type KernelTiming struct {
	// Kernel is the name of the traced kernel
	Kernel string

	// ExecTimeMs is the reported execution time in milliseconds
	ExecTimeMs float64
}

// FileTotal aggregates the kernel executions of one test log file
type FileTotal struct {
	// FlatName is the flattened test name embedded in the log file name
	FlatName string

	// TotalMs is the sum of the execution times of all traced kernels
	TotalMs float64

	// Count is the number of traced kernel executions
	Count int
}

// logFileNameRegex matches <number>_<flattened test name>.log
var logFileNameRegex = regexp.MustCompile(`^(\d+)_(.+)\.log$`)

// ParseSanitizerLog extracts the kernel execution times reported by the
// triton-sanitizer from a log stream. The result maps test names, as declared
// by the log headers, to their kernel timings. Lines that do not match any
// known format are ignored so partially corrupted logs still yield data.
func ParseSanitizerLog(reader io.Reader) (map[string][]KernelTiming, error) {
	perTest := make(map[string][]KernelTiming)
	testName := ""
	testNumber := ""

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := testNumberRegex.FindStringSubmatch(line); m != nil {
			testNumber = m[1]
		}
		if m := testNameRegex.FindStringSubmatch(line); m != nil {
			testName = strings.TrimSpace(m[1])
			if testNumber != "" && testName != "" {
				testName = testNumber + "_" + testName
			}
		}
		if m := pytestIDRegex.FindStringSubmatch(line); m != nil {
			testName = m[1]
		}

		m := execTimeRegex.FindStringSubmatch(line)
		if m == nil || testName == "" {
			continue
		}
		execTime, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse execution time %s: %s", m[2], err)
		}
		perTest[testName] = append(perTest[testName], KernelTiming{Kernel: m[1], ExecTimeMs: execTime})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read log: %s", err)
	}

	return perTest, nil
}

// TotalExecTimeMs sums the execution times of all traced kernels of a log
func TotalExecTimeMs(perTest map[string][]KernelTiming) (float64, int) {
	total := 0.0
	count := 0
	for _, ts := range perTest {
		for _, t := range ts {
			total += t.ExecTimeMs
			count++
		}
	}
	return total, count
}

// AnalyzeConfigDir parses all the log files of one configuration directory
// and returns the per-test totals keyed by the global test number embedded in
// the log file names. Files that do not follow the runner's naming scheme are
// skipped with a log message.
func AnalyzeConfigDir(dir string) (map[int]FileTotal, error) {
	fd, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %s", dir, err)
	}
	names, err := fd.Readdirnames(-1)
	fd.Close()
	if err != nil {
		return nil, fmt.Errorf("unable to list %s: %s", dir, err)
	}
	sort.Strings(names)

	totals := make(map[int]FileTotal)
	for _, name := range names {
		m := logFileNameRegex.FindStringSubmatch(name)
		if m == nil {
			if strings.HasSuffix(name, format.LogFileSuffix) {
				log.Printf("skipping %s: unexpected log file name", name)
			}
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		logFd, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("unable to open %s: %s", name, err)
		}
		perTest, err := ParseSanitizerLog(logFd)
		logFd.Close()
		if err != nil {
			return nil, fmt.Errorf("unable to parse %s: %s", name, err)
		}

		total, count := TotalExecTimeMs(perTest)
		totals[num] = FileTotal{
			FlatName: m[2],
			TotalMs:  total,
			Count:    count,
		}
	}

	return totals, nil
}

// Speedups computes the per-test speedup of a configuration against a
// baseline. Tests missing from either side or with a zero total are skipped.
func Speedups(baseline map[int]FileTotal, config map[int]FileTotal) []float64 {
	var nums []int
	for n := range baseline {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var speedups []float64
	for _, n := range nums {
		b := baseline[n]
		c, ok := config[n]
		if !ok || b.TotalMs <= 0 || c.TotalMs <= 0 {
			continue
		}
		speedups = append(speedups, b.TotalMs/c.TotalMs)
	}
	return speedups
}

// SpeedupStats reduces a speedup list to its average, minimum and maximum
func SpeedupStats(speedups []float64) (float64, float64, float64) {
	if len(speedups) == 0 {
		return 0, 0, 0
	}
	sum := 0.0
	min := speedups[0]
	max := speedups[0]
	for _, s := range speedups {
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return sum / float64(len(speedups)), min, max
}
