//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package format

import (
	"fmt"
	"strings"
)

const (
	// ResultsCSVFileName is the name of the aggregated results file written at the top of an output directory
	ResultsCSVFileName = "kernel_timing_results.csv"

	// OrderedCSVFileName is the name of the whitelist-ordered variant of the results file
	OrderedCSVFileName = "kernel_timing_ordered.csv"

	// RecordsCSVFileName is the name of the raw per-run records file written by the runner in completion order
	RecordsCSVFileName = "run_records.csv"

	// AblationCSVFileName is the name of the per-cache-configuration timing file of ablation studies
	AblationCSVFileName = "ablation_kernel_time.csv"

	// LogFileSuffix is the extension of per-test log files
	LogFileSuffix = ".log"

	// OutputDirPrefix is the prefix of the timestamped output directories created by the wrappers
	OutputDirPrefix = "test_outputs"
)

var knownRepos = []string{"liger_kernel", "flag_gems", "tritonbench"}

// LogFileName returns the name of the log file of a test. The global test
// number prefixes the name so logs sort in registry order and the analysis
// step can recover the number without re-reading the registry.
func LogFileName(testNumber int, testID string) string {
	flat := strings.ReplaceAll(testID, "/", "_")
	return fmt.Sprintf("%d_%s%s", testNumber, flat, LogFileSuffix)
}

// TestIDFromFlatName reverses the flattening done when naming log files:
// <repo>_<test_file>_<test_func> becomes <repo>/<test_file>/<test_func>.
// TritonBench entries have no function component so only the repository
// separator is restored. When the file part embeds several 'test_' markers,
// the last one starts the function name.
func TestIDFromFlatName(flatName string) string {
	repo := ""
	remainder := ""
	for _, r := range knownRepos {
		if strings.HasPrefix(flatName, r+"_") {
			repo = r
			remainder = flatName[len(r)+1:]
			break
		}
	}
	if repo == "" {
		return flatName
	}

	if repo == "tritonbench" {
		return repo + "/" + remainder
	}

	var positions []int
	i := 0
	for i < len(remainder) {
		if strings.HasPrefix(remainder[i:], "test_") {
			positions = append(positions, i)
			i += len("test_")
		} else {
			i++
		}
	}

	if len(positions) <= 1 {
		return repo + "/" + remainder
	}

	split := positions[len(positions)-1]
	return repo + "/" + remainder[:split-1] + "/" + remainder[split:]
}
