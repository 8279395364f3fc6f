//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package runner

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/configs"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/repos"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/results"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/timings"
)

// Analyze aggregates the records of an experiment output directory into the
// results CSV, sorted by test identifier. When the runner's raw records file
// is available it is authoritative; otherwise the records are reconstructed
// from the per-test logs so results can still be produced for partial or
// foreign output directories.
func Analyze(outputDir string, csvName string) error {
	var records []results.RunRecord
	var err error

	recordsPath := filepath.Join(outputDir, format.RecordsCSVFileName)
	if util.FileExists(recordsPath) {
		records, err = results.ReadCSV(recordsPath)
		if err != nil {
			return err
		}
	} else {
		records, err = recordsFromLogs(outputDir)
		if err != nil {
			return err
		}
	}

	if len(records) == 0 {
		return fmt.Errorf("no run records found in %s", outputDir)
	}

	results.SortByTestID(records)
	return results.WriteCSV(filepath.Join(outputDir, csvName), records)
}

// recordsFromLogs rebuilds run records from the log files of an output
// directory. Status and elapsed time are derived from the traced kernel
// timings: a log with no parsed kernel execution is reported as a failure.
func recordsFromLogs(outputDir string) ([]results.RunRecord, error) {
	var records []results.RunRecord

	groupDirs, err := ioutil.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("unable to list %s: %s", outputDir, err)
	}

	for _, groupDir := range groupDirs {
		if !groupDir.IsDir() {
			continue
		}
		groupName := groupDir.Name()
		labelDirs, err := ioutil.ReadDir(filepath.Join(outputDir, groupName))
		if err != nil {
			return nil, fmt.Errorf("unable to list %s: %s", groupName, err)
		}

		for _, labelDir := range labelDirs {
			if !labelDir.IsDir() {
				continue
			}
			label := labelDir.Name()
			totals, err := timings.AnalyzeConfigDir(filepath.Join(outputDir, groupName, label))
			if err != nil {
				return nil, err
			}

			var nums []int
			for n := range totals {
				nums = append(nums, n)
			}
			sort.Ints(nums)

			for _, n := range nums {
				t := totals[n]
				record := results.RunRecord{
					TestID:         format.TestIDFromFlatName(t.FlatName),
					Sanitizer:      sanitizerForLabel(groupName, label),
					ConfigLabel:    label,
					Status:         results.StatusFail,
					ElapsedSeconds: t.TotalMs / 1000.0,
				}
				if t.Count > 0 {
					record.Status = results.StatusPass
				}
				records = append(records, record)
			}
		}
	}

	return records, nil
}

// sanitizerForLabel recovers the sanitizer of a config label from the group
// registry. Unknown groups fall back to the label itself, which is correct
// for the kernel_time groups where labels are sanitizer names.
func sanitizerForLabel(groupName string, label string) string {
	group, err := configs.Lookup(groupName)
	if err != nil {
		return label
	}
	for _, entry := range group.Entries {
		if entry.Label == label {
			return entry.Sanitizer
		}
	}
	return label
}

// ReorderCSV writes the whitelist-ordered permutation of a results CSV.
// Rows whose test is not in the whitelist keep their original relative order
// after the whitelisted ones.
func ReorderCSV(inputPath string, outputPath string, whitelist []string) error {
	records, err := results.ReadCSV(inputPath)
	if err != nil {
		return err
	}
	ordered := results.Reorder(records, whitelist)
	return results.WriteCSV(outputPath, ordered)
}

// CombinedWhitelist concatenates the whitelists of all repositories present
// in the base directory, in repository run order, normalized to canonical
// test identifiers. An empty result means no whitelist is in effect.
func CombinedWhitelist(basedir string) ([]string, error) {
	var combined []string
	for _, repo := range repos.RunOrder {
		path, err := repos.WhitelistPath(basedir, repo)
		if err != nil {
			return nil, err
		}
		if !util.FileExists(path) {
			continue
		}
		tests, err := repos.ListTests(basedir, repo)
		if err != nil {
			return nil, err
		}
		combined = append(combined, tests...)
	}
	return combined, nil
}
