//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package runner

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/results"
)

func TestClean(t *testing.T) {
	dir, err := ioutil.TempDir("", "clean_test")
	if err != nil {
		t.Fatalf("unable to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	for _, name := range []string{"test_outputs_20250101_120000", "test_outputs_ablation_20250101_130000", "repos"} {
		err = os.Mkdir(filepath.Join(dir, name), 0755)
		if err != nil {
			t.Fatalf("unable to create %s: %s", name, err)
		}
	}
	// A matching plain file must survive
	err = ioutil.WriteFile(filepath.Join(dir, "test_outputs_notes.txt"), []byte(""), 0644)
	if err != nil {
		t.Fatalf("unable to create file: %s", err)
	}

	removed, err := Clean(dir, DefaultCleanPattern)
	if err != nil {
		t.Fatalf("Clean() failed: %s", err)
	}
	if len(removed) != 2 {
		t.Fatalf("Clean() removed %d directories instead of 2", len(removed))
	}

	if !util.PathExists(filepath.Join(dir, "repos")) {
		t.Fatalf("Clean() removed a directory not matching the pattern")
	}
	if !util.FileExists(filepath.Join(dir, "test_outputs_notes.txt")) {
		t.Fatalf("Clean() removed a plain file")
	}
	if util.PathExists(filepath.Join(dir, "test_outputs_20250101_120000")) {
		t.Fatalf("Clean() did not remove a matching directory")
	}
}

func TestCleanNoMatch(t *testing.T) {
	dir, err := ioutil.TempDir("", "clean_nomatch_test")
	if err != nil {
		t.Fatalf("unable to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	removed, err := Clean(dir, DefaultCleanPattern)
	if err != nil {
		t.Fatalf("Clean() failed: %s", err)
	}
	if len(removed) != 0 {
		t.Fatalf("Clean() removed %d directories instead of 0", len(removed))
	}
}

func TestCombineExitCode(t *testing.T) {
	tests := []struct {
		phases         []PhaseResult
		expectedResult int
	}{
		{
			phases:         nil,
			expectedResult: 0,
		},
		{
			phases: []PhaseResult{
				{Name: "test execution", Err: nil},
				{Name: "analysis", Err: nil},
			},
			expectedResult: 0,
		},
		{
			phases: []PhaseResult{
				{Name: "test execution", Err: fmt.Errorf("some tests failed")},
				{Name: "analysis", Err: nil},
			},
			expectedResult: 1,
		},
		{
			phases: []PhaseResult{
				{Name: "test execution", Err: nil},
				{Name: "analysis", Err: fmt.Errorf("no records")},
			},
			expectedResult: 1,
		},
	}

	for _, tt := range tests {
		code := CombineExitCode(tt.phases)
		if code != tt.expectedResult {
			t.Fatalf("CombineExitCode() returned %d instead of %d", code, tt.expectedResult)
		}
	}
}

func TestAnalyzeFromLogs(t *testing.T) {
	dir, err := ioutil.TempDir("", "analyze_logs_test")
	if err != nil {
		t.Fatalf("unable to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	labelDir := filepath.Join(dir, "ablation_studies", "no_cache")
	err = os.MkdirAll(labelDir, 0755)
	if err != nil {
		t.Fatalf("unable to create %s: %s", labelDir, err)
	}

	logContent := "Test Number: 1\nTest: tritonbench/softmax\nTriton-Viz: execution time for softmax_kernel: 10.0 ms\n"
	err = ioutil.WriteFile(filepath.Join(labelDir, "1_tritonbench_softmax.log"), []byte(logContent), 0644)
	if err != nil {
		t.Fatalf("unable to write log: %s", err)
	}

	err = Analyze(dir, format.ResultsCSVFileName)
	if err != nil {
		t.Fatalf("Analyze() failed: %s", err)
	}

	records, err := results.ReadCSV(filepath.Join(dir, format.ResultsCSVFileName))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %s", err)
	}
	if len(records) != 1 {
		t.Fatalf("Analyze() produced %d records instead of 1", len(records))
	}
	if records[0].TestID != "tritonbench/softmax" {
		t.Fatalf("Analyze() attributed the record to %s instead of tritonbench/softmax", records[0].TestID)
	}
	if records[0].ConfigLabel != "no_cache" {
		t.Fatalf("Analyze() labeled the record %s instead of no_cache", records[0].ConfigLabel)
	}
	if records[0].Status != results.StatusPass {
		t.Fatalf("Analyze() reported %s instead of %s", records[0].Status, results.StatusPass)
	}
}

func TestAnalyzeFromRecords(t *testing.T) {
	dir, err := ioutil.TempDir("", "analyze_records_test")
	if err != nil {
		t.Fatalf("unable to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	records := []results.RunRecord{
		{TestID: "tritonbench/softmax", Sanitizer: "baseline", ConfigLabel: "baseline", Status: results.StatusPass, ElapsedSeconds: 1.0},
		{TestID: "liger_kernel/test_jsd/test_correctness", Sanitizer: "baseline", ConfigLabel: "baseline", Status: results.StatusFail, ElapsedSeconds: 2.0},
	}
	err = results.WriteCSV(filepath.Join(dir, format.RecordsCSVFileName), records)
	if err != nil {
		t.Fatalf("WriteCSV() failed: %s", err)
	}

	err = Analyze(dir, format.ResultsCSVFileName)
	if err != nil {
		t.Fatalf("Analyze() failed: %s", err)
	}

	loaded, err := results.ReadCSV(filepath.Join(dir, format.ResultsCSVFileName))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %s", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Analyze() produced %d records instead of 2", len(loaded))
	}
	// The aggregated CSV is sorted by test identifier
	if loaded[0].TestID != "liger_kernel/test_jsd/test_correctness" {
		t.Fatalf("Analyze() placed %s first instead of liger_kernel/test_jsd/test_correctness", loaded[0].TestID)
	}
}

func TestReorderCSV(t *testing.T) {
	dir, err := ioutil.TempDir("", "reorder_test")
	if err != nil {
		t.Fatalf("unable to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	records := []results.RunRecord{
		{TestID: "flag_gems/test_binary_pointwise_ops", Sanitizer: "baseline", ConfigLabel: "baseline", Status: results.StatusPass, ElapsedSeconds: 1.0},
		{TestID: "liger_kernel/test_jsd/test_correctness", Sanitizer: "baseline", ConfigLabel: "baseline", Status: results.StatusPass, ElapsedSeconds: 2.0},
		{TestID: "tritonbench/softmax", Sanitizer: "baseline", ConfigLabel: "baseline", Status: results.StatusPass, ElapsedSeconds: 3.0},
	}
	input := filepath.Join(dir, format.ResultsCSVFileName)
	err = results.WriteCSV(input, records)
	if err != nil {
		t.Fatalf("WriteCSV() failed: %s", err)
	}

	whitelist := []string{"tritonbench/softmax", "liger_kernel/test_jsd/test_correctness"}
	output := filepath.Join(dir, format.OrderedCSVFileName)
	err = ReorderCSV(input, output, whitelist)
	if err != nil {
		t.Fatalf("ReorderCSV() failed: %s", err)
	}

	ordered, err := results.ReadCSV(output)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %s", err)
	}
	expected := []string{
		"tritonbench/softmax",
		"liger_kernel/test_jsd/test_correctness",
		"flag_gems/test_binary_pointwise_ops",
	}
	for i := range ordered {
		if ordered[i].TestID != expected[i] {
			t.Fatalf("ReorderCSV() placed %s at position %d instead of %s", ordered[i].TestID, i, expected[i])
		}
	}
}
