//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package results

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func sampleRecords() []RunRecord {
	return []RunRecord{
		{TestID: "tritonbench/softmax", Sanitizer: "baseline", ConfigLabel: "baseline", Status: StatusPass, ElapsedSeconds: 1.5},
		{TestID: "liger_kernel/test_jsd/test_correctness", Sanitizer: "triton-sanitizer", ConfigLabel: "triton-sanitizer", Status: StatusFail, ElapsedSeconds: 12.25},
		{TestID: "flag_gems/test_binary_pointwise_ops", Sanitizer: "compute-sanitizer", ConfigLabel: "compute-sanitizer", Status: StatusPass, ElapsedSeconds: 3.0},
	}
}

func TestWriteReadCSV(t *testing.T) {
	dir, err := ioutil.TempDir("", "results_test")
	if err != nil {
		t.Fatalf("unable to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "kernel_timing_results.csv")
	records := sampleRecords()
	err = WriteCSV(path, records)
	if err != nil {
		t.Fatalf("WriteCSV() failed: %s", err)
	}

	loaded, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %s", err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("ReadCSV() returned %d records instead of %d", len(loaded), len(records))
	}
	for i := range loaded {
		if loaded[i] != records[i] {
			t.Fatalf("ReadCSV() returned %v instead of %v", loaded[i], records[i])
		}
	}
}

func TestAppendCSV(t *testing.T) {
	dir, err := ioutil.TempDir("", "append_test")
	if err != nil {
		t.Fatalf("unable to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "run_records.csv")
	records := sampleRecords()
	for _, r := range records {
		err = AppendCSV(path, r)
		if err != nil {
			t.Fatalf("AppendCSV() failed: %s", err)
		}
	}

	loaded, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %s", err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("AppendCSV() persisted %d records instead of %d", len(loaded), len(records))
	}
	for i := range loaded {
		if loaded[i] != records[i] {
			t.Fatalf("AppendCSV() persisted %v instead of %v", loaded[i], records[i])
		}
	}
}

func TestSortByTestID(t *testing.T) {
	records := sampleRecords()
	SortByTestID(records)

	expected := []string{
		"flag_gems/test_binary_pointwise_ops",
		"liger_kernel/test_jsd/test_correctness",
		"tritonbench/softmax",
	}
	for i := range records {
		if records[i].TestID != expected[i] {
			t.Fatalf("SortByTestID() placed %s at position %d instead of %s", records[i].TestID, i, expected[i])
		}
	}
}

func TestReorder(t *testing.T) {
	records := sampleRecords()
	whitelist := []string{
		"liger_kernel/test_jsd/test_correctness",
		"tritonbench/softmax",
	}

	ordered := Reorder(records, whitelist)
	if len(ordered) != len(records) {
		t.Fatalf("Reorder() returned %d records instead of %d", len(ordered), len(records))
	}

	expected := []string{
		"liger_kernel/test_jsd/test_correctness",
		"tritonbench/softmax",
		"flag_gems/test_binary_pointwise_ops",
	}
	for i := range ordered {
		if ordered[i].TestID != expected[i] {
			t.Fatalf("Reorder() placed %s at position %d instead of %s", ordered[i].TestID, i, expected[i])
		}
	}
}
