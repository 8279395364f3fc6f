//
// Copyright (c) 2020, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package timings

import (
	"encoding/csv"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleLog = `Test Number: 3
Test: liger_kernel/test_jsd/test_correctness
=== STDOUT ===
some pytest noise
Triton-Viz: execution time for _jsd_kernel: 3.326 ms
Triton-Viz: execution time for _jsd_kernel: 1.674 ms
unrelated line
=== STDERR ===
`

func TestParseSanitizerLog(t *testing.T) {
	perTest, err := ParseSanitizerLog(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("ParseSanitizerLog() failed: %s", err)
	}

	expectedName := "3_liger_kernel/test_jsd/test_correctness"
	timings, ok := perTest[expectedName]
	if !ok {
		t.Fatalf("ParseSanitizerLog() did not attribute timings to %s", expectedName)
	}
	if len(timings) != 2 {
		t.Fatalf("ParseSanitizerLog() returned %d timings instead of 2", len(timings))
	}
	if timings[0].Kernel != "_jsd_kernel" {
		t.Fatalf("ParseSanitizerLog() returned kernel %s instead of _jsd_kernel", timings[0].Kernel)
	}
	if timings[0].ExecTimeMs != 3.326 {
		t.Fatalf("ParseSanitizerLog() returned %f instead of 3.326", timings[0].ExecTimeMs)
	}

	total, count := TotalExecTimeMs(perTest)
	if count != 2 {
		t.Fatalf("TotalExecTimeMs() counted %d executions instead of 2", count)
	}
	if total != 5.0 {
		t.Fatalf("TotalExecTimeMs() returned %f instead of 5.0", total)
	}
}

func TestParseSanitizerLogPytestID(t *testing.T) {
	log := `Test Number: 7
Test: flag_gems/test_unary_pointwise_ops
test_unary_pointwise_ops.py::test_accuracy_abs PASSED
Triton-Viz: execution time for abs_kernel: 0.5 ms
`
	perTest, err := ParseSanitizerLog(strings.NewReader(log))
	if err != nil {
		t.Fatalf("ParseSanitizerLog() failed: %s", err)
	}

	expectedName := "test_unary_pointwise_ops.py::test_accuracy_abs"
	if _, ok := perTest[expectedName]; !ok {
		t.Fatalf("ParseSanitizerLog() did not attribute timings to %s", expectedName)
	}
}

func TestParseSanitizerLogNoTimings(t *testing.T) {
	perTest, err := ParseSanitizerLog(strings.NewReader("Test Number: 1\nTest: tritonbench/softmax\nnothing traced\n"))
	if err != nil {
		t.Fatalf("ParseSanitizerLog() failed: %s", err)
	}
	if len(perTest) != 0 {
		t.Fatalf("ParseSanitizerLog() returned %d tests instead of 0", len(perTest))
	}
}

func TestAnalyzeConfigDir(t *testing.T) {
	dir, err := ioutil.TempDir("", "analyze_test")
	if err != nil {
		t.Fatalf("unable to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	configDir := filepath.Join(dir, "no_cache")
	err = os.MkdirAll(configDir, 0755)
	if err != nil {
		t.Fatalf("unable to create %s: %s", configDir, err)
	}

	logs := map[string]string{
		"1_liger_kernel_test_jsd_test_correctness.log": "Test Number: 1\nTest: liger_kernel/test_jsd/test_correctness\nTriton-Viz: execution time for _jsd_kernel: 2.5 ms\nTriton-Viz: execution time for _jsd_kernel: 1.5 ms\n",
		"2_tritonbench_softmax.log":                    "Test Number: 2\nTest: tritonbench/softmax\nTriton-Viz: execution time for softmax_kernel: 10.0 ms\n",
		"notes.txt":                                    "not a log file",
	}
	for name, content := range logs {
		err = ioutil.WriteFile(filepath.Join(configDir, name), []byte(content), 0644)
		if err != nil {
			t.Fatalf("unable to write %s: %s", name, err)
		}
	}

	totals, err := AnalyzeConfigDir(configDir)
	if err != nil {
		t.Fatalf("AnalyzeConfigDir() failed: %s", err)
	}
	if len(totals) != 2 {
		t.Fatalf("AnalyzeConfigDir() returned %d tests instead of 2", len(totals))
	}

	first := totals[1]
	if first.FlatName != "liger_kernel_test_jsd_test_correctness" {
		t.Fatalf("AnalyzeConfigDir() returned flat name %s instead of liger_kernel_test_jsd_test_correctness", first.FlatName)
	}
	if first.TotalMs != 4.0 {
		t.Fatalf("AnalyzeConfigDir() returned %f instead of 4.0", first.TotalMs)
	}
	if first.Count != 2 {
		t.Fatalf("AnalyzeConfigDir() counted %d executions instead of 2", first.Count)
	}

	second := totals[2]
	if second.TotalMs != 10.0 {
		t.Fatalf("AnalyzeConfigDir() returned %f instead of 10.0", second.TotalMs)
	}
}

func TestSpeedups(t *testing.T) {
	baseline := map[int]FileTotal{
		1: {FlatName: "a", TotalMs: 10.0, Count: 1},
		2: {FlatName: "b", TotalMs: 20.0, Count: 1},
		3: {FlatName: "c", TotalMs: 0.0, Count: 0},
	}
	config := map[int]FileTotal{
		1: {FlatName: "a", TotalMs: 5.0, Count: 1},
		2: {FlatName: "b", TotalMs: 10.0, Count: 1},
		4: {FlatName: "d", TotalMs: 1.0, Count: 1},
	}

	speedups := Speedups(baseline, config)
	if len(speedups) != 2 {
		t.Fatalf("Speedups() returned %d values instead of 2", len(speedups))
	}
	if speedups[0] != 2.0 || speedups[1] != 2.0 {
		t.Fatalf("Speedups() returned %v instead of [2 2]", speedups)
	}

	avg, min, max := SpeedupStats(speedups)
	if avg != 2.0 || min != 2.0 || max != 2.0 {
		t.Fatalf("SpeedupStats() returned %f/%f/%f instead of 2/2/2", avg, min, max)
	}

	avg, min, max = SpeedupStats(nil)
	if avg != 0 || min != 0 || max != 0 {
		t.Fatalf("SpeedupStats() did not return zeros on an empty list")
	}
}

func TestWriteAblationCSV(t *testing.T) {
	dir, err := ioutil.TempDir("", "ablation_test")
	if err != nil {
		t.Fatalf("unable to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	labels := []string{"no_cache", "all_cache"}
	configResults := map[string]map[int]FileTotal{
		"no_cache": {
			1: {FlatName: "liger_kernel_test_jsd_test_correctness", TotalMs: 4.0, Count: 2},
			2: {FlatName: "tritonbench_softmax", TotalMs: 10.0, Count: 1},
		},
		"all_cache": {
			1: {FlatName: "liger_kernel_test_jsd_test_correctness", TotalMs: 2.0, Count: 2},
		},
	}

	path := filepath.Join(dir, "ablation_kernel_time.csv")
	numRows, err := WriteAblationCSV(path, labels, configResults)
	if err != nil {
		t.Fatalf("WriteAblationCSV() failed: %s", err)
	}
	if numRows != 2 {
		t.Fatalf("WriteAblationCSV() wrote %d rows instead of 2", numRows)
	}

	fd, err := os.Open(path)
	if err != nil {
		t.Fatalf("unable to open %s: %s", path, err)
	}
	defer fd.Close()
	rows, err := csv.NewReader(fd).ReadAll()
	if err != nil {
		t.Fatalf("unable to parse %s: %s", path, err)
	}

	expected := [][]string{
		{"Test_Name", "ablation_kernel_time_no_cache", "ablation_kernel_time_all_cache"},
		{"liger_kernel/test_jsd/test_correctness", "4.000", "2.000"},
		{"tritonbench/softmax", "10.000", "0.000"},
	}
	if len(rows) != len(expected) {
		t.Fatalf("WriteAblationCSV() produced %d rows instead of %d", len(rows), len(expected))
	}
	for i := range rows {
		for j := range rows[i] {
			if rows[i][j] != expected[i][j] {
				t.Fatalf("row %d column %d is %s instead of %s", i, j, rows[i][j], expected[i][j])
			}
		}
	}
}
