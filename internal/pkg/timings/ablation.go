//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package timings

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
)

// ablationColumnPrefix prefixes the per-configuration columns of the ablation CSV
const ablationColumnPrefix = "ablation_kernel_time_"

// WriteAblationCSV exports the per-configuration kernel timing totals to a
// CSV file with one row per test and one column per cache configuration.
// Rows are ordered by global test number; a test missing from a given
// configuration gets a 0.000 entry for that column.
func WriteAblationCSV(path string, labels []string, configResults map[string]map[int]FileTotal) (int, error) {
	numberSet := make(map[int]bool)
	for _, label := range labels {
		for n := range configResults[label] {
			numberSet[n] = true
		}
	}
	if len(numberSet) == 0 {
		return 0, fmt.Errorf("no test results to export")
	}

	var numbers []int
	for n := range numberSet {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("unable to create %s: %s", path, err)
	}
	defer fd.Close()

	writer := csv.NewWriter(fd)
	defer writer.Flush()

	header := []string{"Test_Name"}
	for _, label := range labels {
		header = append(header, ablationColumnPrefix+label)
	}
	err = writer.Write(header)
	if err != nil {
		return 0, fmt.Errorf("unable to write header: %s", err)
	}

	numRows := 0
	for _, n := range numbers {
		flatName := ""
		for _, label := range labels {
			if t, ok := configResults[label][n]; ok {
				flatName = t.FlatName
				break
			}
		}
		if flatName == "" {
			continue
		}

		row := []string{format.TestIDFromFlatName(flatName)}
		for _, label := range labels {
			total := 0.0
			if t, ok := configResults[label][n]; ok {
				total = t.TotalMs
			}
			row = append(row, fmt.Sprintf("%.3f", total))
		}
		err = writer.Write(row)
		if err != nil {
			return numRows, fmt.Errorf("unable to write row for test %d: %s", n, err)
		}
		numRows++
	}

	return numRows, nil
}
