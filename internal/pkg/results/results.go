//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package results implements the result contract of the harness: the
// RunRecord schema, the aggregated CSV files and the whitelist-based
// reordering of rows.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
)

const (
	// StatusPass marks a test that completed with a zero exit code
	StatusPass = "PASS"

	// StatusFail marks a test whose subprocess returned a non-zero exit code
	StatusFail = "FAIL"
)

// CSVHeader is the header row of all results CSV files
var CSVHeader = []string{"test_id", "sanitizer", "config_label", "status", "elapsed_seconds"}

// RunRecord describes the outcome of a single test under one sanitizer
// configuration. Every record belongs to exactly one (repository, sanitizer,
// config group) combination.
type RunRecord struct {
	TestID         string
	Sanitizer      string
	ConfigLabel    string
	Status         string
	ElapsedSeconds float64
}

func (r *RunRecord) toRow() []string {
	return []string{r.TestID, r.Sanitizer, r.ConfigLabel, r.Status, strconv.FormatFloat(r.ElapsedSeconds, 'f', 3, 64)}
}

func recordFromRow(row []string) (RunRecord, error) {
	var r RunRecord
	if len(row) != len(CSVHeader) {
		return r, fmt.Errorf("invalid row: %d columns instead of %d", len(row), len(CSVHeader))
	}
	elapsed, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return r, fmt.Errorf("invalid elapsed time %s: %s", row[4], err)
	}
	r.TestID = row[0]
	r.Sanitizer = row[1]
	r.ConfigLabel = row[2]
	r.Status = row[3]
	r.ElapsedSeconds = elapsed
	return r, nil
}

// WriteCSV saves records to a CSV file, preserving the order of the slice
func WriteCSV(path string, records []RunRecord) error {
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("unable to create %s: %s", path, err)
	}
	defer fd.Close()

	writer := csv.NewWriter(fd)
	defer writer.Flush()

	err = writer.Write(CSVHeader)
	if err != nil {
		return fmt.Errorf("unable to write header: %s", err)
	}
	for i := range records {
		err = writer.Write(records[i].toRow())
		if err != nil {
			return fmt.Errorf("unable to write record for %s: %s", records[i].TestID, err)
		}
	}
	return nil
}

// AppendCSV adds one record to a CSV file, creating the file with a header
// row when it does not exist yet. The runner uses it to persist records in
// completion order so partial results survive an interrupted run.
func AppendCSV(path string, record RunRecord) error {
	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("unable to open %s: %s", path, err)
	}
	defer fd.Close()

	writer := csv.NewWriter(fd)
	defer writer.Flush()

	if newFile {
		err = writer.Write(CSVHeader)
		if err != nil {
			return fmt.Errorf("unable to write header: %s", err)
		}
	}
	err = writer.Write(record.toRow())
	if err != nil {
		return fmt.Errorf("unable to write record for %s: %s", record.TestID, err)
	}
	return nil
}

// ReadCSV loads all the records of a results CSV file
func ReadCSV(path string) ([]RunRecord, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %s", path, err)
	}
	defer fd.Close()

	reader := csv.NewReader(fd)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s: %s", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var records []RunRecord
	for _, row := range rows[1:] {
		r, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// SortByTestID orders records alphabetically by test identifier so all the
// rows of a given test end up grouped together. The sort is stable so the
// per-test completion order of sanitizer configurations is preserved.
func SortByTestID(records []RunRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TestID < records[j].TestID
	})
}

// Reorder permutes records so the tests declared in the whitelist come first,
// in whitelist order. Rows for tests absent from the whitelist are appended
// in their original order.
func Reorder(records []RunRecord, whitelist []string) []RunRecord {
	rank := make(map[string]int)
	for i, testID := range whitelist {
		if _, ok := rank[testID]; !ok {
			rank[testID] = i
		}
	}

	var ordered []RunRecord
	for _, testID := range whitelist {
		for _, r := range records {
			if r.TestID == testID {
				ordered = append(ordered, r)
			}
		}
	}
	for _, r := range records {
		if _, ok := rank[r.TestID]; !ok {
			ordered = append(ordered, r)
		}
	}
	return ordered
}
