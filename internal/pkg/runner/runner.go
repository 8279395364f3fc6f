//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package runner executes benchmark tests under sanitizer configurations and
// materializes the experiment output directory: one log file per test under
// <output_dir>/<config_group>/<config_label>/ plus the results CSV files at
// the top level.
package runner

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gvallee/go_exec/pkg/advexec"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/configs"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/progress"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/registry"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/repos"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/results"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/timer"
)

// Config gathers everything needed to execute one experiment
type Config struct {
	// Basedir is the directory holding the whitelists, the test registry and the test repositories
	Basedir string

	// Repos is the repository selection, either a repository name or 'all'
	Repos string

	// ConfigGroup is the name of the configuration group to run
	ConfigGroup string

	// OutputDir is where logs and result files are written
	OutputDir string

	// LauncherPath is the path of the interpreter used to launch tests (python3)
	LauncherPath string

	// SanitizerPaths maps a sanitizer name to the resolved path of its
	// wrapper binary. A missing entry means the sanitizer is unavailable and
	// its tests run unwrapped.
	SanitizerPaths map[string]string

	// ExtraEnv is appended to the environment of every test subprocess, e.g.
	// the ASAN preload assignments when the native library swap is in effect
	ExtraEnv []string
}

// Report summarizes an experiment execution
type Report struct {
	// Group is the configuration group that ran
	Group configs.Group

	// NumPass and NumFail tally the per-test outcomes across all entries
	NumPass int
	NumFail int

	// Records are all the run records, in completion order
	Records []results.RunRecord
}

// Run executes every test of the selected repositories under every entry of
// the configuration group, in declared order. Test failures are recorded,
// not fatal: the experiment always runs to completion so partial results can
// be analyzed.
func (cfg *Config) Run() (*Report, error) {
	group, err := configs.Lookup(cfg.ConfigGroup)
	if err != nil {
		return nil, err
	}

	repoList, err := repos.Expand(cfg.Repos)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Load(filepath.Join(cfg.Basedir, registry.FileName))
	if err != nil {
		return nil, err
	}
	stale, err := reg.StaleRepos(cfg.Basedir)
	if err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		log.Printf("WARNING: test registry is stale for %s, numbers may not be comparable across runs\n", strings.Join(stale, ", "))
	}

	err = os.MkdirAll(cfg.OutputDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s: %s", cfg.OutputDir, err)
	}

	var allTests []testCase
	nextNumber := reg.MaxTestID() + 1
	for _, repo := range repoList {
		tests, err := repos.ListTests(cfg.Basedir, repo)
		if err != nil {
			return nil, err
		}
		if len(tests) == 0 {
			fmt.Printf("No tests found for %s, skipping\n", repo)
			continue
		}
		for _, testID := range tests {
			num, err := reg.GetTestID(testID)
			if err != nil {
				// Not in the registry: assign a transient number past the
				// registered range so log names stay unique
				num = nextNumber
				nextNumber++
			}
			allTests = append(allTests, testCase{repo: repo, testID: testID, number: num})
		}
	}

	report := new(Report)
	report.Group = group

	recordsPath := filepath.Join(cfg.OutputDir, format.RecordsCSVFileName)
	for _, entry := range group.Entries {
		entryDir := filepath.Join(cfg.OutputDir, group.Name, entry.Label)
		err = os.MkdirAll(entryDir, 0755)
		if err != nil {
			return report, fmt.Errorf("unable to create %s: %s", entryDir, err)
		}

		fmt.Printf("Running %d test(s) under %s/%s...\n", len(allTests), group.Name, entry.Label)
		bar := progress.NewBar(len(allTests), entry.Label)
		for _, tc := range allTests {
			record := cfg.runTest(entryDir, entry, tc)
			if record.Status == results.StatusPass {
				report.NumPass++
			} else {
				report.NumFail++
			}
			report.Records = append(report.Records, record)
			err = results.AppendCSV(recordsPath, record)
			if err != nil {
				return report, err
			}
			bar.Increment(1)
		}
		progress.EndBar(bar)
	}

	return report, nil
}

type testCase struct {
	repo   string
	testID string
	number int
}

// testCommand translates a test identifier into the command executing it.
// pytest-based repositories run through 'python -m pytest' with a node
// identifier; TritonBench benchmarks are plain scripts.
func (cfg *Config) testCommand(tc testCase) (string, []string, error) {
	settings, err := repos.GetSettings(tc.repo)
	if err != nil {
		return "", nil, err
	}

	tokens := strings.Split(tc.testID, "/")
	if tc.repo == repos.TritonBench {
		script := filepath.Join(cfg.Basedir, settings.TestDir, tokens[len(tokens)-1]+".py")
		return cfg.LauncherPath, []string{script}, nil
	}

	file := tokens[1]
	target := filepath.Join(cfg.Basedir, settings.TestDir, file+".py")
	if len(tokens) > 2 {
		target = target + "::" + tokens[2]
	}
	return cfg.LauncherPath, []string{"-m", "pytest", "-x", target}, nil
}

// runTest executes one test under one sanitizer configuration and writes its
// log file. The subprocess' exit status determines the record's status; a
// failure never aborts the experiment.
func (cfg *Config) runTest(entryDir string, entry configs.Entry, tc testCase) results.RunRecord {
	record := results.RunRecord{
		TestID:      tc.testID,
		Sanitizer:   entry.Sanitizer,
		ConfigLabel: entry.Label,
		Status:      results.StatusFail,
	}

	binPath, args, err := cfg.testCommand(tc)
	if err != nil {
		log.Printf("unable to build command for %s: %s\n", tc.testID, err)
		return record
	}

	if entry.Sanitizer != configs.SanitizerBaseline {
		sanitizerPath, ok := cfg.SanitizerPaths[entry.Sanitizer]
		if ok && sanitizerPath != "" {
			args = append([]string{binPath}, args...)
			binPath = sanitizerPath
		} else {
			log.Printf("%s is not available, running %s unwrapped\n", entry.Sanitizer, tc.testID)
		}
	}

	var cmd advexec.Advcmd
	cmd.BinPath = binPath
	cmd.CmdArgs = args
	cmd.ExecDir = cfg.Basedir
	cmd.Env = append(os.Environ(), cfg.ExtraEnv...)
	cmd.Env = append(cmd.Env, entry.EnvList()...)

	t := timer.Start()
	res := cmd.Run()
	record.ElapsedSeconds = t.ElapsedSeconds()
	if res.Err == nil {
		record.Status = results.StatusPass
	} else {
		log.Printf("%s failed under %s: %s\n", tc.testID, entry.Label, res.Err)
	}

	logPath := filepath.Join(entryDir, format.LogFileName(tc.number, tc.testID))
	err = writeTestLog(logPath, tc, res.Stdout, res.Stderr)
	if err != nil {
		log.Printf("unable to write %s: %s\n", logPath, err)
	}

	return record
}

// writeTestLog saves the output of a test subprocess. The header lines carry
// the test number and identifier so the analysis step can attribute kernel
// timings without consulting the registry.
func writeTestLog(path string, tc testCase, stdout string, stderr string) error {
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer fd.Close()

	_, err = fmt.Fprintf(fd, "Test Number: %d\nTest: %s\n=== STDOUT ===\n%s\n=== STDERR ===\n%s\n", tc.number, tc.testID, stdout, stderr)
	return err
}
