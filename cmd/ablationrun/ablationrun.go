//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/configs"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/repos"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/runner"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/timings"
)

// exportAblationResults aggregates the per-configuration timing totals of an
// ablation experiment and exports them to the ablation CSV, then prints the
// speedup of every cache configuration against the cache-free baseline.
func exportAblationResults(outputDir string) error {
	configResults := make(map[string]map[int]timings.FileTotal)
	for _, label := range configs.AblationLabels {
		dir := filepath.Join(outputDir, "ablation_studies", label)
		if !util.PathExists(dir) {
			log.Printf("no results for %s, skipping\n", label)
			continue
		}
		totals, err := timings.AnalyzeConfigDir(dir)
		if err != nil {
			return fmt.Errorf("unable to analyze %s: %s", dir, err)
		}
		configResults[label] = totals
	}

	csvPath := filepath.Join(outputDir, format.AblationCSVFileName)
	numRows, err := timings.WriteAblationCSV(csvPath, configs.AblationLabels, configResults)
	if err != nil {
		return err
	}
	fmt.Printf("\nCSV exported to: %s (%d test(s))\n", csvPath, numRows)

	baseline, ok := configResults[configs.AblationLabels[0]]
	if !ok {
		return nil
	}
	fmt.Println("\nSpeedup vs no_cache:")
	for _, label := range configs.AblationLabels[1:] {
		totals, ok := configResults[label]
		if !ok {
			continue
		}
		speedups := timings.Speedups(baseline, totals)
		if len(speedups) == 0 {
			fmt.Printf("  %-20s no comparable results\n", label)
			continue
		}
		avg, min, max := timings.SpeedupStats(speedups)
		fmt.Printf("  %-20s avg %.2fx, min %.2fx, max %.2fx\n", label, avg, min, max)
	}
	return nil
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose mode")
	reposArg := flag.String("repos", repos.All, "Repositories to test (liger_kernel, flag_gems, tritonbench or all)")
	basedir := flag.String("basedir", ".", "Base directory holding the whitelists and test repositories")
	analyzeOnly := flag.String("analyze", "", "Skip the test runs and export the ablation CSV of an existing output directory")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s runs the cache ablation study: every test under the triton-sanitizer across all cache configurations", cmdName)
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	logFile := util.OpenLogFile("kernel_sanitizer", cmdName)
	defer logFile.Close()
	if *verbose {
		multiWriters := io.MultiWriter(os.Stdout, logFile)
		log.SetOutput(multiWriters)
	} else {
		log.SetOutput(ioutil.Discard)
	}

	if *analyzeOnly != "" {
		err := exportAblationResults(*analyzeOnly)
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	_, err := repos.Expand(*reposArg)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}

	_, filename, _, _ := runtime.Caller(0)
	toolBin := filepath.Join(filepath.Dir(filename), "..", "runner", "runner")
	if !util.FileExists(toolBin) {
		fmt.Printf("ERROR: %s does not exist, build the runner tool first\n", toolBin)
		os.Exit(1)
	}

	timestamp := time.Now().Format("20060102_150405")
	outputDir := filepath.Join(*basedir, format.OutputDirPrefix+"_ablation_"+timestamp)

	args := []string{
		"-repos", *reposArg,
		"-config-groups", "ablation_studies",
		"-output-dir", outputDir,
		"-basedir", *basedir,
	}
	if *verbose {
		args = append(args, "-v")
	}

	exitCode := runner.RunTool(toolBin, args)
	if exitCode != 0 {
		fmt.Printf("Test runs completed with failures, partial results may be in: %s/\n", outputDir)
	}

	err = exportAblationResults(outputDir)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
