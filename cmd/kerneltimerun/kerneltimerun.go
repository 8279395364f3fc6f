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
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/environment"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/repos"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/runner"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/timer"
)

// configGroupFor maps the repository selection to its kernel timing
// configuration group
func configGroupFor(reposArg string) string {
	if reposArg == repos.All {
		return "kernel_time_all"
	}
	return "kernel_time_" + reposArg
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose mode")
	reposArg := flag.String("repos", repos.All, "Repositories to test (liger_kernel, flag_gems, tritonbench or all)")
	basedir := flag.String("basedir", ".", "Base directory holding the whitelists and test repositories")
	asanRoot := flag.String("asan-root", "", "Root prefix to search for the ASAN and HIP runtime libraries; enables the native library swap")
	yes := flag.Bool("yes", false, "Do not prompt for confirmation before running")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s runs the complete kernel timing experiment end-to-end: tests under every sanitizer, analysis and CSV export", cmdName)
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

	fmt.Println("========================================")
	fmt.Println("End-to-End Kernel Timing Experiment")
	fmt.Println("========================================")
	fmt.Println("")
	fmt.Printf("Repositories: %s\n", *reposArg)
	fmt.Printf("Configuration group: %s\n", configGroupFor(*reposArg))
	fmt.Println("This runs every selected test under every sanitizer and may take a long time.")
	if !*yes && !environment.PromptContinue(os.Stdin, os.Stdout) {
		fmt.Println("Aborted.")
		os.Exit(1)
	}

	timestamp := time.Now().Format("20060102_150405")
	outputDir := filepath.Join(*basedir, format.OutputDirPrefix+"_"+timestamp)
	fmt.Printf("Output directory: %s\n\n", outputDir)

	args := []string{
		"-repos", *reposArg,
		"-config-groups", configGroupFor(*reposArg),
		"-output-dir", outputDir,
		"-basedir", *basedir,
	}
	if *asanRoot != "" {
		args = append(args, "-asan-root", *asanRoot)
	}
	if *verbose {
		args = append(args, "-v")
	}

	t := timer.Start()
	exitCode := runner.RunTool(toolBin, args)
	fmt.Printf("\nTotal execution time: %s\n", t.Stop())

	if exitCode != 0 {
		fmt.Printf("Experiment completed with failures, partial results may be in: %s/\n", outputDir)
	} else {
		fmt.Printf("Experiment complete, results saved in: %s/\n", outputDir)
	}
	os.Exit(exitCode)
}
