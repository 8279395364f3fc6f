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
	"time"

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/configs"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/environment"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/repos"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/runner"
)

func printBanner(title string) {
	fmt.Println("========================================")
	fmt.Println(title)
	fmt.Println("========================================")
	fmt.Println("")
}

func reportWhitelists(basedir string) {
	fmt.Println("Checking for whitelists...")
	detected, err := repos.DetectWhitelists(basedir)
	if err != nil {
		fmt.Printf("  unable to check whitelists: %s\n", err)
		return
	}
	if len(detected) == 0 {
		fmt.Println("  No whitelists found, will run all tests")
	} else {
		for _, repo := range repos.RunOrder {
			if n, ok := detected[repo]; ok {
				fmt.Printf("  * %s whitelist detected (%d tests)\n", repo, n)
			}
		}
	}
	fmt.Println("")
}

// checkSanitizers resolves the sanitizer wrappers used by the group. Missing
// sanitizers are not immediately fatal: the user is asked whether to continue
// without them, matching the behavior of the original driver scripts.
func checkSanitizers(group configs.Group) (map[string]string, bool) {
	paths := make(map[string]string)
	for _, entry := range group.Entries {
		if entry.Sanitizer == configs.SanitizerBaseline {
			continue
		}
		if _, ok := paths[entry.Sanitizer]; ok {
			continue
		}
		path, err := environment.CheckRequiredTool(entry.Sanitizer)
		if err != nil {
			fmt.Printf("Warning: %s not found in PATH\n", entry.Sanitizer)
			fmt.Printf("Make sure %s is installed and available in PATH\n", entry.Sanitizer)
			if !environment.PromptContinue(os.Stdin, os.Stdout) {
				fmt.Println("Aborted.")
				return nil, false
			}
			continue
		}
		paths[entry.Sanitizer] = path
	}
	return paths, true
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose mode")
	reposArg := flag.String("repos", "", "Repositories to test (liger_kernel, flag_gems, tritonbench or all)")
	configGroup := flag.String("config-groups", "", "Name of the configuration group to run")
	outputDir := flag.String("output-dir", "", "Directory where logs and result files are saved")
	basedir := flag.String("basedir", ".", "Base directory holding the whitelists and test repositories")
	clean := flag.Bool("clean", false, "Delete previous output directories instead of running tests")
	cleanPattern := flag.String("clean-pattern", runner.DefaultCleanPattern, "Glob selecting the directories deleted by -clean")
	asanRoot := flag.String("asan-root", "", "Root prefix to search for the ASAN and HIP runtime libraries; enables the native library swap")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s runs benchmark tests under sanitizer configurations and gathers kernel timing results", cmdName)
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

	if *clean {
		removed, err := runner.Clean(*basedir, *cleanPattern)
		if err != nil {
			fmt.Printf("ERROR: unable to clean output directories: %s\n", err)
			os.Exit(1)
		}
		for _, dir := range removed {
			fmt.Printf("Removed %s\n", dir)
		}
		fmt.Printf("%d directory(ies) removed\n", len(removed))
		os.Exit(0)
	}

	if *reposArg == "" || *configGroup == "" || *outputDir == "" {
		fmt.Println("ERROR: -repos, -config-groups and -output-dir are required, run '-h' for more details")
		os.Exit(1)
	}

	// Validate the inputs before any subprocess runs
	group, err := configs.Lookup(*configGroup)
	if err != nil {
		fmt.Printf("ERROR: %s (known groups: %v)\n", err, configs.GroupNames())
		os.Exit(1)
	}
	_, err = repos.Expand(*reposArg)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}

	launcherPath, err := environment.CheckRequiredTool("python3")
	if err != nil {
		fmt.Printf("ERROR: python3 is not installed or not in PATH: %s\n", err)
		os.Exit(1)
	}

	sanitizerPaths, proceed := checkSanitizers(group)
	if !proceed {
		os.Exit(1)
	}

	printBanner("Running " + group.Description)
	fmt.Printf("Timestamp: %s\n\n", time.Now().Format("20060102_150405"))
	reportWhitelists(*basedir)
	fmt.Printf("Configuration group: %s (%d configuration(s))\n", group.Name, len(group.Entries))
	fmt.Printf("Output directory: %s\n\n", *outputDir)

	cfg := new(runner.Config)
	cfg.Basedir = *basedir
	cfg.Repos = *reposArg
	cfg.ConfigGroup = *configGroup
	cfg.OutputDir = *outputDir
	cfg.LauncherPath = launcherPath
	cfg.SanitizerPaths = sanitizerPaths

	// runExperiment has its own stack frame so the library swap guard's
	// deferred restore runs before the final os.Exit
	os.Exit(runExperiment(cfg, *asanRoot, *basedir, *outputDir))
}

func runExperiment(cfg *runner.Config, asanRoot string, basedir string, outputDir string) int {
	// The ASAN setup swaps the native HIP runtime for the instrumented one;
	// the guard puts it back on every exit path, including interrupts.
	if asanRoot != "" {
		asanLib, hipLib, err := environment.ResolveASANLibraries(asanRoot)
		if err != nil {
			fmt.Printf("ERROR: unable to locate the ASAN runtime libraries: %s\n", err)
			return 1
		}
		guard, err := environment.SwapNativeLibrary(hipLib)
		if err != nil {
			fmt.Printf("ERROR: unable to swap the native library: %s\n", err)
			return 1
		}
		defer func() {
			restoreErr := guard.Restore()
			if restoreErr != nil {
				log.Printf("WARNING: %s\n", restoreErr)
			}
		}()
		cfg.ExtraEnv = []string{
			"LD_PRELOAD=" + asanLib,
			"ASAN_OPTIONS=detect_leaks=0",
		}
	}

	var phases []runner.PhaseResult

	report, err := cfg.Run()
	phases = append(phases, runner.PhaseResult{Name: "test execution", Err: err})
	if err != nil {
		fmt.Printf("Test execution failed: %s\n", err)
	}

	// Partial results are still worth analyzing, so the analysis phase runs
	// even when the test phase reported a failure
	err = runner.Analyze(outputDir, format.ResultsCSVFileName)
	phases = append(phases, runner.PhaseResult{Name: "analysis", Err: err})
	if err != nil {
		fmt.Printf("Analysis failed: %s\n", err)
	} else {
		whitelist, werr := runner.CombinedWhitelist(basedir)
		if werr == nil {
			werr = runner.ReorderCSV(filepath.Join(outputDir, format.ResultsCSVFileName),
				filepath.Join(outputDir, format.OrderedCSVFileName), whitelist)
		}
		phases = append(phases, runner.PhaseResult{Name: "reordering", Err: werr})
		if werr != nil {
			fmt.Printf("Reordering failed: %s\n", werr)
		}
	}

	fmt.Println("")
	printBanner("Test Runs Complete")
	if report != nil {
		fmt.Printf("Pass: %d\nFail: %d\n", report.NumPass, report.NumFail)
	}
	fmt.Printf("Results saved in: %s/\n", outputDir)
	fmt.Printf("CSV results: %s\n", filepath.Join(outputDir, format.ResultsCSVFileName))

	exitCode := runner.CombineExitCode(phases)
	for _, p := range phases {
		if p.Failed() {
			fmt.Printf("Phase '%s' failed\n", p.Name)
		}
	}
	if exitCode != 0 {
		fmt.Printf("Partial results may be in: %s/\n", outputDir)
	}
	return exitCode
}
