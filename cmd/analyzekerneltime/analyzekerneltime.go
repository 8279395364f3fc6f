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

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/runner"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose mode")
	dir := flag.String("dir", "", "Experiment output directory to analyze")
	csvName := flag.String("csv", format.ResultsCSVFileName, "Name of the aggregated CSV file to write in the output directory")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s aggregates the kernel timing results of an experiment output directory into a CSV file", cmdName)
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

	if !util.PathExists(*dir) {
		fmt.Printf("ERROR: %s does not exist\n", *dir)
		os.Exit(1)
	}

	err := runner.Analyze(*dir, *csvName)
	if err != nil {
		fmt.Printf("ERROR: unable to analyze %s: %s\n", *dir, err)
		os.Exit(1)
	}

	fmt.Printf("CSV exported to: %s\n", filepath.Join(*dir, *csvName))
}
