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
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/repos"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/runner"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose mode")
	input := flag.String("input", "", "Results CSV file to reorder")
	output := flag.String("output", "", "Where to write the reordered CSV file")
	whitelistFile := flag.String("whitelist", "", "Whitelist file defining the row order; defaults to the whitelists found in -basedir")
	basedir := flag.String("basedir", ".", "Base directory holding the whitelists")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s reorders the rows of a results CSV file to follow the whitelist order", cmdName)
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

	if !util.FileExists(*input) {
		fmt.Printf("ERROR: %s does not exist\n", *input)
		os.Exit(1)
	}
	if *output == "" {
		fmt.Println("ERROR: -output is required, run '-h' for more details")
		os.Exit(1)
	}

	var whitelist []string
	var err error
	if *whitelistFile != "" {
		whitelist, err = repos.LoadWhitelist(*whitelistFile)
	} else {
		whitelist, err = runner.CombinedWhitelist(*basedir)
	}
	if err != nil {
		fmt.Printf("ERROR: unable to load the whitelist: %s\n", err)
		os.Exit(1)
	}

	err = runner.ReorderCSV(*input, *output, whitelist)
	if err != nil {
		fmt.Printf("ERROR: unable to reorder %s: %s\n", *input, err)
		os.Exit(1)
	}

	fmt.Printf("Reordered CSV written to: %s\n", *output)
}
