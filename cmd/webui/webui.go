//
// Copyright (c) 2020-2021, NVIDIA CORPORATION. All rights reserved.
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
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/webui"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose mode")
	basedir := flag.String("basedir", "", "Experiment output directory to browse")
	name := flag.String("name", "example", "Name of the dataset to display")
	port := flag.Int("port", webui.DefaultPort, "Port the HTTP server listens on")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s starts a Web-based user interface to explore an experiment output directory", cmdName)
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

	if !util.PathExists(*basedir) {
		fmt.Printf("ERROR: %s does not exist\n", *basedir)
		os.Exit(1)
	}

	cfg := webui.Init()
	cfg.DatasetDir = *basedir
	cfg.Name = *name
	cfg.Port = *port

	fmt.Printf("Starting the webUI on port %d...\n", cfg.Port)
	err := cfg.Start()
	if err != nil {
		fmt.Printf("WebUI faced an internal error: %s\n", err)
		os.Exit(1)
	}
	cfg.Wait()
}
