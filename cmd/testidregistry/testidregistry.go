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
	"sort"
	"strings"

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/notation"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/registry"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/repos"
)

func listRegistry(reg *registry.Registry) {
	fmt.Printf("%d test(s) registered\n", len(reg.Tests))
	for _, repo := range repos.RegistryOrder {
		ids := reg.IDsForRepo(repo)
		if len(ids) == 0 {
			continue
		}
		fmt.Printf("%s: %d test(s), numbers %s\n", repo, len(ids), notation.CompressIntArray(ids))
	}
}

func showRegistry(reg *registry.Registry) {
	var names []string
	for testID := range reg.Tests {
		names = append(names, testID)
	}
	sort.Slice(names, func(i, j int) bool {
		return reg.Tests[names[i]] < reg.Tests[names[j]]
	})
	for _, testID := range names {
		fmt.Printf("%4d  %s\n", reg.Tests[testID], testID)
	}
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose mode")
	basedir := flag.String("basedir", ".", "Base directory holding the whitelists and test repositories")
	rebuild := flag.Bool("rebuild", false, "Rediscover all tests and rebuild the registry")
	list := flag.Bool("list", false, "Display a per-repository summary of the registry")
	show := flag.Bool("show", false, "Display every registered test with its number")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s manages the global test identifier registry", cmdName)
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

	if !*rebuild && !*list && !*show {
		fmt.Println("No registry option selected, run '-h' for more details")
		os.Exit(1)
	}

	registryPath := filepath.Join(*basedir, registry.FileName)

	if *rebuild {
		reg, err := registry.Build(*basedir)
		if err != nil {
			fmt.Printf("ERROR: unable to build the registry: %s\n", err)
			os.Exit(1)
		}
		err = reg.Save(registryPath)
		if err != nil {
			fmt.Printf("ERROR: unable to save the registry: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry saved to %s\n", registryPath)
		listRegistry(reg)
		os.Exit(0)
	}

	reg, err := registry.Load(registryPath)
	if err != nil {
		fmt.Printf("ERROR: unable to load the registry: %s\n", err)
		os.Exit(1)
	}

	stale, err := reg.StaleRepos(*basedir)
	if err != nil {
		fmt.Printf("ERROR: unable to check the registry's freshness: %s\n", err)
		os.Exit(1)
	}
	if len(stale) > 0 {
		fmt.Printf("WARNING: the whitelists of %s changed since the registry was built, run -rebuild\n", strings.Join(stale, ", "))
	}

	if *list {
		listRegistry(reg)
	}
	if *show {
		showRegistry(reg)
	}
}
