//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package configs implements the static registry of experiment configuration
// groups. A configuration group maps a name to the ordered list of sanitizer
// configurations to run, each with its environment-variable overrides and,
// for the triton-sanitizer, an optional cache ablation setting.
package configs

import (
	"fmt"
	"sort"

	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/repos"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/pkg/errors"
)

const (
	// SanitizerBaseline runs the tests without any sanitizer
	SanitizerBaseline = "baseline"

	// SanitizerCompute runs the tests under the vendor compute-sanitizer
	SanitizerCompute = "compute-sanitizer"

	// SanitizerTriton runs the tests under the kernel-tracing triton-sanitizer
	SanitizerTriton = "triton-sanitizer"
)

// Environment variables assembled by the registry for the test subprocesses
const (
	EnvAlwaysCompile   = "TRITON_ALWAYS_COMPILE"
	EnvNoMemoryCaching = "PYTORCH_NO_CUDA_MEMORY_CACHING"
	EnvEnableTiming    = "ENABLE_TIMING"
	EnvEnableProfiler  = "ENABLE_TRITON_PROFILER"
	EnvSymbolCache     = "TRITON_SANITIZER_SYMBOL_CACHE"
	EnvLoopCache       = "TRITON_SANITIZER_LOOP_CACHE"
	EnvGridCache       = "TRITON_SANITIZER_GRID_CACHE"
	EnvKernelCache     = "TRITON_SANITIZER_KERNEL_CACHE"
)

// CacheAblation is the 4-bit cache configuration of the triton-sanitizer:
// each field enables (1) or disables (0) one cache layer.
type CacheAblation struct {
	Symbol int
	Loop   int
	Grid   int
	Kernel int
}

// Entry is one sanitizer configuration within a group
type Entry struct {
	// Sanitizer is the sanitizer applied to the tests of the entry
	Sanitizer string

	// Label identifies the entry within the group; it is also the name of the
	// per-entry log directory in the experiment output
	Label string

	// Env is the set of environment-variable overrides set for the test subprocesses
	Env map[string]string

	// Cache is the cache ablation setting; only set for triton-sanitizer entries
	Cache *CacheAblation
}

// Group is a named, immutable set of sanitizer configurations
type Group struct {
	// Name is the identifier used to select the group on the command line
	Name string

	// Description is a short human-readable summary printed in run banners
	Description string

	// Entries is the ordered list of sanitizer configurations of the group
	Entries []Entry
}

// AblationLabels are the cache ablation configuration names, in run order
var AblationLabels = []string{"no_cache", "symbol_only", "symbol_loop", "symbol_loop_grid", "all_cache"}

var ablationTuples = []CacheAblation{
	{0, 0, 0, 0},
	{1, 0, 0, 0},
	{1, 1, 0, 0},
	{1, 1, 1, 0},
	{1, 1, 1, 1},
}

func kernelTimeGroup(name string, description string) Group {
	return Group{
		Name:        name,
		Description: description,
		Entries: []Entry{
			{
				Sanitizer: SanitizerBaseline,
				Label:     SanitizerBaseline,
				Env: map[string]string{
					EnvAlwaysCompile:   "0",
					EnvNoMemoryCaching: "0",
					EnvEnableProfiler:  "1",
				},
			},
			{
				Sanitizer: SanitizerCompute,
				Label:     SanitizerCompute,
				Env: map[string]string{
					EnvAlwaysCompile:   "0",
					EnvNoMemoryCaching: "0",
					EnvEnableProfiler:  "1",
				},
			},
			{
				Sanitizer: SanitizerTriton,
				Label:     SanitizerTriton,
				Env: map[string]string{
					EnvAlwaysCompile:   "0",
					EnvNoMemoryCaching: "0",
					EnvEnableTiming:    "1",
					EnvEnableProfiler:  "0",
				},
			},
		},
	}
}

func computeSanitizerGroup() Group {
	g := Group{
		Name:        "compute_sanitizer",
		Description: "compute-sanitizer over the cross product of compilation and memory caching settings",
	}
	for _, compile := range []string{"0", "1"} {
		for _, caching := range []string{"0", "1"} {
			g.Entries = append(g.Entries, Entry{
				Sanitizer: SanitizerCompute,
				Label:     fmt.Sprintf("compile%s_caching%s", compile, caching),
				Env: map[string]string{
					EnvAlwaysCompile:   compile,
					EnvNoMemoryCaching: caching,
				},
			})
		}
	}
	return g
}

func ablationStudiesGroup() Group {
	g := Group{
		Name:        "ablation_studies",
		Description: "triton-sanitizer kernel timing across the 5 cache ablation configurations",
	}
	for i, label := range AblationLabels {
		cache := ablationTuples[i]
		entry := Entry{
			Sanitizer: SanitizerTriton,
			Label:     label,
			Cache:     &cache,
			Env: map[string]string{
				EnvAlwaysCompile:   "0",
				EnvNoMemoryCaching: "0",
				EnvEnableTiming:    "1",
				EnvEnableProfiler:  "0",
				EnvSymbolCache:     fmt.Sprintf("%d", cache.Symbol),
				EnvLoopCache:       fmt.Sprintf("%d", cache.Loop),
				EnvGridCache:       fmt.Sprintf("%d", cache.Grid),
				EnvKernelCache:     fmt.Sprintf("%d", cache.Kernel),
			},
		}
		g.Entries = append(g.Entries, entry)
	}
	return g
}

var groupTable = map[string]Group{}

func init() {
	groups := []Group{
		kernelTimeGroup("kernel_time_"+repos.LigerKernel, "kernel timing for Liger-Kernel under all sanitizers"),
		kernelTimeGroup("kernel_time_"+repos.FlagGems, "kernel timing for FlagGems under all sanitizers"),
		kernelTimeGroup("kernel_time_"+repos.TritonBench, "kernel timing for TritonBench under all sanitizers"),
		kernelTimeGroup("kernel_time_all", "kernel timing for all repositories under all sanitizers"),
		computeSanitizerGroup(),
		ablationStudiesGroup(),
	}
	for _, g := range groups {
		groupTable[g.Name] = g
	}
}

// Lookup returns the configuration group registered under a name
func Lookup(name string) (Group, error) {
	g, ok := groupTable[name]
	if !ok {
		return g, errors.New(errors.ErrUnknownConfigGroup, fmt.Errorf("%s is not a known configuration group", name))
	}
	return g, nil
}

// GroupNames returns the sorted list of all registered group names
func GroupNames() []string {
	var names []string
	for name := range groupTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvList converts the entry's overrides into KEY=value assignments suitable
// for a subprocess environment. The list is sorted so the assembled
// environment is stable from one run to the next.
func (e *Entry) EnvList() []string {
	var keys []string
	for k := range e.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var list []string
	for _, k := range keys {
		list = append(list, k+"="+e.Env[k])
	}
	return list
}
