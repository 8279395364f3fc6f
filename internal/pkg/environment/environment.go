//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package environment prepares the system for a sanitizer run: it validates
// the availability of external tools, locates the instrumented runtime
// libraries and manages the swap of the native runtime library.
package environment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gvallee/kernel_sanitizer_profiling/tools/pkg/errors"
)

const (
	// ASANRuntimePrefix is the file name prefix of the clang address sanitizer runtime
	ASANRuntimePrefix = "libclang_rt.asan"

	// HIPRuntimePrefix is the file name prefix of the HIP runtime library
	HIPRuntimePrefix = "libamdhip64.so"
)

// ToolAvailable checks whether an external binary can be resolved on the
// search path
func ToolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// CheckRequiredTool resolves a mandatory external binary and returns its
// path. A missing required tool aborts the run before any subprocess starts.
func CheckRequiredTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.New(errors.ErrMissingTool, fmt.Errorf("unable to find %s: %s", name, err))
	}
	return path, nil
}

// PromptContinue asks the user whether to proceed without an optional tool.
// Anything other than an explicit yes, including EOF, aborts.
func PromptContinue(in io.Reader, out io.Writer) bool {
	fmt.Fprintf(out, "Continue? (y/n) ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintf(out, "\n")
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// ResolveASANLibraries searches the filesystem under a root prefix for the
// address sanitizer runtime and the HIP runtime. Both must be found for the
// library substitution to make sense.
func ResolveASANLibraries(rootPrefix string) (string, string, error) {
	asanPath := ""
	hipPath := ""

	err := filepath.Walk(rootPrefix, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable subtrees are not fatal for the search
			return nil
		}
		if info.IsDir() {
			return nil
		}
		name := filepath.Base(path)
		if asanPath == "" && strings.HasPrefix(name, ASANRuntimePrefix) && strings.HasSuffix(name, ".so") {
			asanPath = path
		}
		if hipPath == "" && strings.HasPrefix(name, HIPRuntimePrefix) {
			hipPath = path
		}
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("unable to search %s: %s", rootPrefix, err)
	}

	if asanPath == "" {
		return "", "", errors.New(errors.ErrNotFound, fmt.Errorf("no %s* library under %s", ASANRuntimePrefix, rootPrefix))
	}
	if hipPath == "" {
		return "", "", errors.New(errors.ErrNotFound, fmt.Errorf("no %s* library under %s", HIPRuntimePrefix, rootPrefix))
	}

	return asanPath, hipPath, nil
}
