//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package repos

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/pkg/errors"
)

const (
	// LigerKernel is the identifier of the Liger-Kernel test repository
	LigerKernel = "liger_kernel"

	// FlagGems is the identifier of the FlagGems test repository
	FlagGems = "flag_gems"

	// TritonBench is the identifier of the TritonBench test repository
	TritonBench = "tritonbench"

	// All is the pseudo-repository that expands to every supported repository
	All = "all"
)

// RunOrder is the order in which repositories are executed during an experiment
var RunOrder = []string{LigerKernel, FlagGems, TritonBench}

// RegistryOrder is the order used to assign global test identifiers
var RegistryOrder = []string{LigerKernel, TritonBench, FlagGems}

// Settings gathers the static per-repository configuration: where the tests
// live and how test files are discovered when no whitelist is available.
type Settings struct {
	// Name is the repository identifier
	Name string

	// TestDir is the directory, relative to the harness base directory, where the repository's tests are
	TestDir string

	// TestPattern is the glob used to discover test files when no whitelist is present
	TestPattern string

	// WhitelistFile is the well-known whitelist file name for the repository
	WhitelistFile string
}

var settingsTable = map[string]Settings{
	LigerKernel: {
		Name:          LigerKernel,
		TestDir:       filepath.Join("repos", "Liger-Kernel", "test", "transformers"),
		TestPattern:   "test_*.py",
		WhitelistFile: LigerKernel + "_whitelist.txt",
	},
	FlagGems: {
		Name:          FlagGems,
		TestDir:       filepath.Join("repos", "FlagGems", "tests"),
		TestPattern:   "test_*.py",
		WhitelistFile: FlagGems + "_whitelist.txt",
	},
	TritonBench: {
		Name:          TritonBench,
		TestDir:       filepath.Join("repos", "TritonBench", "data", "TritonBench_G_v1"),
		TestPattern:   "*.py",
		WhitelistFile: TritonBench + "_whitelist.txt",
	},
}

// GetSettings returns the static settings of a repository
func GetSettings(name string) (Settings, error) {
	s, ok := settingsTable[name]
	if !ok {
		return s, errors.New(errors.ErrUnknownRepository, fmt.Errorf("%s is not a supported repository", name))
	}
	return s, nil
}

// Expand translates a repository argument into the ordered list of actual
// repositories to run. 'all' expands to the full set.
func Expand(name string) ([]string, error) {
	if name == All {
		list := make([]string, len(RunOrder))
		copy(list, RunOrder)
		return list, nil
	}
	if _, ok := settingsTable[name]; !ok {
		return nil, errors.New(errors.ErrUnknownRepository, fmt.Errorf("%s is not a supported repository", name))
	}
	return []string{name}, nil
}

// WhitelistPath returns the path of the whitelist file for a repository. The
// file is optional; callers are expected to check for its existence.
func WhitelistPath(basedir string, repo string) (string, error) {
	s, err := GetSettings(repo)
	if err != nil {
		return "", err
	}
	return filepath.Join(basedir, s.WhitelistFile), nil
}

// LoadWhitelist reads a whitelist file and returns the test identifiers it
// declares, in file order. Blank lines and '#' comment lines are ignored and
// duplicates are dropped, keeping the first occurrence.
func LoadWhitelist(path string) ([]string, error) {
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %s", path, err)
	}

	var list []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		list = append(list, line)
	}

	return list, nil
}

// DetectWhitelists checks which repositories have a whitelist file in the base
// directory and returns the repository-to-size mapping for reporting purposes.
func DetectWhitelists(basedir string) (map[string]int, error) {
	detected := make(map[string]int)
	for _, repo := range RunOrder {
		path, err := WhitelistPath(basedir, repo)
		if err != nil {
			return nil, err
		}
		if !util.FileExists(path) {
			continue
		}
		list, err := LoadWhitelist(path)
		if err != nil {
			return nil, err
		}
		detected[repo] = len(list)
	}
	return detected, nil
}

// ListTests returns the ordered list of test identifiers to run for a
// repository. When a whitelist is present it determines both the set and the
// order; otherwise all discoverable test files in the repository run, sorted
// by name. Test identifiers are of the form <repo>/<test_file>[/<test_func>].
func ListTests(basedir string, repo string) ([]string, error) {
	s, err := GetSettings(repo)
	if err != nil {
		return nil, err
	}

	whitelistFile := filepath.Join(basedir, s.WhitelistFile)
	if util.FileExists(whitelistFile) {
		list, err := LoadWhitelist(whitelistFile)
		if err != nil {
			return nil, err
		}
		var tests []string
		for _, entry := range list {
			tests = append(tests, canonicalTestID(repo, entry))
		}
		return tests, nil
	}

	testDir := filepath.Join(basedir, s.TestDir)
	if !util.PathExists(testDir) {
		// Nothing to run for this repository; the caller reports it
		return nil, nil
	}

	matches, err := filepath.Glob(filepath.Join(testDir, s.TestPattern))
	if err != nil {
		return nil, fmt.Errorf("unable to scan %s: %s", testDir, err)
	}
	sort.Strings(matches)

	var tests []string
	for _, m := range matches {
		base := filepath.Base(m)
		if strings.HasPrefix(base, "__") {
			continue
		}
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		tests = append(tests, repo+"/"+stem)
	}
	return tests, nil
}

// canonicalTestID normalizes a whitelist entry into a test identifier. Entries
// may be plain file names, pytest node identifiers (file::function) or already
// canonical <repo>/... identifiers.
func canonicalTestID(repo string, entry string) string {
	if strings.HasPrefix(entry, repo+"/") {
		return entry
	}
	if strings.Contains(entry, "::") {
		tokens := strings.SplitN(entry, "::", 2)
		file := strings.TrimSuffix(filepath.Base(tokens[0]), filepath.Ext(tokens[0]))
		return repo + "/" + file + "/" + tokens[1]
	}
	stem := strings.TrimSuffix(filepath.Base(entry), filepath.Ext(entry))
	return repo + "/" + stem
}
