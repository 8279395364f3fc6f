//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package registry implements the global test identifier registry. Every test
// gets a fixed, 1-based identifier that stays constant regardless of which
// subset of tests a given experiment runs, so results from different runs can
// be joined on test number.
package registry

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/hash"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/repos"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/pkg/errors"
)

// FileName is the well-known name of the registry file in the base directory
const FileName = "test_id_registry.json"

// Registry maps test identifiers to their fixed global numbers. The
// whitelist digests recorded at build time let us warn when the registry is
// stale with respect to the whitelists it was built from.
type Registry struct {
	// Tests maps a test identifier to its global 1-based number
	Tests map[string]int `json:"tests"`

	// WhitelistDigests maps a repository to the SHA-256 digest of its
	// whitelist file at the time the registry was built
	WhitelistDigests map[string]string `json:"whitelist_digests,omitempty"`
}

// Load reads a registry file. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	r := new(Registry)
	r.Tests = make(map[string]int)
	r.WhitelistDigests = make(map[string]string)

	if !util.FileExists(path) {
		return r, nil
	}

	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %s", path, err)
	}
	err = json.Unmarshal(content, r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s: %s", path, err)
	}
	if r.Tests == nil {
		r.Tests = make(map[string]int)
	}
	if r.WhitelistDigests == nil {
		r.WhitelistDigests = make(map[string]string)
	}
	return r, nil
}

// Save writes the registry to a file
func (r *Registry) Save(path string) error {
	content, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to serialize registry: %s", err)
	}
	err = ioutil.WriteFile(path, content, 0644)
	if err != nil {
		return fmt.Errorf("unable to write %s: %s", path, err)
	}
	return nil
}

// GetTestID returns the global number of a test
func (r *Registry) GetTestID(testID string) (int, error) {
	n, ok := r.Tests[testID]
	if !ok {
		return 0, errors.New(errors.ErrNotFound, fmt.Errorf("%s is not in the registry", testID))
	}
	return n, nil
}

// MaxTestID returns the highest number in the registry, 0 when empty
func (r *Registry) MaxTestID() int {
	max := 0
	for _, n := range r.Tests {
		if n > max {
			max = n
		}
	}
	return max
}

// IDsForRepo returns the sorted list of numbers assigned to a repository's tests
func (r *Registry) IDsForRepo(repo string) []int {
	var ids []int
	for testID, n := range r.Tests {
		if repoOf(testID) == repo {
			ids = append(ids, n)
		}
	}
	sort.Ints(ids)
	return ids
}

func repoOf(testID string) string {
	for i := 0; i < len(testID); i++ {
		if testID[i] == '/' {
			return testID[:i]
		}
	}
	return testID
}

// Build discovers all the tests of all repositories and assigns numbers by
// repository order then test name. The digests of the whitelists in effect
// are recorded so a later run can detect that the registry went stale.
func Build(basedir string) (*Registry, error) {
	r := new(Registry)
	r.Tests = make(map[string]int)
	r.WhitelistDigests = make(map[string]string)

	next := 1
	for _, repo := range repos.RegistryOrder {
		tests, err := repos.ListTests(basedir, repo)
		if err != nil {
			return nil, fmt.Errorf("unable to list tests for %s: %s", repo, err)
		}
		sort.Strings(tests)
		for _, testID := range tests {
			if _, ok := r.Tests[testID]; ok {
				continue
			}
			r.Tests[testID] = next
			next++
		}

		whitelistPath, err := repos.WhitelistPath(basedir, repo)
		if err != nil {
			return nil, err
		}
		if util.FileExists(whitelistPath) {
			digest, err := hash.File(whitelistPath)
			if err != nil {
				return nil, err
			}
			r.WhitelistDigests[repo] = digest
		}
	}

	return r, nil
}

// StaleRepos compares the recorded whitelist digests with the whitelists
// currently on disk and returns the repositories whose whitelist changed
// since the registry was built.
func (r *Registry) StaleRepos(basedir string) ([]string, error) {
	var stale []string
	for _, repo := range repos.RegistryOrder {
		whitelistPath, err := repos.WhitelistPath(basedir, repo)
		if err != nil {
			return nil, err
		}
		recorded, hasRecord := r.WhitelistDigests[repo]
		if !util.FileExists(whitelistPath) {
			if hasRecord {
				stale = append(stale, repo)
			}
			continue
		}
		digest, err := hash.File(whitelistPath)
		if err != nil {
			return nil, err
		}
		if !hasRecord || digest != recorded {
			stale = append(stale, repo)
		}
	}
	return stale, nil
}
