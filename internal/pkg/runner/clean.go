//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
)

// DefaultCleanPattern is the glob used by clean mode when none is given
const DefaultCleanPattern = format.OutputDirPrefix + "*"

// Clean deletes the output directories under basedir whose name matches the
// glob pattern and returns the list of removed directories. Matching files
// are left untouched; matching nothing is not an error.
func Clean(basedir string, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultCleanPattern
	}

	matches, err := filepath.Glob(filepath.Join(basedir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %s", pattern, err)
	}

	var removed []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			continue
		}
		err = os.RemoveAll(match)
		if err != nil {
			return removed, fmt.Errorf("unable to remove %s: %s", match, err)
		}
		removed = append(removed, match)
	}

	return removed, nil
}
