//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package notation provides the compressed notation used to display lists of
// test identifiers, e.g., "1-27,42".
package notation

import (
	"fmt"
	"strings"
)

// CompressIntArray returns the compressed representation of a sorted list of
// integers, collapsing consecutive values into ranges.
func CompressIntArray(array []int) string {
	var parts []string
	for i := 0; i < len(array); i++ {
		start := i
		for i+1 < len(array) && array[i]+1 == array[i+1] {
			i++
		}
		if i != start {
			parts = append(parts, fmt.Sprintf("%d-%d", array[start], array[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%d", array[i]))
		}
	}
	return strings.Join(parts, ",")
}
