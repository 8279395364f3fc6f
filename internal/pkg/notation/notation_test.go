//
// Copyright (c) 2020, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package notation

import (
	"testing"
)

func TestCompressIntArray(t *testing.T) {
	tests := []struct {
		array           []int
		expectedResults string
	}{
		{
			array:           []int{0, 1, 2, 3, 4, 5, 6, 8, 9, 10, 42},
			expectedResults: "0-6,8-10,42",
		},
		{
			array:           []int{1},
			expectedResults: "1",
		},
		{
			array:           []int{1, 2, 3},
			expectedResults: "1-3",
		},
		{
			array:           []int{5, 7, 9},
			expectedResults: "5,7,9",
		},
	}

	for _, tt := range tests {
		str := CompressIntArray(tt.array)
		if tt.expectedResults != str {
			t.Fatalf("Test failed: got %s instead of %s", str, tt.expectedResults)
		}
	}
}
