//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package format

import (
	"testing"
)

func TestLogFileName(t *testing.T) {
	tests := []struct {
		testNumber     int
		testID         string
		expectedResult string
	}{
		{
			testNumber:     1,
			testID:         "liger_kernel/test_jsd/test_correctness",
			expectedResult: "1_liger_kernel_test_jsd_test_correctness.log",
		},
		{
			testNumber:     42,
			testID:         "tritonbench/softmax",
			expectedResult: "42_tritonbench_softmax.log",
		},
		{
			testNumber:     107,
			testID:         "flag_gems/test_binary_pointwise_ops",
			expectedResult: "107_flag_gems_test_binary_pointwise_ops.log",
		},
	}

	for _, tt := range tests {
		name := LogFileName(tt.testNumber, tt.testID)
		if name != tt.expectedResult {
			t.Fatalf("LogFileName() returned %s instead of %s", name, tt.expectedResult)
		}
	}
}

func TestTestIDFromFlatName(t *testing.T) {
	tests := []struct {
		flatName       string
		expectedResult string
	}{
		{
			flatName:       "liger_kernel_test_jsd_test_correctness",
			expectedResult: "liger_kernel/test_jsd/test_correctness",
		},
		{
			flatName:       "liger_kernel_test_cross_entropy",
			expectedResult: "liger_kernel/test_cross_entropy",
		},
		{
			flatName:       "tritonbench_softmax",
			expectedResult: "tritonbench/softmax",
		},
		{
			flatName:       "tritonbench_test_attention",
			expectedResult: "tritonbench/test_attention",
		},
		{
			flatName:       "flag_gems_test_binary_pointwise_ops_test_accuracy_add",
			expectedResult: "flag_gems/test_binary_pointwise_ops/test_accuracy_add",
		},
		{
			flatName:       "unknown_prefix_test_foo",
			expectedResult: "unknown_prefix_test_foo",
		},
	}

	for _, tt := range tests {
		id := TestIDFromFlatName(tt.flatName)
		if id != tt.expectedResult {
			t.Fatalf("TestIDFromFlatName() returned %s instead of %s for %s", id, tt.expectedResult, tt.flatName)
		}
	}
}
