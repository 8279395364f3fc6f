//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package runner

// PhaseResult records the outcome of one phase of an invocation (test
// execution, analysis, reordering). Phases fail independently; the driver
// combines them into a single exit status instead of chaining raw exit
// codes.
type PhaseResult struct {
	// Name identifies the phase in the final report
	Name string

	// Err is the phase's error, nil on success
	Err error
}

// Failed tells whether the phase completed successfully
func (p *PhaseResult) Failed() bool {
	return p.Err != nil
}

// CombineExitCode folds the phase results into the process exit code: 0 only
// when every phase succeeded, 1 otherwise.
func CombineExitCode(phases []PhaseResult) int {
	for _, p := range phases {
		if p.Failed() {
			return 1
		}
	}
	return 0
}
