//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package runner

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// RunTool executes another tool of this tool suite, streaming its output to
// the terminal, and returns its exit code. Experiments can run for hours so
// the output is not buffered.
func RunTool(binPath string, args []string) int {
	cmd := exec.Command(binPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Env = os.Environ()

	fmt.Printf("Executing: %s %s\n\n", binPath, strings.Join(args, " "))
	err := cmd.Run()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	fmt.Printf("command failed: %s\n", err)
	return 1
}
