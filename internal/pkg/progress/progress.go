//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package progress

import (
	"fmt"
	"io"
	"os"
)

// Bar reports the advancement of a batch of test executions on a single
// rewritten terminal line.
type Bar struct {
	label   string
	current int
	max     int
	out     io.Writer
}

// NewBar creates and displays a progress bar for max steps
func NewBar(max int, label string) *Bar {
	b := new(Bar)
	b.max = max
	b.label = label
	if b.label == "" {
		b.label = "Progress"
	}
	b.out = os.Stdout
	b.display()
	return b
}

func (b *Bar) display() {
	percent := 0
	if b.max > 0 {
		percent = b.current * 100 / b.max
	}
	fmt.Fprintf(b.out, "\r%s: %d/%d (%d%%)", b.label, b.current, b.max, percent)
}

// Increment advances the bar by val steps
func (b *Bar) Increment(val int) {
	b.current += val
	if b.current > b.max {
		b.current = b.max
	}
	b.display()
}

// EndBar terminates a progress bar, leaving its final state on screen
func EndBar(b *Bar) {
	b.display()
	fmt.Fprintf(b.out, "\n")
}
