//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package timer

import "time"

// Handle is a structure gathering all the data necessary to implement timers
type Handle struct {
	startTime time.Time
}

// Start creates and starts a timer
func Start() *Handle {
	h := new(Handle)
	h.startTime = time.Now()
	return h
}

// Stop ends a timer and returns the elapsed time as a string
func (h *Handle) Stop() string {
	return time.Since(h.startTime).String()
}

// ElapsedSeconds returns the time elapsed since the timer started, in
// seconds. Run records store test durations in this unit.
func (h *Handle) ElapsedSeconds() float64 {
	return time.Since(h.startTime).Seconds()
}
