//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package environment

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/pkg/errors"
)

// BackupSuffix is appended to the native library path while it is swapped out
const BackupSuffix = "_bck"

// The swapped native library is a machine-wide resource: at most one swap can
// be in effect at a time, so concurrent swaps within the process serialize on
// this lock and hold it until restoration.
var swapLock sync.Mutex

// SwapGuard tracks one native-library swap. Restore must be called exactly
// once on every exit path; the guard also restores on SIGINT/SIGTERM so an
// interrupted run never leaves the library renamed.
type SwapGuard struct {
	// OriginalPath is the path of the native library that was moved aside
	OriginalPath string

	// BackupPath is where the library lives while the swap is in effect
	BackupPath string

	swapped bool
	once    sync.Once
	sigs    chan os.Signal
	done    chan struct{}
}

// SwapNativeLibrary renames a native runtime library out of the way so that a
// sanitizer-instrumented replacement takes effect through the library search
// order. A missing library is not fatal: the run proceeds without
// substitution and the returned guard restores nothing.
func SwapNativeLibrary(path string) (*SwapGuard, error) {
	swapLock.Lock()

	g := new(SwapGuard)
	g.OriginalPath = path
	g.BackupPath = path + BackupSuffix
	g.done = make(chan struct{})

	if !util.FileExists(path) {
		log.Printf("WARNING: %s does not exist, no library substitution will be performed\n", path)
		swapLock.Unlock()
		g.swapped = false
		return g, nil
	}

	err := os.Rename(path, g.BackupPath)
	if err != nil {
		swapLock.Unlock()
		return nil, fmt.Errorf("unable to move %s aside: %s", path, err)
	}
	g.swapped = true

	g.sigs = make(chan os.Signal, 1)
	signal.Notify(g.sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-g.sigs:
			log.Printf("received %s, restoring %s\n", sig, g.OriginalPath)
			g.Restore()
			os.Exit(1)
		case <-g.done:
		}
	}()

	return g, nil
}

// Restore undoes the swap. It is safe to call from any exit path, including
// the signal handler; only the first call has an effect. A failed restoration
// is reported as a cleanup error which callers log without changing the run's
// exit status.
func (g *SwapGuard) Restore() error {
	var restoreErr error
	g.once.Do(func() {
		if g.sigs != nil {
			signal.Stop(g.sigs)
			close(g.done)
		}
		if !g.swapped {
			// Nothing was moved, nothing to restore
			return
		}
		defer swapLock.Unlock()
		err := os.Rename(g.BackupPath, g.OriginalPath)
		if err != nil {
			restoreErr = errors.New(errors.ErrCleanup, fmt.Errorf("unable to restore %s: %s", g.OriginalPath, err))
		}
	})
	return restoreErr
}
