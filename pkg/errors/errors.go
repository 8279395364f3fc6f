//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package errors

type InternalError struct {
	msg  string // message associated to the error
	code int    // error code
}

type HarnessError struct {
	internal InternalError
	details  error
}

// ErrNone means success
var ErrNone = InternalError{"Success", 0}

// ErrNotFound means that the object/entity requested could not be found
var ErrNotFound = InternalError{"Not found", -1}

// ErrMissingTool means that a required external tool could not be resolved on the search path
var ErrMissingTool = InternalError{"Missing tool", -2}

// ErrUnknownConfigGroup means that the requested configuration group is not in the registry
var ErrUnknownConfigGroup = InternalError{"Unknown configuration group", -3}

// ErrUnknownRepository means that the requested test repository is not supported
var ErrUnknownRepository = InternalError{"Unknown repository", -4}

// ErrSubprocess means that a subprocess returned a non-zero exit code
var ErrSubprocess = InternalError{"Subprocess failure", -5}

// ErrCleanup means that a cleanup operation could not be fully completed
var ErrCleanup = InternalError{"Cleanup failure", -6}

func New(i InternalError, err error) *HarnessError {
	e := new(HarnessError)
	e.details = err
	e.internal = i
	return e
}

func (e *HarnessError) Is(i InternalError) bool {
	if e.internal == i {
		return true
	}
	return false
}

func (e *HarnessError) GetInternal() error {
	return e.details
}

func (e *HarnessError) Error() string {
	if e.details != nil {
		return e.internal.msg + ": " + e.details.Error()
	}
	return e.internal.msg
}
