// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import "fmt"

// Kind classifies tool failures for programmatic handling.
type Kind string

const (
	// KindPrivilege indicates the process could not obtain root privileges.
	KindPrivilege Kind = "PRIVILEGE"
	// KindLibraryLoad indicates libnvidia-ml.so could not be loaded or is
	// missing required symbols.
	KindLibraryLoad Kind = "LIBRARY_LOAD"
	// KindInit indicates NVML initialization returned a non-zero code.
	KindInit Kind = "INIT"
	// KindDevice indicates a device handle could not be acquired.
	KindDevice Kind = "DEVICE"
	// KindParse indicates malformed fan-curve input.
	KindParse Kind = "PARSE"
	// KindEmptyCurve indicates fan-curve input with no keypoints.
	KindEmptyCurve Kind = "EMPTY_CURVE"
	// KindDriverOp indicates a recoverable driver operation failure.
	// Errors of this kind are logged and absorbed; they never abort the run.
	KindDriverOp Kind = "DRIVER_OP"
	// KindConfig indicates an invalid configuration profile or flag set.
	KindConfig Kind = "CONFIG"
)

// Error carries a failure classification, a human-readable message, the
// underlying cause, and the raw NVML return code when one exists.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Code is the numeric NVML return value for driver-originated errors.
	// Zero means no code applies (e.g. parse errors).
	Code int
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Code != 0 && e.Cause != nil:
		return fmt.Sprintf("[%s] %s (code %d): %v", e.Kind, e.Message, e.Code, e.Cause)
	case e.Code != 0:
		return fmt.Sprintf("[%s] %s (code %d)", e.Kind, e.Message, e.Code)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewWithCode creates an Error carrying an NVML return code.
func NewWithCode(kind Kind, message string, code int) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a kind and message.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// IsKind reports whether err or any error in its chain is an *Error of
// the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
