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

// Package errors provides classified errors for the nvml-tune CLI.
//
// Every failure the tool can report carries a Kind. Fatal kinds
// (PRIVILEGE, LIBRARY_LOAD, INIT, DEVICE, PARSE, EMPTY_CURVE, CONFIG)
// unwind to main and terminate the process with a non-zero exit code.
// DRIVER_OP errors are recoverable: callers log them and continue.
//
// Driver-originated errors preserve the raw NVML return code:
//
//	err := errors.NewWithCode(errors.KindDriverOp, "set power limit failed", int(ret))
//	// err.Error() == "[DRIVER_OP] set power limit failed (code 2)"
package errors
