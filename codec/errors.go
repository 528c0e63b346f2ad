// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codec

import (
	"errors"
	"fmt"
)

// ErrTruncated is returned by Decode when the input ends in the middle of
// a tag, value, or length-delimited payload.
var ErrTruncated = errors.New("truncated input")

// ErrMalformedWireType is returned by Decode when a tag carries a wire
// type the proto2 wire format does not define for this codec (groups are
// not supported).
var ErrMalformedWireType = errors.New("malformed wire type")

// TypeError reports a value that violates its field's declared type. Path
// is the dotted chain of field names from the root message, with indexes
// for repeated elements ("contact.emails[2]").
type TypeError struct {
	Reason string
	Value  any
	Path   string
}

func (e *TypeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s (value %v)", e.Reason, e.Value)
	}
	return fmt.Sprintf("%s: %s (value %v)", e.Path, e.Reason, e.Value)
}

func typeErrorf(path string, value any, format string, args ...any) *TypeError {
	return &TypeError{Reason: fmt.Sprintf(format, args...), Value: value, Path: path}
}
