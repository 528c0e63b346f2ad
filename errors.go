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

package wiregen

import (
	"fmt"
	"strings"
)

// ImportNotFoundError reports a schema file that could not be located in
// any of the configured import paths.
type ImportNotFoundError struct {
	Name        UnresolvedPath
	SearchPaths []string
}

func (e *ImportNotFoundError) Error() string {
	if len(e.SearchPaths) == 0 {
		return fmt.Sprintf("import %q not found", string(e.Name))
	}
	return fmt.Sprintf("import %q not found in any of: %s",
		string(e.Name), strings.Join(e.SearchPaths, ", "))
}

// ScanError reports a lexical failure from the parser collaborator. It is
// surfaced to the caller unchanged.
type ScanError struct {
	File   string
	Detail string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: scan error: %s", e.File, e.Detail)
}

// ParseError reports a syntactic failure from the parser collaborator. It
// is surfaced to the caller unchanged.
type ParseError struct {
	File   string
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %s", e.File, e.Detail)
}

// InternalError reports a generation-stage invariant breach. These should
// not occur for schemas that passed validation; one indicates a bug in the
// named stage rather than in the input.
type InternalError struct {
	Stage string
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %v", e.Stage, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
