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

package reporter

import (
	"errors"
	"fmt"
)

// ErrInvalidSchema is a sentinel error returned by compilation steps when
// one or more errors were reported but the configured ErrorReporter always
// returned nil.
var ErrInvalidSchema = errors.New("compilation failed: invalid schema")

// Span identifies the schema element an error or warning refers to: the
// file it came from and the dotted symbol within it. Either part may be
// empty when unknown.
type Span struct {
	File   string
	Symbol string
}

// UnknownSpan returns a span naming only a file.
func UnknownSpan(file string) Span { return Span{File: file} }

func (s Span) String() string {
	switch {
	case s.File == "" && s.Symbol == "":
		return "<unknown>"
	case s.Symbol == "":
		return s.File
	case s.File == "":
		return s.Symbol
	default:
		return s.File + ": " + s.Symbol
	}
}

// ErrorWithSpan is an error about a schema that adds information about the
// element that caused the error.
type ErrorWithSpan interface {
	error
	// GetSpan returns the schema element that caused the underlying error.
	GetSpan() Span
	// Unwrap returns the underlying error.
	Unwrap() error
}

// Error creates a new ErrorWithSpan from the given error and span.
func Error(span Span, err error) ErrorWithSpan {
	return errorWithSpan{span: span, underlying: err}
}

// Errorf creates a new ErrorWithSpan whose underlying error is created
// using the given message format and arguments (via fmt.Errorf).
func Errorf(span Span, format string, args ...any) ErrorWithSpan {
	return errorWithSpan{span: span, underlying: fmt.Errorf(format, args...)}
}

type errorWithSpan struct {
	underlying error
	span       Span
}

func (e errorWithSpan) Error() string {
	return fmt.Sprintf("%s: %v", e.span, e.underlying)
}

func (e errorWithSpan) GetSpan() Span { return e.span }

func (e errorWithSpan) Unwrap() error { return e.underlying }

var _ ErrorWithSpan = errorWithSpan{}
