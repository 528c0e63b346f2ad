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

// Package reporter contains the types used for reporting errors and
// warnings from compilation. Errors and warnings carry the schema element
// they refer to, rather than byte offsets, since the compiler operates on
// definition lists instead of source text.
package reporter

import "sync"

// ErrorReporter is called for each error encountered during compilation.
// If it returns non-nil, compilation aborts with that error; if it returns
// nil the error is suppressed and compilation continues, though the overall
// operation will still fail with ErrInvalidSchema at the end.
type ErrorReporter func(err ErrorWithSpan) error

// WarningReporter is called for each warning encountered. Warnings never
// fail a compilation.
type WarningReporter func(ErrorWithSpan)

// Reporter receives errors and warnings as they are produced.
type Reporter interface {
	// Error is called when an error is encountered. Returning a non-nil
	// error aborts compilation immediately.
	Error(ErrorWithSpan) error
	// Warning is called when a warning is reported, such as the advisory
	// that a cyclic schema demoted type specs.
	Warning(ErrorWithSpan)
}

// NewReporter creates a Reporter from the two callbacks. Either may be nil:
// a nil errs fails fast on the first error; a nil warnings ignores
// warnings.
func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(err ErrorWithSpan) error {
	if r.errs == nil {
		return err
	}
	return r.errs(err)
}

func (r reporterFuncs) Warning(err ErrorWithSpan) {
	if r.warnings != nil {
		r.warnings(err)
	}
}

// Handler wraps a Reporter and tracks whether any errors have been
// delivered. A nil-Reporter Handler fails fast on the first error.
type Handler struct {
	reporter Reporter

	mu           sync.Mutex
	errsReported bool
	err          error
}

// NewHandler creates a Handler for the given reporter. If rep is nil, a
// default reporter is used that fails on the first reported error and
// ignores all warnings.
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil, nil)
	}
	return &Handler{reporter: rep}
}

// HandleError delivers err to the reporter. The returned error is non-nil
// if compilation should abort now; callers should return it up the stack
// unchanged.
func (h *Handler) HandleError(err ErrorWithSpan) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.errsReported = true
	if abort := h.reporter.Error(err); abort != nil {
		h.err = abort
		return abort
	}
	return nil
}

// HandleErrorf is like HandleError, constructing the error from a span and
// format arguments.
func (h *Handler) HandleErrorf(span Span, format string, args ...any) error {
	return h.HandleError(Errorf(span, format, args...))
}

// HandleWarning delivers a warning to the reporter.
func (h *Handler) HandleWarning(err ErrorWithSpan) {
	h.mu.Lock()
	rep := h.reporter
	h.mu.Unlock()
	rep.Warning(err)
}

// HandleWarningf is like HandleWarning, constructing the warning from a
// span and format arguments.
func (h *Handler) HandleWarningf(span Span, format string, args ...any) {
	h.HandleWarning(Errorf(span, format, args...))
}

// Err returns the operation's failure, if any: the aborting error if the
// reporter requested an abort, or ErrInvalidSchema if errors were reported
// but all suppressed.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	if h.errsReported {
		return ErrInvalidSchema
	}
	return nil
}
