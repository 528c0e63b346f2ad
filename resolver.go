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
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/kralicky/wiregen/defs"
)

// There are two string identifiers used to refer to schema files in
// different contexts, which cannot be interchanged. To avoid accidental
// misuse, these types are used to distinguish them.
type (
	// An import path as it appears in a file.
	UnresolvedPath string
	// A resolved path, uniquely identifying a file.
	ResolvedPath string
)

// Resolver is used by the compiler to resolve a schema file name into some
// unit that is usable by the compiler: source bytes to hand to the parser
// collaborator, or an already-parsed definition list.
//
// Resolver implementations must be thread-safe, as compiling multiple
// schemas in one call can invoke FindFileByPath from multiple goroutines.
type Resolver interface {
	// FindFileByPath searches for the given file path. If no result is
	// available, it should return a non-nil error; the resolvers in this
	// package report a missing file as *ImportNotFoundError and pass other
	// I/O errors through unchanged.
	FindFileByPath(path UnresolvedPath) (SearchResult, error)
}

// SearchResult represents information about a schema file. Exactly one of
// Source and File should be set; the compiler prefers File, falling back
// to parsing Source.
type SearchResult struct {
	// The unique path the file was actually found under. Required.
	ResolvedPath ResolvedPath
	// Source bytes for the file, to be given to the parser collaborator.
	Source []byte
	// An already-parsed definition list for the file, bypassing the
	// parser.
	File *defs.File
}

// ResolverFunc is a simple function type that implements Resolver.
type ResolverFunc func(UnresolvedPath) (SearchResult, error)

var _ Resolver = ResolverFunc(nil)

func (f ResolverFunc) FindFileByPath(path UnresolvedPath) (SearchResult, error) {
	return f(path)
}

// CompositeResolver is a slice of resolvers, which are consulted in order
// until one can supply a result. If none can, the first resolver's error
// is returned.
type CompositeResolver []Resolver

var _ Resolver = CompositeResolver(nil)

func (f CompositeResolver) FindFileByPath(path UnresolvedPath) (SearchResult, error) {
	if len(f) == 0 {
		return SearchResult{}, &ImportNotFoundError{Name: path}
	}
	var firstErr error
	for _, res := range f {
		r, err := res.FindFileByPath(path)
		if err == nil {
			return r, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return SearchResult{}, firstErr
}

// SourceResolver resolves file names by returning source bytes. It walks
// an optional list of import paths in order, selecting the first readable
// match; with no import paths, file paths are taken relative to the
// current working directory.
type SourceResolver struct {
	// Optional list of directories to search, in order.
	ImportPaths []string
	// The file-system collaborator used to probe and read files. If nil,
	// OSFileOps is used.
	FileOps FileOps
}

var _ Resolver = (*SourceResolver)(nil)

func (r *SourceResolver) FindFileByPath(path UnresolvedPath) (SearchResult, error) {
	ops := r.FileOps
	if ops == nil {
		ops = OSFileOps{}
	}
	if len(r.ImportPaths) == 0 {
		data, err := ops.ReadFile(string(path))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return SearchResult{}, &ImportNotFoundError{Name: path}
			}
			return SearchResult{}, err
		}
		return SearchResult{
			ResolvedPath: ResolvedPath(path),
			Source:       data,
		}, nil
	}
	for _, importPath := range r.ImportPaths {
		resolved := ResolvedPath(filepath.Join(importPath, string(path)))
		if _, err := ops.Stat(string(resolved)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return SearchResult{}, err
		}
		data, err := ops.ReadFile(string(resolved))
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{
			ResolvedPath: resolved,
			Source:       data,
		}, nil
	}
	return SearchResult{}, &ImportNotFoundError{Name: path, SearchPaths: r.ImportPaths}
}

// FileAccessorFromMap returns a resolver that serves pre-parsed definition
// lists from the given map, keyed by file name. It is intended for tests
// and for callers whose schemas come from somewhere other than .proto
// source text.
//
// The given map is used directly and not copied; it must not be mutated
// once the resolver is in use.
func FileAccessorFromMap(files map[string]*defs.File) Resolver {
	return ResolverFunc(func(path UnresolvedPath) (SearchResult, error) {
		f, ok := files[string(path)]
		if !ok {
			return SearchResult{}, &ImportNotFoundError{Name: path}
		}
		return SearchResult{
			ResolvedPath: ResolvedPath(path),
			File:         f,
		}, nil
	})
}
