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
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/kralicky/wiregen/codec"
	"github.com/kralicky/wiregen/defs"
	"github.com/kralicky/wiregen/gen"
	"github.com/kralicky/wiregen/linker"
	"github.com/kralicky/wiregen/reporter"
)

// Compiler turns proto2 schema files into wire-format codec artifacts.
//
// Compilation of one schema is a strictly staged, sequential pipeline:
//  1. Import resolution: walk the import graph, loading each file once.
//  2. Linking: qualify names, flatten, resolve references, apply extends,
//     assign field ordinals, normalize options, validate.
//  3. Topological ordering of message definitions (cycle detection).
//  4. Feature negotiation (type specs, verification mode, bytes copying).
//  5. Codec compilation and artifact emission.
//
// No stage mutates its input; each stage's output feeds the next.
type Compiler struct {
	// Resolves file names into source bytes or pre-parsed definition
	// lists. If nil, a SourceResolver over ImportPaths and FileOps is
	// used.
	Resolver Resolver
	// The lexer/parser collaborator. Required whenever a resolver hands
	// back source bytes rather than pre-parsed definitions.
	Parser Parser
	// A custom error and warning reporter. If unspecified a default
	// reporter is used, which fails the compilation after the first error
	// and ignores all warnings. The advisory emitted when a cyclic schema
	// demotes type specs arrives here as a warning.
	Reporter reporter.Reporter
	// The maximum parallelism to use in CompileFiles. If unspecified or
	// non-positive, min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)) is
	// used. Individual schemas always compile sequentially.
	MaxParallelism int

	// Directories searched, in order, for the initial file and its
	// imports. Used only when Resolver is nil.
	ImportPaths []string
	// The file-system collaborator for artifact writes and, when Resolver
	// is nil, for reads. If nil, OSFileOps is used.
	FileOps FileOps

	// Output directory for emitted artifacts. Empty means the source
	// file's directory (or the working directory for CompileDefs).
	OutputDir string
	// InMemory suppresses file emission; the compiled module is returned
	// in the artifact instead.
	InMemory bool
	// TypeSpecs requests typed struct mirrors in the emitted source. It
	// is forcibly disabled, with a warning, when the schema's message
	// graph is cyclic.
	TypeSpecs bool
	// Verify selects when the generated codec's Encode verifies input.
	Verify codec.VerifyMode
	// CopyBytes selects the decoder's bytes-copy strategy.
	CopyBytes codec.CopyStrategy

	// ProbeDefs, if non-nil, receives the normalized, topologically
	// ordered schema before any generation happens. Diagnostic hook; the
	// schema must not be mutated.
	ProbeDefs func(*defs.Schema)
}

// Artifact is the result of compiling one schema.
type Artifact struct {
	// Name identifies the artifact: the source file's base name without
	// extension, or the name given to CompileDefs.
	Name string
	// Schema is the normalized schema the artifact was generated from.
	Schema *defs.Schema
	// Module is the compiled codec.
	Module *codec.Module
	// Files lists the paths written, when not in InMemory mode.
	Files []string
}

// CompileFile loads, compiles, and emits the schema rooted at the given
// file, following its imports through the resolver.
func (c *Compiler) CompileFile(ctx context.Context, path string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := reporter.NewHandler(c.Reporter)

	imp := &importer{
		resolver: c.resolver(),
		parser:   c.Parser,
		seen:     make(map[ResolvedPath]bool),
	}
	rawDefs, rootPath, err := imp.load(UnresolvedPath(path))
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(string(rootPath)), filepath.Ext(string(rootPath)))
	outDir := c.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(string(rootPath))
	}
	return c.compile(name, rawDefs, outDir, h)
}

// CompileDefs compiles a pre-parsed definition list under the given
// artifact name, bypassing import resolution entirely.
func (c *Compiler) CompileDefs(ctx context.Context, name string, raw []defs.Def) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := reporter.NewHandler(c.Reporter)
	outDir := c.OutputDir
	if outDir == "" {
		outDir = "."
	}
	return c.compile(name, raw, outDir, h)
}

// CompileFiles compiles several independent schemas, bounded by
// MaxParallelism. Results are returned in input order; the first error
// encountered is returned after all in-flight compilations finish.
func (c *Compiler) CompileFiles(ctx context.Context, paths ...string) ([]*Artifact, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	par := c.MaxParallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(-1)
		if cpus := runtime.NumCPU(); par > cpus {
			par = cpus
		}
	}
	sem := semaphore.NewWeighted(int64(par))

	artifacts := make([]*Artifact, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			break
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)
			artifacts[i], errs[i] = c.CompileFile(ctx, path)
		}(i, path)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return artifacts, err
		}
	}
	return artifacts, nil
}

func (c *Compiler) resolver() Resolver {
	if c.Resolver != nil {
		return c.Resolver
	}
	return &SourceResolver{ImportPaths: c.ImportPaths, FileOps: c.FileOps}
}

func (c *Compiler) fileOps() FileOps {
	if c.FileOps != nil {
		return c.FileOps
	}
	return OSFileOps{}
}

// compile runs stages 2 through 5 over an already-loaded definition list.
func (c *Compiler) compile(name string, raw []defs.Def, outDir string, h *reporter.Handler) (*Artifact, error) {
	schema, err := linker.Link(name, raw, h)
	if err != nil {
		return nil, err
	}
	if c.ProbeDefs != nil {
		c.ProbeDefs(schema)
	}

	typeSpecs := c.TypeSpecs
	if typeSpecs && schema.Cyclic {
		typeSpecs = false
		h.HandleWarningf(reporter.UnknownSpan(name),
			"message graph is cyclic; type specs disabled")
	}

	mod, err := codec.Compile(schema,
		codec.WithVerifyMode(c.Verify),
		codec.WithCopyStrategy(c.CopyBytes),
	)
	if err != nil {
		return nil, &InternalError{Stage: "codec", Err: err}
	}

	artifact := &Artifact{Name: name, Schema: schema, Module: mod}
	if c.InMemory {
		return artifact, nil
	}

	src, err := gen.Render(schema, gen.Config{
		Name:      name,
		TypeSpecs: typeSpecs,
		Verify:    c.Verify,
		CopyBytes: c.CopyBytes,
	})
	if err != nil {
		return nil, &InternalError{Stage: "emit", Err: err}
	}
	out := filepath.Join(outDir, name+".pb.go")
	if err := c.fileOps().WriteFile(out, src); err != nil {
		return nil, err
	}
	artifact.Files = []string{out}
	return artifact, nil
}

// importer walks the import graph for one compilation, loading each file
// exactly once. A file that fails to load is still recorded as seen so
// its error is not re-reported along other import paths.
type importer struct {
	resolver Resolver
	parser   Parser
	seen     map[ResolvedPath]bool
}

// load returns the raw definitions of the file and, transitively, of its
// imports: the declarer's definitions precede its imports' contents, each
// import expanded depth-first in declaration order.
func (imp *importer) load(path UnresolvedPath) ([]defs.Def, ResolvedPath, error) {
	sr, err := imp.resolver.FindFileByPath(path)
	if err != nil {
		return nil, "", err
	}
	if imp.seen[sr.ResolvedPath] {
		return nil, sr.ResolvedPath, nil
	}
	imp.seen[sr.ResolvedPath] = true

	file := sr.File
	if file == nil {
		if imp.parser == nil {
			return nil, sr.ResolvedPath,
				fmt.Errorf("resolved %q to source bytes but no parser is configured", sr.ResolvedPath)
		}
		file, err = imp.parser.Parse(string(sr.ResolvedPath), sr.Source)
		if err != nil {
			return nil, sr.ResolvedPath, err
		}
	}

	out := make([]defs.Def, len(file.Defs))
	copy(out, file.Defs)
	for _, dep := range file.Imports {
		depDefs, _, err := imp.load(UnresolvedPath(dep))
		if err != nil {
			return nil, sr.ResolvedPath, err
		}
		out = append(out, depDefs...)
	}
	return out, sr.ResolvedPath, nil
}
