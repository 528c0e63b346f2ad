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

// Package wiregen compiles proto2 schemas into self-contained wire-format
// codec artifacts: encoders, decoders, a merger, a verifier, and schema
// introspection for every message type a schema defines.
//
// The package-level File and MsgDefs entry points cover common use; the
// Compiler type exposes every knob, including a pluggable file system,
// resolver, parser, and diagnostic reporter for hermetic operation.
package wiregen

import (
	"context"

	"github.com/kralicky/wiregen/defs"
)

// Option configures a package-level compile call.
type Option func(*Compiler)

// WithImportPaths appends directories to the import search path.
func WithImportPaths(dirs ...string) Option {
	return func(c *Compiler) { c.ImportPaths = append(c.ImportPaths, dirs...) }
}

// WithCompiler replaces the whole compiler configuration. Options given
// after it apply on top; options given before it are overwritten.
func WithCompiler(base Compiler) Option {
	return func(c *Compiler) { *c = base }
}

// File loads the schema rooted at path, compiles it, and emits its
// artifact.
func File(ctx context.Context, path string, opts ...Option) (*Artifact, error) {
	var c Compiler
	for _, opt := range opts {
		opt(&c)
	}
	return c.CompileFile(ctx, path)
}

// MsgDefs compiles a pre-parsed definition list under the given artifact
// name, bypassing import resolution.
func MsgDefs(ctx context.Context, name string, raw []defs.Def, opts ...Option) (*Artifact, error) {
	var c Compiler
	for _, opt := range opts {
		opt(&c)
	}
	return c.CompileDefs(ctx, name, raw)
}
