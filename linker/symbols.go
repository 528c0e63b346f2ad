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

package linker

import (
	art "github.com/plar/go-adaptive-radix-tree"

	"github.com/kralicky/wiregen/defs"
	"github.com/kralicky/wiregen/reporter"
)

// Symbols is a symbol table mapping fully-qualified names to their
// definitions. It is used to enforce name uniqueness and to resolve type
// references scope-outward.
type Symbols struct {
	tree art.Tree
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *Symbols {
	return &Symbols{tree: art.New()}
}

// Import records a definition under its fully-qualified name. A duplicate
// name is reported through the handler; the first definition wins.
func (s *Symbols) Import(d defs.Def, span reporter.Span, handler *reporter.Handler) error {
	name := d.DefName()
	if _, found := s.tree.Search(art.Key(name)); found {
		return handler.HandleErrorf(span, "symbol %q already defined", name)
	}
	s.tree.Insert(art.Key(name), d)
	return nil
}

// Lookup returns the definition with the given fully-qualified name, or
// nil if the name is not defined.
func (s *Symbols) Lookup(name string) defs.Def {
	v, found := s.tree.Search(art.Key(name))
	if !found {
		return nil
	}
	return v.(defs.Def)
}

// Resolve resolves a reference as written in source against a scope. The
// scope is the fully-qualified name of the enclosing message ("" at file
// level). A reference starting with "." is taken as already rooted;
// otherwise enclosing scopes are searched innermost first.
func (s *Symbols) Resolve(scope, ref string) defs.Def {
	if ref == "" {
		return nil
	}
	if ref[0] == '.' {
		return s.Lookup(ref)
	}
	for scope != "" {
		if d := s.Lookup(scope + "." + ref); d != nil {
			return d
		}
		scope = parentScope(scope)
	}
	return s.Lookup("." + ref)
}

// parentScope strips the last dotted component: ".A.B" -> ".A", ".A" -> "".
func parentScope(scope string) string {
	for i := len(scope) - 1; i > 0; i-- {
		if scope[i] == '.' {
			return scope[:i]
		}
	}
	return ""
}
