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

import "github.com/kralicky/wiregen/defs"

// Parser is the lexer/parser collaborator: it turns .proto source bytes
// into a raw definition list plus the file's declared imports. The
// compiler does not ship a parser of its own; callers supply one here, or
// supply pre-parsed files through their Resolver.
//
// Lexical failures should be reported as *ScanError and syntactic
// failures as *ParseError; the compiler surfaces either to its caller
// unchanged.
type Parser interface {
	Parse(filename string, src []byte) (*defs.File, error)
}

// ParserFunc is a simple function type that implements Parser.
type ParserFunc func(filename string, src []byte) (*defs.File, error)

var _ Parser = ParserFunc(nil)

func (f ParserFunc) Parse(filename string, src []byte) (*defs.File, error) {
	return f(filename, src)
}
