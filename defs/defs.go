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

// Package defs contains the schema model shared by all compilation stages:
// the raw definitions produced by a parser, and the normalized, validated
// form consumed by codec compilation and artifact emission.
//
// Names are dotted and rooted: a fully-qualified name always begins with
// "." (".Person", ".Person.Address"). Raw definitions as produced by a
// parser may carry relative references; the linker rewrites every reference
// to its fully-qualified form and attaches the resolved definition.
package defs

import "fmt"

// Def is a single top-level schema definition: an enum, a message, or an
// extend block. Extend blocks only appear in raw schemas; the linker folds
// them into their target messages.
type Def interface {
	// DefName returns the definition's name. For raw definitions this may be
	// scope-relative; after linking it is always fully qualified.
	DefName() string

	isDef()
}

// File is the parsed form of a single schema file, as produced by the
// parser collaborator. Imports hold the import paths declared by the file,
// in declaration order.
type File struct {
	Name    string
	Imports []string
	Defs    []Def
}

// Enum is an enum definition: an ordered list of (symbol, number) pairs.
// On the wire an enum value is the varint of the two's-complement 32-bit
// reinterpretation of its number, so negative numbers occupy ten bytes.
type Enum struct {
	Name   string
	Values []EnumValue
}

// EnumValue is a single enum member.
type EnumValue struct {
	Symbol string
	Number int32
}

func (e *Enum) DefName() string { return e.Name }
func (e *Enum) isDef()          {}

// SymbolByNumber returns the first symbol declared with the given number,
// or "" if the number is not declared.
func (e *Enum) SymbolByNumber(n int32) string {
	for _, v := range e.Values {
		if v.Number == n {
			return v.Symbol
		}
	}
	return ""
}

// NumberBySymbol returns the number declared for the given symbol. The
// second return is false if the symbol is not declared.
func (e *Enum) NumberBySymbol(sym string) (int32, bool) {
	for _, v := range e.Values {
		if v.Symbol == sym {
			return v.Number, true
		}
	}
	return 0, false
}

// Message is a message definition. Nested holds definitions declared inside
// the message body; the linker hoists them to top level and empties it.
type Message struct {
	Name   string
	Fields []*Field
	Nested []Def
}

func (m *Message) DefName() string { return m.Name }
func (m *Message) isDef()          {}

// FieldByName returns the field with the given name, or nil.
func (m *Message) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldByNum returns the field with the given wire number, or nil.
func (m *Message) FieldByNum(num int32) *Field {
	for _, f := range m.Fields {
		if f.Num == num {
			return f
		}
	}
	return nil
}

// Extend is a raw extend block: extension fields destined for the message
// named by Target. The linker appends the fields to the target message and
// removes the block from the definition list.
type Extend struct {
	Target string
	Fields []*Field
}

func (e *Extend) DefName() string { return e.Target }
func (e *Extend) isDef()          {}

// Cardinality is a field's occurrence rule.
type Cardinality int

const (
	Required Cardinality = iota
	Optional
	Repeated
)

func (c Cardinality) String() string {
	switch c {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Repeated:
		return "repeated"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Field is a single field descriptor.
//
// RNum is the dense ordinal (1..N in declaration order) assigned by the
// linker; it indexes the field's slot in dynamic message values. RawOptions
// holds options as parsed; the linker canonicalizes them into Packed,
// Default, and HasDefault and clears the raw list.
type Field struct {
	Name string
	Num  int32
	RNum int
	Type Type

	Cardinality Cardinality

	RawOptions []Option

	Packed     bool
	Default    any
	HasDefault bool
}

// Option is a raw field-level option as produced by the parser. Only
// "packed" and "default" are honored; others are dropped during
// normalization.
type Option struct {
	Name  string
	Value any
}

// Schema is the normalized output of the linker: flattened, resolved,
// validated definitions. When Cyclic is false, message definitions appear
// in dependency order (definee before referrer).
type Schema struct {
	// Name identifies the compiled artifact (typically the base name of the
	// source file, or the name given to MsgDefs).
	Name string

	Defs []Def

	// Cyclic reports whether the message reference graph contains a cycle.
	Cyclic bool
}

// Enum returns the enum with the given fully-qualified name, or nil.
func (s *Schema) Enum(name string) *Enum {
	for _, d := range s.Defs {
		if e, ok := d.(*Enum); ok && e.Name == name {
			return e
		}
	}
	return nil
}

// Message returns the message with the given fully-qualified name, or nil.
func (s *Schema) Message(name string) *Message {
	for _, d := range s.Defs {
		if m, ok := d.(*Message); ok && m.Name == name {
			return m
		}
	}
	return nil
}

// Messages returns the message definitions in schema order.
func (s *Schema) Messages() []*Message {
	var out []*Message
	for _, d := range s.Defs {
		if m, ok := d.(*Message); ok {
			out = append(out, m)
		}
	}
	return out
}
