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

package defs

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind enumerates the field type variants: the fifteen scalar kinds plus
// enum and message references.
type Kind int

const (
	KindInvalid Kind = iota

	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindBool
	KindFixed32
	KindSfixed32
	KindFloat
	KindFixed64
	KindSfixed64
	KindDouble
	KindString
	KindBytes

	KindEnum
	KindMessage

	// KindRef is a named reference whose target kind (enum or message) is
	// not yet known. Parsers produce it; the linker replaces it with
	// KindEnum or KindMessage during resolution. It never survives linking.
	KindRef
)

var kindNames = map[Kind]string{
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindSint32:   "sint32",
	KindSint64:   "sint64",
	KindBool:     "bool",
	KindFixed32:  "fixed32",
	KindSfixed32: "sfixed32",
	KindFloat:    "float",
	KindFixed64:  "fixed64",
	KindSfixed64: "sfixed64",
	KindDouble:   "double",
	KindString:   "string",
	KindBytes:    "bytes",
	KindEnum:     "enum",
	KindMessage:  "message",
	KindRef:      "ref",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindByName returns the scalar kind with the given proto type name, or
// KindInvalid if the name does not denote a scalar type.
func KindByName(name string) Kind {
	for k, n := range kindNames {
		if n == name && k != KindEnum && k != KindMessage && k != KindRef {
			return k
		}
	}
	return KindInvalid
}

// IsScalar reports whether k is one of the fifteen scalar kinds.
func (k Kind) IsScalar() bool {
	return k >= KindInt32 && k <= KindBytes
}

// IsPackable reports whether a repeated field of this kind admits the
// packed encoding. Strings, bytes, and messages are not packable.
func (k Kind) IsPackable() bool {
	switch k {
	case KindString, KindBytes, KindMessage, KindRef, KindInvalid:
		return false
	default:
		return true
	}
}

// FixedSize returns the wire size of a fixed-width kind, or 0 for kinds
// whose encoding is not statically sized.
func (k Kind) FixedSize() int {
	switch k {
	case KindFixed32, KindSfixed32, KindFloat:
		return 4
	case KindFixed64, KindSfixed64, KindDouble:
		return 8
	default:
		return 0
	}
}

// WireType returns the wire type a single (non-packed) value of this kind
// is framed with.
func (k Kind) WireType() protowire.Type {
	switch k {
	case KindFixed32, KindSfixed32, KindFloat:
		return protowire.Fixed32Type
	case KindFixed64, KindSfixed64, KindDouble:
		return protowire.Fixed64Type
	case KindString, KindBytes, KindMessage:
		return protowire.BytesType
	default:
		return protowire.VarintType
	}
}

// Type is a field type: a tagged variant over Kind. For KindEnum and
// KindMessage, Ref names the referenced definition (fully qualified after
// linking) and Enum/Msg carry the resolved identity once the linker has
// run. All other kinds use neither.
type Type struct {
	Kind Kind
	Ref  string

	Enum *Enum
	Msg  *Message
}

// Scalar returns the Type for a scalar kind.
func Scalar(k Kind) Type { return Type{Kind: k} }

// EnumRef returns an unresolved enum reference.
func EnumRef(name string) Type { return Type{Kind: KindEnum, Ref: name} }

// MsgRef returns an unresolved message reference.
func MsgRef(name string) Type { return Type{Kind: KindMessage, Ref: name} }

// Ref returns a named reference whose target kind is not yet known.
func Ref(name string) Type { return Type{Kind: KindRef, Ref: name} }

func (t Type) String() string {
	switch t.Kind {
	case KindEnum, KindMessage, KindRef:
		return t.Ref
	default:
		return t.Kind.String()
	}
}
