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

// Package codec compiles a normalized schema into a table-driven proto2
// wire codec: per-message encoders, decoders, mergers, and verifiers whose
// byte behavior matches the Protocol Buffers proto2 wire format.
//
// The compiled Module holds no global state; a Module's methods are safe
// to call concurrently as long as input buffers and message values are not
// mutated during a call.
package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kralicky/wiregen/defs"
)

// Module is a compiled codec for one schema. It is the in-memory form of
// the generated artifact: encode, decode, merge, verify, and schema
// introspection over every message type the schema defines.
type Module struct {
	schema    *defs.Schema
	codecs    map[string]*msgCodec
	verify    VerifyMode
	copyBytes CopyStrategy
}

// Option configures module compilation.
type Option func(*Module)

// WithVerifyMode selects when Encode verifies its input.
func WithVerifyMode(m VerifyMode) Option {
	return func(mod *Module) { mod.verify = m }
}

// WithCopyStrategy selects the bytes-copy strategy applied by Decode.
func WithCopyStrategy(c CopyStrategy) Option {
	return func(mod *Module) { mod.copyBytes = c }
}

// Compile builds the codec tables for a normalized, validated schema.
//
// Compile trusts the linker's validation; a schema that skipped validation
// may produce an error here, never a panic.
func Compile(schema *defs.Schema, opts ...Option) (*Module, error) {
	m := &Module{
		schema:    schema,
		codecs:    make(map[string]*msgCodec),
		copyBytes: CopyNever,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.copyBytes = m.copyBytes.resolve()

	// Two passes so message-typed fields can point at their target codec
	// even when the schema is cyclic.
	for _, md := range schema.Messages() {
		m.codecs[md.Name] = &msgCodec{def: md}
	}
	for _, mc := range m.codecs {
		if err := m.compileFields(mc); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MsgDefs returns the normalized schema this module was compiled from.
func (m *Module) MsgDefs() *defs.Schema { return m.schema }

// NewMessage creates an empty value of the named message type. The name
// may be given with or without the leading dot.
func (m *Module) NewMessage(name string) (*Message, error) {
	mc, err := m.codec(name)
	if err != nil {
		return nil, err
	}
	return NewMessage(mc.def), nil
}

func (m *Module) codec(name string) (*msgCodec, error) {
	if name == "" {
		return nil, fmt.Errorf("empty message name")
	}
	if name[0] != '.' {
		name = "." + name
	}
	mc, ok := m.codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown message type %q", name)
	}
	return mc, nil
}

// msgCodec is the compiled per-message table: fields in declaration order
// for encoding, and a wire-number index for decoding dispatch.
type msgCodec struct {
	def    *defs.Message
	fields []*fieldCodec
	byNum  map[int32]*fieldCodec
}

// fieldCodec precomputes everything needed to encode or decode one field:
// the tag bytes for its natural wire type, the length-delimited tag used
// by the packed encoding, and the resolved enum or message identity.
type fieldCodec struct {
	def  *defs.Field
	wire protowire.Type

	tag       []byte
	packedTag []byte

	enum *defs.Enum
	msg  *msgCodec
}

func (m *Module) compileFields(mc *msgCodec) error {
	mc.fields = make([]*fieldCodec, 0, len(mc.def.Fields))
	mc.byNum = make(map[int32]*fieldCodec, len(mc.def.Fields))
	for _, f := range mc.def.Fields {
		fc := &fieldCodec{
			def:  f,
			wire: f.Type.Kind.WireType(),
			tag:  protowire.AppendTag(nil, protowire.Number(f.Num), f.Type.Kind.WireType()),
		}
		if f.Packed {
			fc.packedTag = protowire.AppendTag(nil, protowire.Number(f.Num), protowire.BytesType)
		}
		switch f.Type.Kind {
		case defs.KindEnum:
			if f.Type.Enum == nil {
				return fmt.Errorf("%s.%s: unresolved enum reference %q", mc.def.Name, f.Name, f.Type.Ref)
			}
			fc.enum = f.Type.Enum
		case defs.KindMessage:
			if f.Type.Msg == nil {
				return fmt.Errorf("%s.%s: unresolved message reference %q", mc.def.Name, f.Name, f.Type.Ref)
			}
			sub, ok := m.codecs[f.Type.Msg.Name]
			if !ok {
				return fmt.Errorf("%s.%s: referenced message %q is not in the schema", mc.def.Name, f.Name, f.Type.Msg.Name)
			}
			fc.msg = sub
		case defs.KindRef, defs.KindInvalid:
			return fmt.Errorf("%s.%s: unresolved reference %q", mc.def.Name, f.Name, f.Type.Ref)
		}
		mc.fields = append(mc.fields, fc)
		mc.byNum[f.Num] = fc
	}
	return nil
}
