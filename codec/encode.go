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

package codec

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kralicky/wiregen/defs"
)

// EncodeOption configures a single Encode call.
type EncodeOption func(*encodeOptions)

type encodeOptions struct {
	verify bool
}

// WithVerify requests verification before encoding. It is honored only
// when the module was compiled with VerifyOptionally; VerifyAlways and
// VerifyNever override it.
func WithVerify(v bool) EncodeOption {
	return func(o *encodeOptions) { o.verify = v }
}

// Encode serializes the message into the proto2 wire format. Fields are
// emitted in declaration order; absent optional fields and empty repeated
// fields emit nothing.
func (m *Module) Encode(msg *Message, opts ...EncodeOption) ([]byte, error) {
	var eo encodeOptions
	for _, opt := range opts {
		opt(&eo)
	}
	if msg == nil {
		return nil, typeErrorf("", nil, "cannot encode an absent message")
	}
	mc, err := m.codec(msg.Name())
	if err != nil {
		return nil, err
	}
	if m.verify == VerifyAlways || (m.verify == VerifyOptionally && eo.verify) {
		if err := m.Verify(msg); err != nil {
			return nil, err
		}
	}
	return m.encodeMsg(nil, mc, msg, "")
}

func (m *Module) encodeMsg(buf []byte, mc *msgCodec, msg *Message, path string) ([]byte, error) {
	var err error
	for _, fc := range mc.fields {
		v := msg.fields[fc.def.RNum-1]
		fpath := joinPath(path, fc.def.Name)

		if fc.def.Cardinality == defs.Repeated {
			if v == nil {
				continue
			}
			list, ok := v.([]any)
			if !ok {
				return nil, typeErrorf(fpath, v, "repeated field value is not a list")
			}
			if len(list) == 0 {
				continue
			}
			if fc.def.Packed {
				buf, err = m.encodePacked(buf, fc, list, fpath)
			} else {
				for i, el := range list {
					buf = append(buf, fc.tag...)
					buf, err = m.encodeValue(buf, fc, el, indexPath(fpath, i))
					if err != nil {
						return nil, err
					}
				}
			}
			if err != nil {
				return nil, err
			}
			continue
		}

		if v == nil {
			if fc.def.Cardinality == defs.Required {
				return nil, typeErrorf(fpath, nil, "missing required field")
			}
			continue
		}
		buf = append(buf, fc.tag...)
		buf, err = m.encodeValue(buf, fc, v, fpath)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// encodePacked emits one length-delimited record holding all elements.
// For fixed-width elements the length is count x element size and the
// elements are appended directly; varint-sized elements go through a
// scratch buffer first.
func (m *Module) encodePacked(buf []byte, fc *fieldCodec, list []any, path string) ([]byte, error) {
	var err error
	if size := fc.def.Type.Kind.FixedSize(); size > 0 {
		buf = append(buf, fc.packedTag...)
		buf = protowire.AppendVarint(buf, uint64(len(list)*size))
		for i, el := range list {
			buf, err = m.encodeValue(buf, fc, el, indexPath(path, i))
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	}
	var scratch []byte
	for i, el := range list {
		scratch, err = m.encodeValue(scratch, fc, el, indexPath(path, i))
		if err != nil {
			return nil, err
		}
	}
	buf = append(buf, fc.packedTag...)
	return protowire.AppendBytes(buf, scratch), nil
}

// encodeValue appends the wire encoding of a single value, without its
// tag.
func (m *Module) encodeValue(buf []byte, fc *fieldCodec, v any, path string) ([]byte, error) {
	switch fc.def.Type.Kind {
	case defs.KindInt32:
		n, ok := asInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, typeErrorf(path, v, "not an int32")
		}
		// Negative values sign-extend to 64 bits and occupy ten bytes.
		return protowire.AppendVarint(buf, uint64(n)), nil
	case defs.KindInt64:
		n, ok := asInt64(v)
		if !ok {
			return nil, typeErrorf(path, v, "not an int64")
		}
		return protowire.AppendVarint(buf, uint64(n)), nil
	case defs.KindUint32:
		u, ok := asUint64(v)
		if !ok || u > math.MaxUint32 {
			return nil, typeErrorf(path, v, "not a uint32")
		}
		return protowire.AppendVarint(buf, u), nil
	case defs.KindUint64:
		u, ok := asUint64(v)
		if !ok {
			return nil, typeErrorf(path, v, "not a uint64")
		}
		return protowire.AppendVarint(buf, u), nil
	case defs.KindSint32:
		n, ok := asInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, typeErrorf(path, v, "not a sint32")
		}
		return protowire.AppendVarint(buf, protowire.EncodeZigZag(n)), nil
	case defs.KindSint64:
		n, ok := asInt64(v)
		if !ok {
			return nil, typeErrorf(path, v, "not a sint64")
		}
		return protowire.AppendVarint(buf, protowire.EncodeZigZag(n)), nil
	case defs.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, typeErrorf(path, v, "not a bool")
		}
		var u uint64
		if b {
			u = 1
		}
		return protowire.AppendVarint(buf, u), nil
	case defs.KindFixed32:
		u, ok := asUint64(v)
		if !ok || u > math.MaxUint32 {
			return nil, typeErrorf(path, v, "not a fixed32")
		}
		return protowire.AppendFixed32(buf, uint32(u)), nil
	case defs.KindSfixed32:
		n, ok := asInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, typeErrorf(path, v, "not an sfixed32")
		}
		return protowire.AppendFixed32(buf, uint32(int32(n))), nil
	case defs.KindFloat:
		f, ok := asFloat64(v)
		if !ok {
			return nil, typeErrorf(path, v, "not a float")
		}
		return protowire.AppendFixed32(buf, math.Float32bits(float32(f))), nil
	case defs.KindFixed64:
		u, ok := asUint64(v)
		if !ok {
			return nil, typeErrorf(path, v, "not a fixed64")
		}
		return protowire.AppendFixed64(buf, u), nil
	case defs.KindSfixed64:
		n, ok := asInt64(v)
		if !ok {
			return nil, typeErrorf(path, v, "not an sfixed64")
		}
		return protowire.AppendFixed64(buf, uint64(n)), nil
	case defs.KindDouble:
		f, ok := asFloat64(v)
		if !ok {
			return nil, typeErrorf(path, v, "not a double")
		}
		return protowire.AppendFixed64(buf, math.Float64bits(f)), nil
	case defs.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, typeErrorf(path, v, "not a string")
		}
		return protowire.AppendString(buf, s), nil
	case defs.KindBytes:
		switch b := v.(type) {
		case []byte:
			return protowire.AppendBytes(buf, b), nil
		case string:
			return protowire.AppendBytes(buf, []byte(b)), nil
		default:
			return nil, typeErrorf(path, v, "not a bytes value")
		}
	case defs.KindEnum:
		var num int32
		switch sym := v.(type) {
		case string:
			n, ok := fc.enum.NumberBySymbol(sym)
			if !ok {
				return nil, typeErrorf(path, v, "not a declared symbol of %s", fc.enum.Name)
			}
			num = n
		default:
			n, ok := asInt64(v)
			if !ok || n < math.MinInt32 || n > math.MaxInt32 {
				return nil, typeErrorf(path, v, "not an enum value of %s", fc.enum.Name)
			}
			num = int32(n)
		}
		// The wire form is the varint of the sign-extended number, so a
		// negative enum value occupies ten bytes.
		return protowire.AppendVarint(buf, uint64(int64(num))), nil
	case defs.KindMessage:
		sub, ok := v.(*Message)
		if !ok {
			return nil, typeErrorf(path, v, "not a %s message value", fc.msg.def.Name)
		}
		if sub.def.Name != fc.msg.def.Name {
			return nil, typeErrorf(path, v, "message value is a %s, want %s", sub.def.Name, fc.msg.def.Name)
		}
		scratch, err := m.encodeMsg(nil, fc.msg, sub, path)
		if err != nil {
			return nil, err
		}
		return protowire.AppendBytes(buf, scratch), nil
	default:
		return nil, typeErrorf(path, v, "unsupported field kind %s", fc.def.Type.Kind)
	}
}
