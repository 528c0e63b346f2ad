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
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kralicky/wiregen/defs"
)

// Decode parses the proto2 wire encoding of the named message type. The
// name may be given with or without the leading dot.
//
// Decoding follows proto2 merge-on-receive semantics: a singular scalar or
// enum occurrence overwrites (last wins), sub-message occurrences merge
// recursively, and repeated-field occurrences append in wire order. Packed
// and unpacked encodings of a repeated scalar field are accepted
// interchangeably, and fields may arrive in any order. Unknown field
// numbers are skipped by wire type.
func (m *Module) Decode(data []byte, msgName string) (*Message, error) {
	mc, err := m.codec(msgName)
	if err != nil {
		return nil, err
	}
	msg := NewMessage(mc.def)
	if err := m.decodeMsg(data, mc, msg, data); err != nil {
		return nil, err
	}
	return msg, nil
}

// decodeMsg runs the per-message state machine: read a tag, dispatch on
// field number (or skip by wire type), repeat until the buffer is
// exhausted. input is the whole top-level buffer, which the bytes-copy
// heuristic measures against.
func (m *Module) decodeMsg(data []byte, mc *msgCodec, msg *Message, input []byte) error {
	for len(data) > 0 {
		tag, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return ErrTruncated
		}
		data = data[n:]
		num, typ := protowire.DecodeTag(tag)
		if num <= 0 {
			return ErrMalformedWireType
		}

		fc := mc.byNum[int32(num)]
		switch {
		case fc == nil:
			n, err := skipValue(data, typ)
			if err != nil {
				return err
			}
			data = data[n:]
		case typ == protowire.BytesType && fc.wire != protowire.BytesType &&
			fc.def.Cardinality == defs.Repeated && fc.def.Type.Kind.IsPackable():
			block, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return ErrTruncated
			}
			data = data[n:]
			if err := m.decodePacked(block, fc, msg); err != nil {
				return err
			}
		case typ != fc.wire:
			// A known field number framed with an unexpected wire type is
			// treated like an unknown field.
			n, err := skipValue(data, typ)
			if err != nil {
				return err
			}
			data = data[n:]
		default:
			n, err := m.decodeField(data, fc, msg, input)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// decodeField reads one value for a known field and stores it into the
// message under merge-on-receive rules. It returns the number of bytes
// consumed.
func (m *Module) decodeField(data []byte, fc *fieldCodec, msg *Message, input []byte) (int, error) {
	slot := fc.def.RNum - 1

	if fc.def.Type.Kind == defs.KindMessage {
		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return 0, ErrTruncated
		}
		if fc.def.Cardinality == defs.Repeated {
			sub := NewMessage(fc.msg.def)
			if err := m.decodeMsg(raw, fc.msg, sub, input); err != nil {
				return 0, err
			}
			msg.fields[slot] = appendElem(msg.fields[slot], sub)
			return n, nil
		}
		// Singular sub-message occurrences merge rather than overwrite:
		// decoding into the existing value applies exactly the merge rules.
		sub, _ := msg.fields[slot].(*Message)
		if sub == nil {
			sub = NewMessage(fc.msg.def)
		}
		if err := m.decodeMsg(raw, fc.msg, sub, input); err != nil {
			return 0, err
		}
		msg.fields[slot] = sub
		return n, nil
	}

	v, n, err := m.readScalar(data, fc, input)
	if err != nil {
		return 0, err
	}
	if fc.def.Cardinality == defs.Repeated {
		msg.fields[slot] = appendElem(msg.fields[slot], v)
	} else {
		msg.fields[slot] = v
	}
	return n, nil
}

// decodePacked appends every element of a packed block in order.
func (m *Module) decodePacked(block []byte, fc *fieldCodec, msg *Message) error {
	slot := fc.def.RNum - 1
	acc, _ := msg.fields[slot].([]any)
	for len(block) > 0 {
		v, n, err := m.readScalar(block, fc, nil)
		if err != nil {
			return err
		}
		block = block[n:]
		acc = append(acc, v)
	}
	msg.fields[slot] = acc
	return nil
}

// readScalar reads a single non-message value, inverting the encoder
// exactly. input is the whole top-level buffer (nil inside packed blocks,
// which never hold bytes values).
func (m *Module) readScalar(data []byte, fc *fieldCodec, input []byte) (any, int, error) {
	switch fc.def.Type.Kind {
	case defs.KindInt32:
		u, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return int32(u), n, nil
	case defs.KindInt64:
		u, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return int64(u), n, nil
	case defs.KindUint32:
		u, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return uint32(u), n, nil
	case defs.KindUint64:
		u, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return u, n, nil
	case defs.KindSint32:
		u, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return int32(protowire.DecodeZigZag(u & math.MaxUint32)), n, nil
	case defs.KindSint64:
		u, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return protowire.DecodeZigZag(u), n, nil
	case defs.KindBool:
		u, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return u != 0, n, nil
	case defs.KindEnum:
		u, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		num := int32(u)
		if sym := fc.enum.SymbolByNumber(num); sym != "" {
			return sym, n, nil
		}
		return num, n, nil
	case defs.KindFixed32:
		u, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return u, n, nil
	case defs.KindSfixed32:
		u, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return int32(u), n, nil
	case defs.KindFloat:
		u, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return math.Float32frombits(u), n, nil
	case defs.KindFixed64:
		u, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return u, n, nil
	case defs.KindSfixed64:
		u, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return int64(u), n, nil
	case defs.KindDouble:
		u, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return math.Float64frombits(u), n, nil
	case defs.KindString:
		b, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		return string(b), n, nil
	case defs.KindBytes:
		b, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, 0, ErrTruncated
		}
		if m.copyBytes.shouldCopy(input, b) {
			b = slices.Clone(b)
		}
		return b, n, nil
	default:
		return nil, 0, ErrMalformedWireType
	}
}

// skipValue is the per-wire-type skipper for unknown fields. It returns
// the number of bytes the value occupies.
func skipValue(data []byte, typ protowire.Type) (int, error) {
	var n int
	switch typ {
	case protowire.VarintType:
		_, n = protowire.ConsumeVarint(data)
	case protowire.Fixed32Type:
		_, n = protowire.ConsumeFixed32(data)
	case protowire.Fixed64Type:
		_, n = protowire.ConsumeFixed64(data)
	case protowire.BytesType:
		_, n = protowire.ConsumeBytes(data)
	default:
		return 0, ErrMalformedWireType
	}
	if n < 0 {
		return 0, ErrTruncated
	}
	return n, nil
}

func appendElem(slot any, v any) []any {
	acc, _ := slot.([]any)
	return append(acc, v)
}
