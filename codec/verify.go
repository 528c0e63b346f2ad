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
	"unicode/utf8"

	"github.com/kralicky/wiregen/defs"
)

// Verify walks the message value and reports the first type or range
// violation as a *TypeError whose path names the offending field chain
// from the root. A value that verifies cleanly always encodes.
//
// Verify is available and active regardless of the module's VerifyMode;
// the mode only controls whether Encode calls it implicitly.
func (m *Module) Verify(msg *Message) error {
	if msg == nil {
		return typeErrorf("", nil, "absent message")
	}
	mc, err := m.codec(msg.Name())
	if err != nil {
		return typeErrorf("", msg, "%v", err)
	}
	return m.verifyMsg(mc, msg, "")
}

func (m *Module) verifyMsg(mc *msgCodec, msg *Message, path string) error {
	if msg.def.Name != mc.def.Name {
		return typeErrorf(path, msg, "message value is a %s, want %s", msg.def.Name, mc.def.Name)
	}
	for _, fc := range mc.fields {
		v := msg.fields[fc.def.RNum-1]
		fpath := joinPath(path, fc.def.Name)

		if fc.def.Cardinality == defs.Repeated {
			if v == nil {
				continue
			}
			list, ok := v.([]any)
			if !ok {
				return typeErrorf(fpath, v, "repeated field value is not a list")
			}
			for i, el := range list {
				if err := m.verifyValue(fc, el, indexPath(fpath, i)); err != nil {
					return err
				}
			}
			continue
		}

		if v == nil {
			if fc.def.Cardinality == defs.Required {
				return typeErrorf(fpath, nil, "missing required field")
			}
			continue
		}
		if err := m.verifyValue(fc, v, fpath); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) verifyValue(fc *fieldCodec, v any, path string) error {
	switch fc.def.Type.Kind {
	case defs.KindInt32, defs.KindSint32, defs.KindSfixed32:
		n, ok := asInt64(v)
		if !ok {
			return typeErrorf(path, v, "not an integer")
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return typeErrorf(path, v, "out of range for %s", fc.def.Type)
		}
	case defs.KindInt64, defs.KindSint64, defs.KindSfixed64:
		if _, ok := asInt64(v); !ok {
			return typeErrorf(path, v, "not an integer")
		}
	case defs.KindUint32, defs.KindFixed32:
		u, ok := asUint64(v)
		if !ok {
			return typeErrorf(path, v, "not an unsigned integer")
		}
		if u > math.MaxUint32 {
			return typeErrorf(path, v, "out of range for %s", fc.def.Type)
		}
	case defs.KindUint64, defs.KindFixed64:
		if _, ok := asUint64(v); !ok {
			return typeErrorf(path, v, "not an unsigned integer")
		}
	case defs.KindFloat, defs.KindDouble:
		if _, ok := asFloat64(v); !ok {
			return typeErrorf(path, v, "not a number")
		}
	case defs.KindBool:
		if _, ok := v.(bool); !ok {
			return typeErrorf(path, v, "not a bool")
		}
	case defs.KindString:
		s, ok := v.(string)
		if !ok {
			return typeErrorf(path, v, "not a string")
		}
		if !utf8.ValidString(s) {
			return typeErrorf(path, v, "not valid UTF-8")
		}
	case defs.KindBytes:
		switch v.(type) {
		case []byte, string:
		default:
			return typeErrorf(path, v, "not a bytes value")
		}
	case defs.KindEnum:
		sym, ok := v.(string)
		if !ok {
			return typeErrorf(path, v, "not a declared symbol of %s", fc.enum.Name)
		}
		if _, declared := fc.enum.NumberBySymbol(sym); !declared {
			return typeErrorf(path, v, "not a declared symbol of %s", fc.enum.Name)
		}
	case defs.KindMessage:
		sub, ok := v.(*Message)
		if !ok {
			return typeErrorf(path, v, "not a %s message value", fc.msg.def.Name)
		}
		return m.verifyMsg(fc.msg, sub, path)
	default:
		return typeErrorf(path, v, "unsupported field kind %s", fc.def.Type.Kind)
	}
	return nil
}
