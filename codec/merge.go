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
	"fmt"
	"slices"

	"github.com/kralicky/wiregen/defs"
)

// Merge combines two values of the same message type under proto2 merge
// rules: scalar and enum fields take next's value when set, sub-message
// fields merge recursively, repeated fields concatenate prev then next.
// Either argument may be nil, in which case the other is returned as-is.
//
// When both are present, the result is a fresh message whose field values may share sub-messages
// and slices with the inputs; callers that mutate the result should treat
// the inputs as consumed.
func (m *Module) Merge(prev, next *Message) (*Message, error) {
	switch {
	case prev == nil:
		return next, nil
	case next == nil:
		return prev, nil
	}
	if prev.def.Name != next.def.Name {
		return nil, fmt.Errorf("cannot merge %s with %s", prev.def.Name, next.def.Name)
	}
	mc, err := m.codec(prev.def.Name)
	if err != nil {
		return nil, err
	}
	return m.mergeMsg(mc, prev, next), nil
}

func (m *Module) mergeMsg(mc *msgCodec, prev, next *Message) *Message {
	out := NewMessage(mc.def)
	for _, fc := range mc.fields {
		slot := fc.def.RNum - 1
		p, n := prev.fields[slot], next.fields[slot]

		switch {
		case fc.def.Cardinality == defs.Repeated:
			pl, _ := p.([]any)
			nl, _ := n.([]any)
			if len(pl)+len(nl) > 0 {
				out.fields[slot] = slices.Concat(pl, nl)
			}
		case fc.def.Type.Kind == defs.KindMessage:
			pm, _ := p.(*Message)
			nm, _ := n.(*Message)
			switch {
			case pm == nil:
				out.fields[slot] = n
			case nm == nil:
				out.fields[slot] = p
			default:
				out.fields[slot] = m.mergeMsg(fc.msg, pm, nm)
			}
		default:
			if n != nil {
				out.fields[slot] = n
			} else {
				out.fields[slot] = p
			}
		}
	}
	return out
}
