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

	"github.com/kralicky/wiregen/defs"
)

// Message is a dynamic message value. Field slots are held positionally,
// indexed by the field's dense ordinal (rnum), with nil as the "absent"
// sentinel for singular fields.
//
// Slot values use the canonical in-memory representation: int32/int64/
// uint32/uint64/bool/float32/float64/string/[]byte for scalars, the
// declared symbol (string) for enum values — an unrecognized number
// decodes to its int32 value — *Message for sub-messages, and []any for
// repeated fields.
type Message struct {
	def    *defs.Message
	fields []any
}

// NewMessage creates an empty value of the given message definition.
func NewMessage(def *defs.Message) *Message {
	return &Message{def: def, fields: make([]any, len(def.Fields))}
}

// Name returns the fully-qualified message name.
func (m *Message) Name() string { return m.def.Name }

// Def returns the message definition this value belongs to.
func (m *Message) Def() *defs.Message { return m.def }

// Get returns the value of the named field, or nil if the field is absent.
// It panics if the message has no such field.
func (m *Message) Get(name string) any {
	return m.fields[m.rnum(name)-1]
}

// Set assigns the named field and returns the message, so calls chain when
// building test fixtures. It panics if the message has no such field.
func (m *Message) Set(name string, v any) *Message {
	m.fields[m.rnum(name)-1] = v
	return m
}

// Has reports whether the named field is present.
func (m *Message) Has(name string) bool {
	return m.Get(name) != nil
}

// Clear resets the named field to absent.
func (m *Message) Clear(name string) {
	m.fields[m.rnum(name)-1] = nil
}

// At returns the field value at the given dense ordinal (1-based).
func (m *Message) At(rnum int) any {
	return m.fields[rnum-1]
}

// SetAt assigns the field slot at the given dense ordinal (1-based).
func (m *Message) SetAt(rnum int, v any) {
	m.fields[rnum-1] = v
}

func (m *Message) rnum(name string) int {
	f := m.def.FieldByName(name)
	if f == nil {
		panic(fmt.Sprintf("message %s has no field %q", m.def.Name, name))
	}
	return f.RNum
}

func (m *Message) String() string {
	return fmt.Sprintf("%s%v", m.def.Name, m.fields)
}
