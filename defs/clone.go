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

import "slices"

// Clone returns a deep copy of the given definitions. The linker clones its
// input so that callers' raw definitions are never mutated.
func Clone(in []Def) []Def {
	out := make([]Def, len(in))
	for i, d := range in {
		out[i] = cloneDef(d)
	}
	return out
}

func cloneDef(d Def) Def {
	switch d := d.(type) {
	case *Enum:
		return &Enum{Name: d.Name, Values: slices.Clone(d.Values)}
	case *Message:
		return &Message{
			Name:   d.Name,
			Fields: cloneFields(d.Fields),
			Nested: Clone(d.Nested),
		}
	case *Extend:
		return &Extend{Target: d.Target, Fields: cloneFields(d.Fields)}
	default:
		return d
	}
}

func cloneFields(in []*Field) []*Field {
	out := make([]*Field, len(in))
	for i, f := range in {
		c := *f
		c.RawOptions = slices.Clone(f.RawOptions)
		out[i] = &c
	}
	return out
}
