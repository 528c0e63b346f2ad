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

package linker

import (
	"iter"

	"github.com/kralicky/wiregen/defs"
	"github.com/kralicky/wiregen/internal/scc"
)

// sortTopological reorders the schema's message definitions so that every
// message precedes the messages that refer to it (leaves first). Enum
// definitions keep their relative order and precede all messages. If the
// message reference graph is cyclic, the original order is left intact and
// Schema.Cyclic is set.
func sortTopological(schema *defs.Schema) {
	msgs := schema.Messages()
	if len(msgs) == 0 {
		return
	}

	graph := scc.Graph[*defs.Message](func(m *defs.Message) iter.Seq[*defs.Message] {
		return func(yield func(*defs.Message) bool) {
			for _, f := range m.Fields {
				if f.Type.Kind == defs.KindMessage && f.Type.Msg != nil {
					if !yield(f.Type.Msg) {
						return
					}
				}
			}
		}
	})

	dag := scc.Sort(msgs, graph)
	if dag.Cyclic() {
		schema.Cyclic = true
		return
	}

	ordered := make([]defs.Def, 0, len(schema.Defs))
	for _, d := range schema.Defs {
		if _, ok := d.(*defs.Enum); ok {
			ordered = append(ordered, d)
		}
	}
	for component := range dag.Topological() {
		for _, m := range component.Members() {
			ordered = append(ordered, m)
		}
	}
	schema.Defs = ordered
}
