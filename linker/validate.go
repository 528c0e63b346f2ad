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
	"fmt"
	"strings"

	"github.com/kralicky/wiregen/defs"
)

// VerifyDefsError aggregates every schema invariant violation found during
// validation. Each reason names the definition and field it applies to.
type VerifyDefsError struct {
	Reasons []string
}

func (e *VerifyDefsError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Reasons, "; "))
}

// Validate checks the normalized schema against its invariants:
//
//   - field names and numbers are unique within a message, numbers positive
//   - every enum/message reference carries a resolved definition
//   - every default value is well-typed for its field
//   - rnum values are contiguous 1..N in declaration order
//   - packed appears only on repeated fields of packable scalar or enum type
//
// It returns a *VerifyDefsError describing every violation, or nil.
func Validate(schema *defs.Schema) error {
	var reasons []string
	bad := func(format string, args ...any) {
		reasons = append(reasons, fmt.Sprintf(format, args...))
	}

	for _, m := range schema.Messages() {
		names := make(map[string]bool, len(m.Fields))
		nums := make(map[int32]bool, len(m.Fields))
		for i, f := range m.Fields {
			at := m.Name + "." + f.Name
			if names[f.Name] {
				bad("%s: field name %q occurs more than once", m.Name, f.Name)
			}
			names[f.Name] = true
			if f.Num <= 0 {
				bad("%s: field number %d is not positive", at, f.Num)
			} else if nums[f.Num] {
				bad("%s: field number %d occurs more than once", at, f.Num)
			}
			nums[f.Num] = true

			if f.RNum != i+1 {
				bad("%s: rnum %d out of sequence, want %d", at, f.RNum, i+1)
			}

			switch f.Type.Kind {
			case defs.KindEnum:
				if f.Type.Enum == nil {
					bad("%s: enum reference %q is unresolved", at, f.Type.Ref)
				}
			case defs.KindMessage:
				if f.Type.Msg == nil {
					bad("%s: message reference %q is unresolved", at, f.Type.Ref)
				}
			case defs.KindRef, defs.KindInvalid:
				bad("%s: reference %q is unresolved", at, f.Type.Ref)
			}

			if f.Packed {
				if f.Cardinality != defs.Repeated {
					bad("%s: packed is only admissible on repeated fields", at)
				} else if !f.Type.Kind.IsPackable() {
					bad("%s: packed is not admissible on %s fields", at, f.Type)
				}
			}

			if f.HasDefault {
				if f.Cardinality == defs.Repeated {
					bad("%s: repeated fields cannot carry a default", at)
				} else if !defaultWellTyped(f.Type, f.Default) {
					bad("%s: default value %v is not a valid %s", at, f.Default, f.Type)
				}
			}
		}
	}

	if len(reasons) > 0 {
		return &VerifyDefsError{Reasons: reasons}
	}
	return nil
}

// defaultWellTyped reports whether v is the canonical in-memory
// representation for the given type, as established by option
// normalization.
func defaultWellTyped(t defs.Type, v any) bool {
	switch t.Kind {
	case defs.KindInt32, defs.KindSint32, defs.KindSfixed32:
		_, ok := v.(int32)
		return ok
	case defs.KindInt64, defs.KindSint64, defs.KindSfixed64:
		_, ok := v.(int64)
		return ok
	case defs.KindUint32, defs.KindFixed32:
		_, ok := v.(uint32)
		return ok
	case defs.KindUint64, defs.KindFixed64:
		_, ok := v.(uint64)
		return ok
	case defs.KindFloat:
		_, ok := v.(float32)
		return ok
	case defs.KindDouble:
		_, ok := v.(float64)
		return ok
	case defs.KindBool:
		_, ok := v.(bool)
		return ok
	case defs.KindString:
		_, ok := v.(string)
		return ok
	case defs.KindBytes:
		_, ok := v.([]byte)
		return ok
	case defs.KindEnum:
		sym, ok := v.(string)
		if !ok || t.Enum == nil {
			return false
		}
		_, declared := t.Enum.NumberBySymbol(sym)
		return declared
	default:
		return false
	}
}
