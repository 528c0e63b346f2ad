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

// Package linker normalizes raw schema definitions into the validated,
// canonically ordered form consumed by codec compilation: it qualifies all
// names, flattens nested definitions, resolves type references, folds
// extend blocks into their targets, assigns dense field ordinals,
// normalizes field options, validates the schema invariants, and reorders
// message definitions topologically.
package linker

import (
	"github.com/kralicky/wiregen/defs"
	"github.com/kralicky/wiregen/reporter"
)

// Link normalizes the given raw definitions into a schema named name.
//
// The input definitions are not mutated; the returned schema holds a deep
// copy. Errors are reported through the handler; if any are reported, Link
// returns a non-nil error (the handler's abort error, reporter.ErrInvalidSchema,
// or a *VerifyDefsError from invariant validation).
func Link(name string, raw []defs.Def, handler *reporter.Handler) (*defs.Schema, error) {
	l := &linker{
		name:    name,
		handler: handler,
		symbols: NewSymbolTable(),
		scopes:  make(map[*defs.Field]string),
	}

	ds := defs.Clone(raw)

	ds = l.qualifyAndFlatten(ds)
	if err := handler.Err(); err != nil {
		return nil, err
	}
	l.resolveReferences(ds)
	if err := handler.Err(); err != nil {
		return nil, err
	}
	ds, err := l.applyExtends(ds)
	if err != nil {
		return nil, err
	}
	assignRNums(ds)
	l.normalizeOptions(ds)
	if err := handler.Err(); err != nil {
		return nil, err
	}

	schema := &defs.Schema{Name: name, Defs: ds}
	if err := Validate(schema); err != nil {
		return nil, err
	}
	sortTopological(schema)
	return schema, nil
}

type linker struct {
	name    string
	handler *reporter.Handler
	symbols *Symbols

	// scopes records, for every field, the fully-qualified name of its
	// declaring scope, so references can be resolved innermost-first after
	// flattening has discarded the nesting.
	scopes map[*defs.Field]string

	// extendScopes records the declaring scope of each extend block.
	extendScopes map[*defs.Extend]string
}

func (l *linker) span(symbol string) reporter.Span {
	return reporter.Span{File: l.name, Symbol: symbol}
}

// qualifyAndFlatten assigns fully-qualified names to every definition,
// hoists nested definitions to top level, and populates the symbol table.
// The returned list preserves a stable order: each definition precedes the
// definitions nested within it.
func (l *linker) qualifyAndFlatten(ds []defs.Def) []defs.Def {
	l.extendScopes = make(map[*defs.Extend]string)
	var flat []defs.Def
	for _, d := range ds {
		flat = l.hoist(flat, d, "")
	}
	return flat
}

func (l *linker) hoist(flat []defs.Def, d defs.Def, scope string) []defs.Def {
	switch d := d.(type) {
	case *defs.Enum:
		d.Name = scope + "." + d.Name
		_ = l.symbols.Import(d, l.span(d.Name), l.handler)
		flat = append(flat, d)
	case *defs.Message:
		d.Name = scope + "." + d.Name
		_ = l.symbols.Import(d, l.span(d.Name), l.handler)
		for _, f := range d.Fields {
			l.scopes[f] = d.Name
		}
		flat = append(flat, d)
		nested := d.Nested
		d.Nested = nil
		for _, n := range nested {
			flat = l.hoist(flat, n, d.Name)
		}
	case *defs.Extend:
		l.extendScopes[d] = scope
		for _, f := range d.Fields {
			l.scopes[f] = scope
		}
		flat = append(flat, d)
	}
	return flat
}

// resolveReferences rewrites every field type reference to its
// fully-qualified name and attaches the resolved definition's identity.
func (l *linker) resolveReferences(ds []defs.Def) {
	for _, d := range ds {
		switch d := d.(type) {
		case *defs.Message:
			for _, f := range d.Fields {
				l.resolveField(d.Name, f)
			}
		case *defs.Extend:
			for _, f := range d.Fields {
				l.resolveField(l.extendScopes[d]+" (extend "+d.Target+")", f)
			}
		}
	}
}

func (l *linker) resolveField(where string, f *defs.Field) {
	t := &f.Type
	switch t.Kind {
	case defs.KindRef, defs.KindEnum, defs.KindMessage:
	default:
		return
	}
	target := l.symbols.Resolve(l.scopes[f], t.Ref)
	if target == nil {
		_ = l.handler.HandleErrorf(l.span(where+"."+f.Name),
			"reference %q does not resolve to any definition", t.Ref)
		return
	}
	switch target := target.(type) {
	case *defs.Enum:
		if t.Kind == defs.KindMessage {
			_ = l.handler.HandleErrorf(l.span(where+"."+f.Name),
				"reference %q resolves to an enum, expected a message", t.Ref)
			return
		}
		t.Kind = defs.KindEnum
		t.Ref = target.Name
		t.Enum = target
	case *defs.Message:
		if t.Kind == defs.KindEnum {
			_ = l.handler.HandleErrorf(l.span(where+"."+f.Name),
				"reference %q resolves to a message, expected an enum", t.Ref)
			return
		}
		t.Kind = defs.KindMessage
		t.Ref = target.Name
		t.Msg = target
	default:
		_ = l.handler.HandleErrorf(l.span(where+"."+f.Name),
			"reference %q does not name a type", t.Ref)
	}
}

// applyExtends appends each extend block's fields to its target message
// and drops the blocks from the definition list.
func (l *linker) applyExtends(ds []defs.Def) ([]defs.Def, error) {
	out := ds[:0]
	for _, d := range ds {
		ext, ok := d.(*defs.Extend)
		if !ok {
			out = append(out, d)
			continue
		}
		target := l.symbols.Resolve(l.extendScopes[ext], ext.Target)
		msg, isMsg := target.(*defs.Message)
		if target == nil || !isMsg {
			if err := l.handler.HandleErrorf(l.span(ext.Target),
				"extend target %q does not resolve to a message", ext.Target); err != nil {
				return nil, err
			}
			continue
		}
		msg.Fields = append(msg.Fields, ext.Fields...)
	}
	if err := l.handler.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// assignRNums gives every field its dense ordinal, 1..N in declaration
// order, extensions after declared fields.
func assignRNums(ds []defs.Def) {
	for _, d := range ds {
		if m, ok := d.(*defs.Message); ok {
			for i, f := range m.Fields {
				f.RNum = i + 1
			}
		}
	}
}

// normalizeOptions canonicalizes each field's option list: duplicates
// collapse last-wins, "packed" and "default" move onto the field, and any
// other options are dropped. Default values are coerced to the field's
// canonical representation where the value admits it; ill-typed defaults
// are left as-is for validation to reject.
func (l *linker) normalizeOptions(ds []defs.Def) {
	for _, d := range ds {
		m, ok := d.(*defs.Message)
		if !ok {
			continue
		}
		for _, f := range m.Fields {
			for _, opt := range f.RawOptions {
				switch opt.Name {
				case "packed":
					switch v := opt.Value.(type) {
					case nil:
						f.Packed = true
					case bool:
						f.Packed = v
					}
				case "default":
					f.Default = opt.Value
					f.HasDefault = true
				}
			}
			if f.HasDefault {
				if v, ok := coerceDefault(f.Type, f.Default); ok {
					f.Default = v
				}
			}
			f.RawOptions = nil
		}
	}
}

// coerceDefault converts a parsed default value to the canonical in-memory
// representation for the field type, when the value admits the conversion.
// Integer conversions are range-checked; float fields narrow float64 and
// integer defaults to float32, which may round.
func coerceDefault(t defs.Type, v any) (any, bool) {
	asInt := func() (int64, bool) {
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int32:
			return int64(n), true
		case int64:
			return n, true
		case uint64:
			if n <= 1<<63-1 {
				return int64(n), true
			}
		}
		return 0, false
	}
	switch t.Kind {
	case defs.KindInt32, defs.KindSint32, defs.KindSfixed32:
		if n, ok := asInt(); ok && n >= -1<<31 && n <= 1<<31-1 {
			return int32(n), true
		}
	case defs.KindInt64, defs.KindSint64, defs.KindSfixed64:
		if n, ok := asInt(); ok {
			return n, true
		}
	case defs.KindUint32, defs.KindFixed32:
		if n, ok := asInt(); ok && n >= 0 && n <= 1<<32-1 {
			return uint32(n), true
		}
	case defs.KindUint64, defs.KindFixed64:
		switch n := v.(type) {
		case uint64:
			return n, true
		case uint32:
			return uint64(n), true
		default:
			if n, ok := asInt(); ok && n >= 0 {
				return uint64(n), true
			}
		}
	case defs.KindFloat:
		switch n := v.(type) {
		case float64:
			return float32(n), true
		case float32:
			return n, true
		default:
			if n, ok := asInt(); ok {
				return float32(n), true
			}
		}
	case defs.KindDouble:
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		default:
			if n, ok := asInt(); ok {
				return float64(n), true
			}
		}
	case defs.KindString:
		if s, ok := v.(string); ok {
			return s, true
		}
	case defs.KindBytes:
		switch b := v.(type) {
		case []byte:
			return b, true
		case string:
			return []byte(b), true
		}
	case defs.KindBool:
		if b, ok := v.(bool); ok {
			return b, true
		}
	case defs.KindEnum:
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return nil, false
}
