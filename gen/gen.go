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

// Package gen renders the generated-source artifact for a compiled
// schema: a Go file that embeds the normalized definitions and
// reconstructs the wire codec. Rendering is deterministic; the same
// schema and configuration produce byte-identical output.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"math"
	"strconv"
	"strings"

	"github.com/kralicky/wiregen/codec"
	"github.com/kralicky/wiregen/defs"
)

// Config selects what the rendered artifact contains.
type Config struct {
	// Name is the artifact name; it becomes the package name after
	// sanitization.
	Name string
	// TypeSpecs adds typed struct mirrors of the message shapes.
	TypeSpecs bool
	// Verify and CopyBytes are baked into the artifact's constructor.
	Verify    codec.VerifyMode
	CopyBytes codec.CopyStrategy
}

// Render produces the artifact source for a normalized schema.
func Render(schema *defs.Schema, cfg Config) ([]byte, error) {
	g := &printer{}
	g.p("// Code generated by wiregen. DO NOT EDIT.")
	g.p("//")
	g.p("// source schema: ", schema.Name)
	g.p()
	g.p("package ", packageName(cfg.Name))
	g.p()
	g.p("import (")
	if needsMath(schema) {
		g.p(`"math"`)
		g.p()
	}
	g.p(`"github.com/kralicky/wiregen/codec"`)
	g.p(`"github.com/kralicky/wiregen/defs"`)
	g.p(")")
	g.p()

	g.renderSchema(schema)
	g.renderNew(cfg)
	if cfg.TypeSpecs {
		g.renderTypeSpecs(schema)
	}

	src, err := format.Source(g.buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("rendered source does not parse: %w", err)
	}
	return src, nil
}

type printer struct {
	buf bytes.Buffer
}

func (g *printer) p(args ...any) {
	for _, a := range args {
		fmt.Fprint(&g.buf, a)
	}
	g.buf.WriteByte('\n')
}

// renderSchema emits MsgDefs: definitions are declared first so that
// message-typed fields can carry their resolved identities even when the
// schema is cyclic, then fields are attached.
func (g *printer) renderSchema(schema *defs.Schema) {
	g.p("// MsgDefs returns the normalized message definitions this artifact")
	g.p("// was generated from.")
	g.p("func MsgDefs() *defs.Schema {")
	names := make(map[string]string, len(schema.Defs))
	for i, d := range schema.Defs {
		switch d := d.(type) {
		case *defs.Enum:
			v := "enum" + strconv.Itoa(i)
			names[d.Name] = v
			g.p(v, " := &defs.Enum{Name: ", strconv.Quote(d.Name), ", Values: []defs.EnumValue{")
			for _, ev := range d.Values {
				g.p("{Symbol: ", strconv.Quote(ev.Symbol), ", Number: ", ev.Number, "},")
			}
			g.p("}}")
		case *defs.Message:
			v := "msg" + strconv.Itoa(i)
			names[d.Name] = v
			g.p(v, " := &defs.Message{Name: ", strconv.Quote(d.Name), "}")
		}
	}
	for _, d := range schema.Defs {
		m, ok := d.(*defs.Message)
		if !ok {
			continue
		}
		g.p(names[m.Name], ".Fields = []*defs.Field{")
		for _, f := range m.Fields {
			g.renderField(f, names)
		}
		g.p("}")
	}
	g.p("return &defs.Schema{")
	g.p("Name: ", strconv.Quote(schema.Name), ",")
	g.p("Defs: []defs.Def{")
	for _, d := range schema.Defs {
		g.p(names[d.DefName()], ",")
	}
	g.p("},")
	if schema.Cyclic {
		g.p("Cyclic: true,")
	}
	g.p("}")
	g.p("}")
	g.p()
}

func (g *printer) renderField(f *defs.Field, names map[string]string) {
	var b strings.Builder
	fmt.Fprintf(&b, "{Name: %q, Num: %d, RNum: %d, Type: %s, Cardinality: defs.%s",
		f.Name, f.Num, f.RNum, typeExpr(f.Type, names), cardinalityName(f.Cardinality))
	if f.Packed {
		b.WriteString(", Packed: true")
	}
	if f.HasDefault {
		fmt.Fprintf(&b, ", Default: %s, HasDefault: true", goLiteral(f.Default))
	}
	b.WriteString("},")
	g.p(b.String())
}

func (g *printer) renderNew(cfg Config) {
	g.p("// New compiles the wire codec for this schema.")
	g.p("func New() (*codec.Module, error) {")
	g.p("return codec.Compile(MsgDefs(),")
	g.p("codec.WithVerifyMode(", verifyExpr(cfg.Verify), "),")
	g.p("codec.WithCopyStrategy(", copyExpr(cfg.CopyBytes), "),")
	g.p(")")
	g.p("}")
	g.p()
}

// renderTypeSpecs emits struct mirrors of the message shapes. They
// document the schema for artifact consumers; the codec itself operates
// on dynamic values.
func (g *printer) renderTypeSpecs(schema *defs.Schema) {
	for _, m := range schema.Messages() {
		g.p("// ", goTypeName(m.Name), " mirrors message ", m.Name, ".")
		g.p("type ", goTypeName(m.Name), " struct {")
		for _, f := range m.Fields {
			g.p(goFieldName(f.Name), " ", goFieldType(f))
		}
		g.p("}")
		g.p()
	}
}

// needsMath reports whether any default value requires the math package
// (non-finite floats render through bit patterns).
func needsMath(schema *defs.Schema) bool {
	for _, m := range schema.Messages() {
		for _, f := range m.Fields {
			if !f.HasDefault {
				continue
			}
			switch v := f.Default.(type) {
			case float32:
				if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
					return true
				}
			case float64:
				if math.IsInf(v, 0) || math.IsNaN(v) {
					return true
				}
			}
		}
	}
	return false
}

func typeExpr(t defs.Type, names map[string]string) string {
	switch t.Kind {
	case defs.KindEnum:
		return fmt.Sprintf("defs.Type{Kind: defs.KindEnum, Ref: %q, Enum: %s}", t.Ref, names[t.Ref])
	case defs.KindMessage:
		return fmt.Sprintf("defs.Type{Kind: defs.KindMessage, Ref: %q, Msg: %s}", t.Ref, names[t.Ref])
	default:
		return fmt.Sprintf("defs.Scalar(defs.Kind%s)", kindIdent(t.Kind))
	}
}

func kindIdent(k defs.Kind) string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

func cardinalityName(c defs.Cardinality) string {
	switch c {
	case defs.Required:
		return "Required"
	case defs.Repeated:
		return "Repeated"
	default:
		return "Optional"
	}
}

func verifyExpr(m codec.VerifyMode) string {
	switch m {
	case codec.VerifyAlways:
		return "codec.VerifyAlways"
	case codec.VerifyNever:
		return "codec.VerifyNever"
	default:
		return "codec.VerifyOptionally"
	}
}

func copyExpr(c codec.CopyStrategy) string {
	if n, ok := c.Threshold(); ok {
		return fmt.Sprintf("codec.CopyThreshold(%d)", n)
	}
	switch c {
	case codec.CopyAlways, codec.CopyAuto:
		return "codec.CopyAlways"
	default:
		return "codec.CopyNever"
	}
}

// goLiteral renders a default value as a Go expression of its canonical
// type, so the value survives assignment into an untyped field slot.
func goLiteral(v any) string {
	switch v := v.(type) {
	case int32:
		return fmt.Sprintf("int32(%d)", v)
	case int64:
		return fmt.Sprintf("int64(%d)", v)
	case uint32:
		return fmt.Sprintf("uint32(%d)", v)
	case uint64:
		return fmt.Sprintf("uint64(%d)", v)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return strconv.Quote(v)
	case []byte:
		return fmt.Sprintf("[]byte(%q)", string(v))
	case float32:
		f := float64(v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Sprintf("math.Float32frombits(0x%x)", math.Float32bits(v))
		}
		return fmt.Sprintf("float32(%s)", strconv.FormatFloat(f, 'g', -1, 32))
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Sprintf("math.Float64frombits(0x%x)", math.Float64bits(v))
		}
		return fmt.Sprintf("float64(%s)", strconv.FormatFloat(v, 'g', -1, 64))
	default:
		return fmt.Sprintf("%#v", v)
	}
}

// packageName sanitizes an artifact name into a Go package identifier.
func packageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		s = "pb" + s
	}
	return s
}

// goTypeName mangles a fully-qualified message name into an exported Go
// identifier: ".Person.PhoneNumber" becomes "Person_PhoneNumber".
func goTypeName(fqn string) string {
	parts := strings.Split(strings.TrimPrefix(fqn, "."), ".")
	for i, p := range parts {
		parts[i] = exportIdent(p)
	}
	return strings.Join(parts, "_")
}

// goFieldName converts a schema field name to an exported Go field name:
// "phone_number" becomes "PhoneNumber".
func goFieldName(name string) string {
	var b strings.Builder
	up := true
	for _, r := range name {
		if r == '_' {
			up = true
			continue
		}
		if up {
			b.WriteString(strings.ToUpper(string(r)))
			up = false
		} else {
			b.WriteRune(r)
		}
	}
	return exportIdent(b.String())
}

func exportIdent(s string) string {
	if s == "" {
		return "X"
	}
	if s[0] >= '0' && s[0] <= '9' {
		return "X" + s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func goFieldType(f *defs.Field) string {
	base := goScalarType(f.Type)
	switch f.Cardinality {
	case defs.Repeated:
		return "[]" + base
	default:
		if f.Type.Kind == defs.KindBytes || f.Type.Kind == defs.KindMessage {
			return base
		}
		return "*" + base
	}
}

func goScalarType(t defs.Type) string {
	switch t.Kind {
	case defs.KindInt32, defs.KindSint32, defs.KindSfixed32:
		return "int32"
	case defs.KindInt64, defs.KindSint64, defs.KindSfixed64:
		return "int64"
	case defs.KindUint32, defs.KindFixed32:
		return "uint32"
	case defs.KindUint64, defs.KindFixed64:
		return "uint64"
	case defs.KindBool:
		return "bool"
	case defs.KindFloat:
		return "float32"
	case defs.KindDouble:
		return "float64"
	case defs.KindString:
		return "string"
	case defs.KindBytes:
		return "[]byte"
	case defs.KindEnum:
		return "string"
	case defs.KindMessage:
		return "*" + goTypeName(t.Ref)
	default:
		return "any"
	}
}
