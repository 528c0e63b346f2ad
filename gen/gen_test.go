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

package gen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kralicky/wiregen/codec"
	"github.com/kralicky/wiregen/defs"
	"github.com/kralicky/wiregen/gen"
	"github.com/kralicky/wiregen/linker"
	"github.com/kralicky/wiregen/reporter"
)

func testSchema(t *testing.T) *defs.Schema {
	t.Helper()
	schema, err := linker.Link("addressbook", []defs.Def{
		&defs.Message{
			Name: "Person",
			Fields: []*defs.Field{
				{Name: "name", Num: 1, Type: defs.Scalar(defs.KindString), Cardinality: defs.Required},
				{Name: "id", Num: 2, Type: defs.Scalar(defs.KindInt32), Cardinality: defs.Optional,
					RawOptions: []defs.Option{{Name: "default", Value: 7}}},
				{Name: "nums", Num: 3, Type: defs.Scalar(defs.KindSint32), Cardinality: defs.Repeated,
					RawOptions: []defs.Option{{Name: "packed"}}},
				{Name: "phone", Num: 4, Type: defs.Ref("PhoneNumber"), Cardinality: defs.Optional},
				{Name: "type", Num: 5, Type: defs.Ref("PhoneType"), Cardinality: defs.Optional},
			},
			Nested: []defs.Def{
				&defs.Message{Name: "PhoneNumber", Fields: []*defs.Field{
					{Name: "number", Num: 1, Type: defs.Scalar(defs.KindString), Cardinality: defs.Required},
				}},
				&defs.Enum{Name: "PhoneType", Values: []defs.EnumValue{
					{Symbol: "MOBILE", Number: 0},
					{Symbol: "HOME", Number: 1},
				}},
			},
		},
	}, reporter.NewHandler(nil))
	require.NoError(t, err)
	return schema
}

func TestRenderIsDeterministic(t *testing.T) {
	t.Parallel()

	schema := testSchema(t)
	cfg := gen.Config{Name: "addressbook", TypeSpecs: true}
	first, err := gen.Render(schema, cfg)
	require.NoError(t, err)
	second, err := gen.Render(schema, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderContents(t *testing.T) {
	t.Parallel()

	src, err := gen.Render(testSchema(t), gen.Config{
		Name:      "addressbook",
		TypeSpecs: true,
		Verify:    codec.VerifyAlways,
		CopyBytes: codec.CopyAlways,
	})
	require.NoError(t, err)
	text := string(src)

	assert.Contains(t, text, "// Code generated by wiregen. DO NOT EDIT.")
	assert.Contains(t, text, "package addressbook")
	assert.Contains(t, text, "func MsgDefs() *defs.Schema")
	assert.Contains(t, text, "func New() (*codec.Module, error)")
	assert.Contains(t, text, "codec.WithVerifyMode(codec.VerifyAlways)")
	assert.Contains(t, text, "codec.WithCopyStrategy(codec.CopyAlways)")

	// The schema literal carries resolved references and normalized
	// options.
	assert.Contains(t, text, `".Person.PhoneNumber"`)
	assert.Contains(t, text, "Packed: true")
	assert.Contains(t, text, "Default: int32(7), HasDefault: true")

	// Type specs mirror the message shapes with mangled names.
	assert.Contains(t, text, "type Person struct")
	assert.Contains(t, text, "type Person_PhoneNumber struct")
	assert.Contains(t, text, "*Person_PhoneNumber")
	assert.Contains(t, text, "[]int32")
}

func TestRenderWithoutTypeSpecs(t *testing.T) {
	t.Parallel()

	src, err := gen.Render(testSchema(t), gen.Config{Name: "addressbook"})
	require.NoError(t, err)
	assert.NotContains(t, string(src), "type Person struct")
}

func TestRenderThresholdStrategy(t *testing.T) {
	t.Parallel()

	src, err := gen.Render(testSchema(t), gen.Config{
		Name:      "addressbook",
		CopyBytes: codec.CopyThreshold(16),
	})
	require.NoError(t, err)
	assert.Contains(t, string(src), "codec.CopyThreshold(16)")
}

func TestRenderSanitizesPackageName(t *testing.T) {
	t.Parallel()

	src, err := gen.Render(testSchema(t), gen.Config{Name: "my-schema.v1"})
	require.NoError(t, err)
	assert.Contains(t, string(src), "package my_schema_v1")
}
