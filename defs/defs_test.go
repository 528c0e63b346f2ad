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

package defs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kralicky/wiregen/defs"
)

func TestKindByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		"int32", "int64", "uint32", "uint64", "sint32", "sint64", "bool",
		"fixed32", "sfixed32", "float", "fixed64", "sfixed64", "double",
		"string", "bytes",
	} {
		k := defs.KindByName(name)
		assert.True(t, k.IsScalar(), name)
		assert.Equal(t, name, k.String())
	}
	assert.Equal(t, defs.KindInvalid, defs.KindByName("enum"))
	assert.Equal(t, defs.KindInvalid, defs.KindByName("group"))
}

func TestWireTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, protowire.VarintType, defs.KindInt32.WireType())
	assert.Equal(t, protowire.VarintType, defs.KindSint64.WireType())
	assert.Equal(t, protowire.VarintType, defs.KindBool.WireType())
	assert.Equal(t, protowire.VarintType, defs.KindEnum.WireType())
	assert.Equal(t, protowire.Fixed32Type, defs.KindFloat.WireType())
	assert.Equal(t, protowire.Fixed64Type, defs.KindDouble.WireType())
	assert.Equal(t, protowire.BytesType, defs.KindString.WireType())
	assert.Equal(t, protowire.BytesType, defs.KindMessage.WireType())
}

func TestPackability(t *testing.T) {
	t.Parallel()

	assert.True(t, defs.KindInt32.IsPackable())
	assert.True(t, defs.KindEnum.IsPackable())
	assert.True(t, defs.KindDouble.IsPackable())
	assert.False(t, defs.KindString.IsPackable())
	assert.False(t, defs.KindBytes.IsPackable())
	assert.False(t, defs.KindMessage.IsPackable())
}

func TestFixedSizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4, defs.KindFixed32.FixedSize())
	assert.Equal(t, 4, defs.KindFloat.FixedSize())
	assert.Equal(t, 8, defs.KindSfixed64.FixedSize())
	assert.Equal(t, 8, defs.KindDouble.FixedSize())
	assert.Equal(t, 0, defs.KindInt32.FixedSize())
	assert.Equal(t, 0, defs.KindString.FixedSize())
}

func TestEnumLookups(t *testing.T) {
	t.Parallel()

	e := &defs.Enum{Name: ".E", Values: []defs.EnumValue{
		{Symbol: "A", Number: 0},
		{Symbol: "B", Number: -1},
	}}
	assert.Equal(t, "B", e.SymbolByNumber(-1))
	assert.Equal(t, "", e.SymbolByNumber(5))
	n, ok := e.NumberBySymbol("A")
	assert.True(t, ok)
	assert.Equal(t, int32(0), n)
	_, ok = e.NumberBySymbol("C")
	assert.False(t, ok)
}
