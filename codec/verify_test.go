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

package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kralicky/wiregen/codec"
	"github.com/kralicky/wiregen/defs"
)

func verifyFixture(t *testing.T) *codec.Module {
	t.Helper()
	return mustCompile(t, []defs.Def{
		&defs.Enum{Name: "Color", Values: []defs.EnumValue{
			{Symbol: "RED", Number: 0},
			{Symbol: "BLUE", Number: 1},
		}},
		&defs.Message{Name: "Inner", Fields: []*defs.Field{
			{Name: "n", Num: 1, Type: defs.Scalar(defs.KindInt32), Cardinality: defs.Required},
		}},
		&defs.Message{Name: "Outer", Fields: []*defs.Field{
			{Name: "id", Num: 1, Type: defs.Scalar(defs.KindInt32), Cardinality: defs.Required},
			{Name: "name", Num: 2, Type: defs.Scalar(defs.KindString), Cardinality: defs.Optional},
			{Name: "color", Num: 3, Type: defs.Ref("Color"), Cardinality: defs.Optional},
			{Name: "inner", Num: 4, Type: defs.Ref("Inner"), Cardinality: defs.Optional},
			{Name: "tags", Num: 5, Type: defs.Scalar(defs.KindString), Cardinality: defs.Repeated},
			{Name: "flag", Num: 6, Type: defs.Scalar(defs.KindBool), Cardinality: defs.Optional},
			{Name: "ratio", Num: 7, Type: defs.Scalar(defs.KindDouble), Cardinality: defs.Optional},
			{Name: "count", Num: 8, Type: defs.Scalar(defs.KindUint32), Cardinality: defs.Optional},
		}},
	})
}

func verifyErr(t *testing.T, mod *codec.Module, msg *codec.Message) *codec.TypeError {
	t.Helper()
	err := mod.Verify(msg)
	var terr *codec.TypeError
	require.ErrorAs(t, err, &terr)
	return terr
}

func validOuter(t *testing.T, mod *codec.Module) *codec.Message {
	t.Helper()
	return mustNew(t, mod, "Outer").Set("id", int32(1))
}

func TestVerifyAcceptsValidMessage(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	msg := validOuter(t, mod).
		Set("name", "ok").
		Set("color", "BLUE").
		Set("inner", mustNew(t, mod, "Inner").Set("n", int32(2))).
		Set("tags", []any{"a", "b"}).
		Set("flag", true).
		Set("ratio", 0.5).
		Set("count", uint32(3))
	require.NoError(t, mod.Verify(msg))

	// Verifier soundness: a value that verifies also encodes.
	_, err := mod.Encode(msg)
	require.NoError(t, err)
}

func TestVerifyMissingRequired(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	terr := verifyErr(t, mod, mustNew(t, mod, "Outer"))
	assert.Equal(t, "id", terr.Path)
	assert.Contains(t, terr.Reason, "missing required")
}

func TestVerifyIntegerRange(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	terr := verifyErr(t, mod, validOuter(t, mod).Set("count", int64(1)<<40))
	assert.Equal(t, "count", terr.Path)
	assert.Contains(t, terr.Reason, "out of range")

	terr = verifyErr(t, mod, validOuter(t, mod).Set("count", int32(-1)))
	assert.Equal(t, "count", terr.Path)
}

func TestVerifyFloatAcceptsIntegers(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	assert.NoError(t, mod.Verify(validOuter(t, mod).Set("ratio", int32(3))))
}

func TestVerifyBadBool(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	terr := verifyErr(t, mod, validOuter(t, mod).Set("flag", int32(1)))
	assert.Equal(t, "flag", terr.Path)
}

func TestVerifyInvalidUTF8(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	terr := verifyErr(t, mod, validOuter(t, mod).Set("name", string([]byte{0xff, 0xfe})))
	assert.Equal(t, "name", terr.Path)
	assert.Contains(t, terr.Reason, "UTF-8")
}

func TestVerifyUndeclaredEnumSymbol(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	terr := verifyErr(t, mod, validOuter(t, mod).Set("color", "GREEN"))
	assert.Equal(t, "color", terr.Path)

	// Decoded unknown enum numbers are numeric and fail verification,
	// since they equal no declared symbol.
	terr = verifyErr(t, mod, validOuter(t, mod).Set("color", int32(99)))
	assert.Equal(t, "color", terr.Path)
}

func TestVerifyNestedPath(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	terr := verifyErr(t, mod, validOuter(t, mod).Set("inner", mustNew(t, mod, "Inner")))
	assert.Equal(t, "inner.n", terr.Path)
}

func TestVerifyRepeatedElementPath(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	terr := verifyErr(t, mod, validOuter(t, mod).Set("tags", []any{"ok", int32(7)}))
	assert.Equal(t, "tags[1]", terr.Path)
}

func TestVerifyWrongScalarType(t *testing.T) {
	t.Parallel()

	mod := verifyFixture(t)
	terr := verifyErr(t, mod, validOuter(t, mod).Set("id", "seven"))
	assert.Equal(t, "id", terr.Path)
	assert.Contains(t, terr.Reason, "not an integer")
}
