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

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kralicky/wiregen/codec"
	"github.com/kralicky/wiregen/defs"
)

// msgDiff compares dynamic messages, treating message definitions as
// identities rather than structurally (the schema is shared and may be
// cyclic).
func msgDiff(want, got *codec.Message) string {
	return cmp.Diff(want, got,
		cmp.AllowUnexported(codec.Message{}),
		cmp.Comparer(func(a, b *defs.Message) bool { return a == b }),
	)
}

func roundtripFixture(t *testing.T, opts ...codec.Option) *codec.Module {
	t.Helper()
	return mustCompile(t, []defs.Def{
		&defs.Enum{Name: "Mode", Values: []defs.EnumValue{
			{Symbol: "OFF", Number: 0},
			{Symbol: "ON", Number: 1},
			{Symbol: "UNSET", Number: -1},
		}},
		&defs.Message{Name: "Sub", Fields: []*defs.Field{
			{Name: "tag", Num: 1, Type: defs.Scalar(defs.KindString), Cardinality: defs.Optional},
		}},
		&defs.Message{Name: "All", Fields: []*defs.Field{
			{Name: "i32", Num: 1, Type: defs.Scalar(defs.KindInt32), Cardinality: defs.Required},
			{Name: "i64", Num: 2, Type: defs.Scalar(defs.KindInt64), Cardinality: defs.Optional},
			{Name: "u32", Num: 3, Type: defs.Scalar(defs.KindUint32), Cardinality: defs.Optional},
			{Name: "u64", Num: 4, Type: defs.Scalar(defs.KindUint64), Cardinality: defs.Optional},
			{Name: "s32", Num: 5, Type: defs.Scalar(defs.KindSint32), Cardinality: defs.Optional},
			{Name: "s64", Num: 6, Type: defs.Scalar(defs.KindSint64), Cardinality: defs.Optional},
			{Name: "b", Num: 7, Type: defs.Scalar(defs.KindBool), Cardinality: defs.Optional},
			{Name: "fx32", Num: 8, Type: defs.Scalar(defs.KindFixed32), Cardinality: defs.Optional},
			{Name: "sfx32", Num: 9, Type: defs.Scalar(defs.KindSfixed32), Cardinality: defs.Optional},
			{Name: "fl", Num: 10, Type: defs.Scalar(defs.KindFloat), Cardinality: defs.Optional},
			{Name: "fx64", Num: 11, Type: defs.Scalar(defs.KindFixed64), Cardinality: defs.Optional},
			{Name: "sfx64", Num: 12, Type: defs.Scalar(defs.KindSfixed64), Cardinality: defs.Optional},
			{Name: "db", Num: 13, Type: defs.Scalar(defs.KindDouble), Cardinality: defs.Optional},
			{Name: "str", Num: 14, Type: defs.Scalar(defs.KindString), Cardinality: defs.Optional},
			{Name: "by", Num: 15, Type: defs.Scalar(defs.KindBytes), Cardinality: defs.Optional},
			{Name: "mode", Num: 16, Type: defs.Ref("Mode"), Cardinality: defs.Optional},
			{Name: "sub", Num: 17, Type: defs.Ref("Sub"), Cardinality: defs.Optional},
			{Name: "rep", Num: 18, Type: defs.Scalar(defs.KindInt32), Cardinality: defs.Repeated},
			{
				Name: "packed", Num: 19, Type: defs.Scalar(defs.KindSint64), Cardinality: defs.Repeated,
				RawOptions: []defs.Option{{Name: "packed"}},
			},
			{Name: "subs", Num: 20, Type: defs.Ref("Sub"), Cardinality: defs.Repeated},
			{Name: "unset", Num: 21, Type: defs.Scalar(defs.KindString), Cardinality: defs.Optional},
		}},
	}, opts...)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	mod := roundtripFixture(t)
	msg := mustNew(t, mod, "All").
		Set("i32", int32(-150)).
		Set("i64", int64(1)<<60).
		Set("u32", uint32(7)).
		Set("u64", uint64(1)<<63).
		Set("s32", int32(-99)).
		Set("s64", int64(-1)<<40).
		Set("b", true).
		Set("fx32", uint32(12345)).
		Set("sfx32", int32(-12345)).
		Set("fl", float32(1.25)).
		Set("fx64", uint64(1)<<50).
		Set("sfx64", int64(-5)).
		Set("db", -0.125).
		Set("str", "héllo").
		Set("by", []byte{0, 1, 2, 0xff}).
		Set("mode", "UNSET").
		Set("sub", mustNew(t, mod, "Sub").Set("tag", "inner")).
		Set("rep", []any{int32(1), int32(-1), int32(300)}).
		Set("packed", []any{int64(0), int64(-1), int64(1) << 30}).
		Set("subs", []any{
			mustNew(t, mod, "Sub").Set("tag", "a"),
			mustNew(t, mod, "Sub").Set("tag", "b"),
		})

	encoded, err := mod.Encode(msg)
	require.NoError(t, err)
	decoded, err := mod.Decode(encoded, "All")
	require.NoError(t, err)

	if diff := msgDiff(msg, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	// The absent optional stays the absent sentinel.
	require.Nil(t, decoded.Get("unset"))
}

func TestRoundTripEncodeIsDeterministic(t *testing.T) {
	t.Parallel()

	mod := roundtripFixture(t)
	msg := mustNew(t, mod, "All").
		Set("i32", int32(1)).
		Set("rep", []any{int32(2), int32(3)}).
		Set("str", "same")

	first, err := mod.Encode(msg)
	require.NoError(t, err)
	second, err := mod.Encode(msg)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRoundTripVerifiedEncodeDecodes(t *testing.T) {
	t.Parallel()

	// Verifier soundness over the whole fixture: verify, then encode,
	// then decode, and the bytes must reproduce the value.
	mod := roundtripFixture(t, codec.WithVerifyMode(codec.VerifyAlways))
	msg := mustNew(t, mod, "All").
		Set("i32", int32(42)).
		Set("mode", "ON").
		Set("packed", []any{int64(-3), int64(3)})

	require.NoError(t, mod.Verify(msg))
	encoded, err := mod.Encode(msg)
	require.NoError(t, err)
	decoded, err := mod.Decode(encoded, "All")
	require.NoError(t, err)
	if diff := msgDiff(msg, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
