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
	"encoding/hex"
	"strings"
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/require"

	"github.com/kralicky/wiregen/codec"
	"github.com/kralicky/wiregen/defs"
	"github.com/kralicky/wiregen/linker"
	"github.com/kralicky/wiregen/reporter"
)

// mustCompile links raw definitions and compiles them into a module.
func mustCompile(t *testing.T, raw []defs.Def, opts ...codec.Option) *codec.Module {
	t.Helper()
	schema, err := linker.Link("test", raw, reporter.NewHandler(nil))
	require.NoError(t, err)
	mod, err := codec.Compile(schema, opts...)
	require.NoError(t, err)
	return mod
}

// hexb decodes a spaced hex dump ("08 96 01") into bytes.
func hexb(t *testing.T, dump string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.Join(strings.Fields(dump), ""))
	require.NoError(t, err)
	return b
}

// scope assembles wire bytes from protoscope text.
func scope(t *testing.T, text string) []byte {
	t.Helper()
	b, err := protoscope.NewScanner(text).Exec()
	require.NoError(t, err)
	return b
}

// msgM returns the canonical single-field test message:
// message M { <cardinality> <kind> x = 1 [opts]; }.
func msgM(kind defs.Kind, card defs.Cardinality, packed bool) []defs.Def {
	f := &defs.Field{Name: "x", Num: 1, Type: defs.Scalar(kind), Cardinality: card}
	if packed {
		f.RawOptions = []defs.Option{{Name: "packed"}}
	}
	return []defs.Def{&defs.Message{Name: "M", Fields: []*defs.Field{f}}}
}

func mustNew(t *testing.T, mod *codec.Module, name string) *codec.Message {
	t.Helper()
	msg, err := mod.NewMessage(name)
	require.NoError(t, err)
	return msg
}

func newM(t *testing.T, mod *codec.Module) *codec.Message {
	return mustNew(t, mod, "M")
}
