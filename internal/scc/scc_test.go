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

package scc_test

import (
	"iter"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kralicky/wiregen/internal/scc"
)

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, graph string
		want        [][]int // The expected components, in topological order.
		cyclic      bool
	}{
		{
			name:  "singleton",
			graph: `.`,
			want:  [][]int{{0}},
		},
		{
			name:   "self-loop",
			graph:  `#`,
			want:   [][]int{{0}},
			cyclic: true,
		},
		{
			name: "tree",
			graph: `.##..
					.....
					...##
					.....
					.....`,
			want: [][]int{{1}, {3}, {4}, {2}, {0}},
		},
		{
			name: "cycle",
			graph: `.#...
					..#..
					...#.
					....#
					#....`,
			want:   [][]int{{0, 1, 2, 3, 4}},
			cyclic: true,
		},
		{
			name: "two-cycles",
			graph: `.#...
					#..#.
					....#
					..#..
					...#.`,
			want:   [][]int{{2, 3, 4}, {0, 1}},
			cyclic: true,
		},
		{
			name: "dumbbell",
			graph: `.#...
					#.#..
					..#.#
					....#
					...#.`,
			want:   [][]int{{3, 4}, {2}, {0, 1}},
			cyclic: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := parseGraph(tt.graph)
			roots := make([]int, g.nodes)
			for i := range roots {
				roots[i] = i
			}
			dag := scc.Sort(roots, g.deps)

			var got [][]int
			for c := range dag.Topological() {
				members := slices.Clone(c.Members())
				slices.Sort(members)
				got = append(got, members)
			}

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.cyclic, dag.Cyclic())
		})
	}
}

func TestForNode(t *testing.T) {
	t.Parallel()

	g := parseGraph(`.#.
					 ..#
					 ...`)
	dag := scc.Sort([]int{0, 1, 2}, g.deps)
	c := dag.ForNode(1)
	assert.NotNil(t, c)
	assert.Equal(t, []int{1}, c.Members())
	assert.False(t, c.Cyclic())
	assert.Nil(t, dag.ForNode(42))
}

// graph is a directed graph in matrix form. There is an edge from n to m
// if the value at matrix[nodes*n+m] is true.
type graph struct {
	nodes  int
	matrix []bool // len == nodes*nodes
}

// . means false, # means true. The total number of .s and #s must be a
// perfect square.
func parseGraph(s string) graph {
	matrix := []bool{}
	for _, r := range s {
		switch r {
		case '.':
			matrix = append(matrix, false)
		case '#':
			matrix = append(matrix, true)
		}
	}

	nodes := int(math.Sqrt(float64(len(matrix))))
	if nodes*nodes != len(matrix) {
		panic("invalid graph string")
	}

	return graph{nodes, matrix}
}

// deps implements the scc.Graph interface.
func (g graph) deps(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for m := range g.nodes {
			idx := n*g.nodes + m
			if g.matrix[idx] && !yield(m) {
				return
			}
		}
	}
}
