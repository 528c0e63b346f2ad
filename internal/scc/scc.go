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

// Package scc contains an implementation of Tarjan's algorithm, which
// converts a directed graph into a DAG of strongly-connected components
// (subgraphs such that every node is reachable from every other node).
//
// Components are produced in topological order, dependencies first, which
// is exactly the order the codec compiler wants message definitions in.
package scc

import (
	"iter"
	"slices"
)

// Graph is a "local" representation of a directed graph, which exposes the
// outgoing edges (i.e., dependencies) from some node.
type Graph[Node comparable] func(Node) iter.Seq[Node]

// DAG represents the strongly connected component DAG of some arbitrary
// directed graph.
type DAG[Node comparable] struct {
	keys       map[Node]int      // Indexes into the scc that the node is part of.
	components []Component[Node] // Topologically sorted, dependencies first.
}

// Component is a strongly connected component.
type Component[Node comparable] struct {
	members  []Node
	selfEdge bool
}

// Sort sorts the strongly connected components of the directed graph
// reachable from the given roots, using Tarjan's algorithm.
func Sort[Node comparable](roots []Node, graph Graph[Node]) *DAG[Node] {
	out := &DAG[Node]{keys: make(map[Node]int)}
	sorter := &tarjan[Node]{
		graph:    graph,
		dag:      out,
		metadata: make(map[Node]*metadata),
	}
	for _, root := range roots {
		if sorter.metadata[root] == nil {
			sorter.rec(root)
		}
	}
	return out
}

// ForNode returns the component for some node, or nil if that node is not
// in the graph.
func (d *DAG[Node]) ForNode(node Node) *Component[Node] {
	idx, ok := d.keys[node]
	if !ok {
		return nil
	}
	return &d.components[idx]
}

// Topological ranges over the components in topological order, dependencies
// before dependants.
func (d *DAG[Node]) Topological() iter.Seq[*Component[Node]] {
	return func(yield func(*Component[Node]) bool) {
		for i := range d.components {
			if !yield(&d.components[i]) {
				return
			}
		}
	}
}

// Cyclic reports whether the underlying graph contains a cycle: some
// component has more than one member, or a single member with an edge to
// itself.
func (d *DAG[Node]) Cyclic() bool {
	for i := range d.components {
		c := &d.components[i]
		if len(c.members) > 1 || c.selfEdge {
			return true
		}
	}
	return false
}

// Members returns the members of a component.
func (c *Component[Node]) Members() []Node {
	return c.members
}

// Cyclic reports whether this component is itself a cycle.
func (c *Component[Node]) Cyclic() bool {
	return len(c.members) > 1 || c.selfEdge
}

// tarjan is the state needed to execute Tarjan's recursive SCC algorithm.
//
// See https://en.wikipedia.org/wiki/Tarjan%27s_strongly_connected_components_algorithm
type tarjan[Node comparable] struct {
	graph Graph[Node]
	dag   *DAG[Node]

	index    int
	stack    []Node
	metadata map[Node]*metadata
}

// metadata is per-node metadata associated with a node in [tarjan].
type metadata struct {
	index, low int
	onStack    bool
}

// rec is the recursive step of Tarjan's algorithm.
func (s *tarjan[Node]) rec(node Node) *metadata {
	meta := &metadata{
		index:   s.index,
		low:     s.index,
		onStack: true,
	}
	s.metadata[node] = meta
	s.index++
	offset := len(s.stack)
	s.stack = append(s.stack, node)

	selfEdge := false
	for dep := range s.graph(node) {
		if dep == node {
			selfEdge = true
		}
		m := s.metadata[dep]
		if m == nil {
			m = s.rec(dep)
			meta.low = min(meta.low, m.low)
			continue
		}
		if m.onStack {
			meta.low = min(meta.low, m.index)
		}
	}

	if meta.index == meta.low {
		component := Component[Node]{
			members:  slices.Clone(s.stack[offset:]),
			selfEdge: selfEdge,
		}
		s.stack = s.stack[:offset]

		for _, member := range component.members {
			s.metadata[member].onStack = false
			s.dag.keys[member] = len(s.dag.components)
		}
		s.dag.components = append(s.dag.components, component)
	}

	return meta
}
