// Package graph provides a small typed state-graph engine and the agent
// workflow built on it: nodes transform a shared state value, edges are
// static or conditional, and execution runs until the End marker.
package graph

import (
	"context"
	"fmt"
)

// End is the terminal pseudo-node name.
const End = "__end__"

// NodeFunc transforms the state at one node.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// CondFunc picks the label used to resolve a conditional edge.
type CondFunc[S any] func(ctx context.Context, state S) string

type conditional[S any] struct {
	cond    CondFunc[S]
	pathMap map[string]string
}

// Graph is a workflow under construction. Compile validates it into a
// runnable form.
type Graph[S any] struct {
	nodes        map[string]NodeFunc[S]
	edges        map[string]string
	conditionals map[string]conditional[S]
	entry        string
}

func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:        make(map[string]NodeFunc[S]),
		edges:        make(map[string]string),
		conditionals: make(map[string]conditional[S]),
	}
}

func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) *Graph[S] {
	g.nodes[name] = fn
	return g
}

func (g *Graph[S]) SetEntryPoint(name string) *Graph[S] {
	g.entry = name
	return g
}

// AddEdge wires an unconditional transition. The target may be End.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = to
	return g
}

// AddConditionalEdges wires a label-driven transition: cond produces a
// label, pathMap maps labels to target nodes.
func (g *Graph[S]) AddConditionalEdges(from string, cond CondFunc[S], pathMap map[string]string) *Graph[S] {
	g.conditionals[from] = conditional[S]{cond: cond, pathMap: pathMap}
	return g
}

// Compiled is a validated, runnable graph.
type Compiled[S any] struct {
	g *Graph[S]
}

// Compile checks that the entry point and every edge target exist.
func (g *Graph[S]) Compile() (*Compiled[S], error) {
	if g.entry == "" {
		return nil, fmt.Errorf("graph has no entry point")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("entry point %q is not a node", g.entry)
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("edge source %q is not a node", from)
		}
		if to != End {
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("edge target %q is not a node", to)
			}
		}
	}
	for from, c := range g.conditionals {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("conditional edge source %q is not a node", from)
		}
		for label, to := range c.pathMap {
			if to == End {
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("conditional target %q (label %q) is not a node", to, label)
			}
		}
	}
	return &Compiled[S]{g: g}, nil
}

// Invoke runs the graph from the entry point until End. The step bound
// guards against wiring mistakes forming a cycle.
func (c *Compiled[S]) Invoke(ctx context.Context, state S) (S, error) {
	const maxSteps = 64
	current := c.g.entry
	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		fn := c.g.nodes[current]
		var err error
		state, err = fn(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %q: %w", current, err)
		}

		if cond, ok := c.g.conditionals[current]; ok {
			label := cond.cond(ctx, state)
			next, ok := cond.pathMap[label]
			if !ok {
				return state, fmt.Errorf("node %q: no path for label %q", current, label)
			}
			current = next
		} else if next, ok := c.g.edges[current]; ok {
			current = next
		} else {
			return state, fmt.Errorf("node %q has no outgoing edge", current)
		}
		if current == End {
			return state, nil
		}
	}
	return state, fmt.Errorf("graph exceeded %d steps, assuming a cycle", maxSteps)
}
