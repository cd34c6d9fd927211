package topology

import (
	"errors"
	"sort"
)

// Construct names used as graph nodes.
const (
	NodeNetwork  = "network"
	NodeRegistry = "registry"
	NodeImage    = "image"
	NodeCompute  = "compute"
	NodeEdge     = "edge"
	NodePreview  = "preview"
)

var ErrCycle = errors.New("cycle detected in deployment graph")

// Node is a construct and the constructs it consumes handles from.
type Node struct {
	Name string
	Deps []string
}

// Graph is the dependency graph of a deployment.
type Graph struct {
	Nodes map[string]Node
	Edges map[string][]string // from -> to (dependency -> dependent)
	InDeg map[string]int
}

// BuildGraph creates a graph from nodes' dependencies. Dependencies on nodes
// that are not part of the graph are ignored.
func BuildGraph(nodes []Node) *Graph {
	g := &Graph{Nodes: map[string]Node{}, Edges: map[string][]string{}, InDeg: map[string]int{}}
	for _, n := range nodes {
		g.Nodes[n.Name] = n
		if _, ok := g.InDeg[n.Name]; !ok {
			g.InDeg[n.Name] = 0
		}
	}
	for _, n := range nodes {
		for _, dep := range n.Deps {
			if _, ok := g.Nodes[dep]; !ok {
				continue
			}
			g.Edges[dep] = append(g.Edges[dep], n.Name)
			g.InDeg[n.Name]++
		}
	}
	return g
}

// HasEdge reports whether to depends on from.
func (g *Graph) HasEdge(from, to string) bool {
	for _, v := range g.Edges[from] {
		if v == to {
			return true
		}
	}
	return false
}

// TopoLayers returns ordered layers; every node of a layer only depends on
// nodes of earlier layers. Nodes within a layer are sorted by name.
func (g *Graph) TopoLayers() ([][]string, error) {
	in := make(map[string]int, len(g.InDeg))
	for k, v := range g.InDeg {
		in[k] = v
	}
	var q []string
	for n, d := range in {
		if d == 0 {
			q = append(q, n)
		}
	}
	var layers [][]string
	visited := 0
	for len(q) > 0 {
		layer := append([]string{}, q...)
		sort.Strings(layer)
		layers = append(layers, layer)
		q = q[:0]
		for _, u := range layer {
			visited++
			for _, v := range g.Edges[u] {
				in[v]--
				if in[v] == 0 {
					q = append(q, v)
				}
			}
		}
	}
	if visited != len(g.Nodes) {
		return nil, ErrCycle
	}
	return layers, nil
}

// Order flattens TopoLayers into a single provisioning order.
func (g *Graph) Order() ([]string, error) {
	layers, err := g.TopoLayers()
	if err != nil {
		return nil, err
	}
	var order []string
	for _, l := range layers {
		order = append(order, l...)
	}
	return order, nil
}
