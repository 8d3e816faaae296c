// Package cycles implements C9, the Cycle Engine: DFS cycle enumeration
// over a module edge set, with rotation/reversal canonicalization and a
// bound on the number of unique cycles reported.
package cycles

import (
	"sort"

	"github.com/archdrift/archdrift/internal/canonical"
)

const DefaultMaxCycles = 200

// Result is the bounded set of canonicalized cycles found in an edge set.
type Result struct {
	Cycles    [][]string `json:"cycles"`
	Truncated bool       `json:"truncated"`
}

// Detect builds sorted adjacency lists and depth-first-walks from every
// vertex in sorted order, emitting a canonicalized cycle each time the walk
// re-enters a vertex already on its current path. A vertex whose walk has
// finished is marked fully explored and is not walked again, so the result
// holds the simple cycles this walk discovers, not every simple cycle of the
// graph. Halts once maxCycles unique canonical cycles have been found,
// setting Truncated.
func Detect(edges []canonical.Edge, maxCycles int) Result {
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}

	adj := adjacency(edges)
	vertices := sortedVertices(adj)

	seen := make(map[string]struct{})
	var out [][]string
	truncated := false

	onPath := make(map[string]int) // vertex -> index in path
	explored := make(map[string]struct{})
	var path []string

	var walk func(v string) bool // returns true if bound reached
	walk = func(v string) bool {
		path = append(path, v)
		onPath[v] = len(path) - 1

		for _, next := range adj[v] {
			if idx, inPath := onPath[next]; inPath {
				cycle := append([]string(nil), path[idx:]...)
				canon := Canonicalize(cycle)
				key := joinTuple(canon)
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					out = append(out, canon)
					if len(out) >= maxCycles {
						truncated = true
					}
				}
				if truncated {
					path = path[:len(path)-1]
					delete(onPath, v)
					return true
				}
				continue
			}
			if truncated {
				break
			}
			if _, done := explored[next]; done {
				continue
			}
			if walk(next) {
				path = path[:len(path)-1]
				delete(onPath, v)
				return true
			}
		}

		path = path[:len(path)-1]
		delete(onPath, v)
		explored[v] = struct{}{}
		return truncated
	}

	for _, v := range vertices {
		if truncated {
			break
		}
		if _, done := explored[v]; done {
			continue
		}
		walk(v)
	}

	sort.Slice(out, func(i, j int) bool { return joinTuple(out[i]) < joinTuple(out[j]) })
	return Result{Cycles: out, Truncated: truncated}
}

// Canonicalize rotates cycle so its lexicographically smallest vertex is
// first, then returns whichever of the forward or reversed rotation is
// lexicographically smaller. Idempotent and closed under rotation/reversal.
func Canonicalize(cycle []string) []string {
	if len(cycle) == 0 {
		return nil
	}
	forward := rotateToMin(cycle)
	reversed := reverse(cycle)
	reversedRotated := rotateToMin(reversed)

	if joinTuple(reversedRotated) < joinTuple(forward) {
		return reversedRotated
	}
	return forward
}

func rotateToMin(cycle []string) []string {
	n := len(cycle)
	minIdx := 0
	for i := 1; i < n; i++ {
		if cycle[i] < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = cycle[(minIdx+i)%n]
	}
	return out
}

func reverse(cycle []string) []string {
	n := len(cycle)
	out := make([]string, n)
	for i, v := range cycle {
		out[n-1-i] = v
	}
	return out
}

func joinTuple(cycle []string) string {
	out := ""
	for i, v := range cycle {
		if i > 0 {
			out += "\x00"
		}
		out += v
	}
	return out
}

func adjacency(edges []canonical.Edge) map[string][]string {
	raw := make(map[string]map[string]struct{})
	for _, e := range edges {
		if raw[e.From] == nil {
			raw[e.From] = make(map[string]struct{})
		}
		raw[e.From][e.To] = struct{}{}
		if raw[e.To] == nil {
			raw[e.To] = make(map[string]struct{})
		}
	}
	adj := make(map[string][]string, len(raw))
	for v, succs := range raw {
		list := make([]string, 0, len(succs))
		for s := range succs {
			list = append(list, s)
		}
		sort.Strings(list)
		adj[v] = list
	}
	return adj
}

func sortedVertices(adj map[string][]string) []string {
	out := make([]string, 0, len(adj))
	for v := range adj {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DiffResult is the output of Diff: cycles introduced and removed between
// two edge sets, canonicalized and sorted.
type DiffResult struct {
	CyclesAdded   [][]string `json:"cycles_added"`
	CyclesRemoved [][]string `json:"cycles_removed"`
}

// Diff runs Detect on both edge sets and returns the canonical-tuple set
// difference, plus whether either side's detection was truncated.
func Diff(oldEdges, newEdges []canonical.Edge, maxCycles int) (result DiffResult, oldTruncated bool, newTruncated bool) {
	oldRes := Detect(oldEdges, maxCycles)
	newRes := Detect(newEdges, maxCycles)

	oldSet := make(map[string][]string, len(oldRes.Cycles))
	for _, c := range oldRes.Cycles {
		oldSet[joinTuple(c)] = c
	}
	newSet := make(map[string][]string, len(newRes.Cycles))
	for _, c := range newRes.Cycles {
		newSet[joinTuple(c)] = c
	}

	var added, removed [][]string
	for key, c := range newSet {
		if _, ok := oldSet[key]; !ok {
			added = append(added, c)
		}
	}
	for key, c := range oldSet {
		if _, ok := newSet[key]; !ok {
			removed = append(removed, c)
		}
	}
	sort.Slice(added, func(i, j int) bool { return joinTuple(added[i]) < joinTuple(added[j]) })
	sort.Slice(removed, func(i, j int) bool { return joinTuple(removed[i]) < joinTuple(removed[j]) })

	return DiffResult{CyclesAdded: added, CyclesRemoved: removed}, oldRes.Truncated, newRes.Truncated
}
