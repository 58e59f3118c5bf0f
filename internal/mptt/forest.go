package mptt

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrDuplicateKey indicates two nodes share a key.
	ErrDuplicateKey = errors.New("duplicate node key")

	// ErrUnknownParent indicates a node references a parent that is not in the forest.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrCycle indicates parent links that never reach a root.
	ErrCycle = errors.New("cycle in parent links")

	// ErrNodeNotFound indicates the requested key is not in the forest.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidNesting indicates stored bookkeeping that is not a valid nested set.
	ErrInvalidNesting = errors.New("invalid nested set")
)

// Node is one row of a nested-set table. ParentKey is empty for roots.
type Node struct {
	Key       string
	ParentKey string
	Lft       int
	Rght      int
	TreeID    int
	Level     int
}

// IsRoot returns true if the node has no parent
func (n Node) IsRoot() bool {
	return n.ParentKey == ""
}

// DescendantCount returns the number of nodes below n, derived from its interval
func (n Node) DescendantCount() int {
	return (n.Rght - n.Lft - 1) / 2
}

// IsLeaf returns true if n has no children
func (n Node) IsLeaf() bool {
	return n.Rght == n.Lft+1
}

// Contains returns true if other lies strictly inside n's interval
func (n Node) Contains(other Node) bool {
	return n.TreeID == other.TreeID && n.Lft < other.Lft && other.Rght < n.Rght
}

func (n Node) sameBookkeeping(o Node) bool {
	return n.ParentKey == o.ParentKey &&
		n.Lft == o.Lft &&
		n.Rght == o.Rght &&
		n.TreeID == o.TreeID &&
		n.Level == o.Level
}

// slot is an arena cell. parent is -1 for roots.
type slot struct {
	node     Node
	parent   int
	children []int
}

// Forest is an arena of nodes with parent/child adjacency. Sibling order is
// the order in which children were added and is preserved by Rebuild.
type Forest struct {
	slots []slot
	roots []int
	index map[string]int
}

// Build creates a forest from flat rows and numbers it. Children keep the
// relative order in which they appear in nodes; roots are numbered in order of
// appearance.
func Build(nodes []Node) (*Forest, error) {
	f := &Forest{
		slots: make([]slot, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
	}

	for _, n := range nodes {
		if _, exists := f.index[n.Key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, n.Key)
		}
		f.index[n.Key] = len(f.slots)
		f.slots = append(f.slots, slot{node: n, parent: -1})
	}

	for i := range f.slots {
		s := &f.slots[i]
		if s.node.ParentKey == "" {
			f.roots = append(f.roots, i)
			continue
		}
		p, ok := f.index[s.node.ParentKey]
		if !ok {
			return nil, fmt.Errorf("%w: %s (parent of %s)", ErrUnknownParent, s.node.ParentKey, s.node.Key)
		}
		s.parent = p
		f.slots[p].children = append(f.slots[p].children, i)
	}

	if reached := f.reachable(); reached != len(f.slots) {
		return nil, fmt.Errorf("%w: %d of %d nodes unreachable from a root", ErrCycle, len(f.slots)-reached, len(f.slots))
	}

	f.Rebuild()
	return f, nil
}

func (f *Forest) reachable() int {
	count := 0
	stack := slices.Clone(f.roots)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, f.slots[i].children...)
	}
	return count
}

// Rebuild renumbers every tree with a single depth-first traversal.
// Each root gets tree_id = its 1-based position, level 0 and lft = 1;
// counters increase monotonically so rght = lft + 2*descendants + 1.
func (f *Forest) Rebuild() {
	for i, r := range f.roots {
		f.number(r, i+1)
	}
}

func (f *Forest) number(root, treeID int) {
	type frame struct {
		slot  int
		child int
	}

	counter := 1
	enter := func(i, level int) {
		s := &f.slots[i]
		s.node.Lft = counter
		s.node.TreeID = treeID
		s.node.Level = level
		if s.parent >= 0 {
			s.node.ParentKey = f.slots[s.parent].node.Key
		} else {
			s.node.ParentKey = ""
		}
		counter++
	}

	enter(root, 0)
	stack := []frame{{slot: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		s := &f.slots[top.slot]
		if top.child < len(s.children) {
			c := s.children[top.child]
			top.child++
			enter(c, s.node.Level+1)
			stack = append(stack, frame{slot: c})
			continue
		}
		s.node.Rght = counter
		counter++
		stack = stack[:len(stack)-1]
	}
}

// Len returns the number of nodes in the forest
func (f *Forest) Len() int {
	return len(f.slots)
}

// Get returns the node stored under key
func (f *Forest) Get(key string) (Node, bool) {
	i, ok := f.index[key]
	if !ok {
		return Node{}, false
	}
	return f.slots[i].node, true
}

// Nodes returns every node ordered by (tree_id, lft), i.e. preorder
func (f *Forest) Nodes() []Node {
	out := make([]Node, 0, len(f.slots))
	for _, s := range f.slots {
		out = append(out, s.node)
	}
	slices.SortFunc(out, compareNodes)
	return out
}

func compareNodes(a, b Node) int {
	if c := cmp.Compare(a.TreeID, b.TreeID); c != 0 {
		return c
	}
	return cmp.Compare(a.Lft, b.Lft)
}

// Changed returns the nodes whose bookkeeping differs from before, plus nodes
// that are not present in before at all. Result is in preorder.
func (f *Forest) Changed(before []Node) []Node {
	prev := make(map[string]Node, len(before))
	for _, n := range before {
		prev[n.Key] = n
	}

	var out []Node
	for _, n := range f.Nodes() {
		if old, ok := prev[n.Key]; ok && old.sameBookkeeping(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Roots returns root keys in tree order
func (f *Forest) Roots() []string {
	out := make([]string, 0, len(f.roots))
	for _, r := range f.roots {
		out = append(out, f.slots[r].node.Key)
	}
	return out
}

// Children returns the keys of key's direct children in sibling order
func (f *Forest) Children(key string) ([]string, error) {
	i, ok := f.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	out := make([]string, 0, len(f.slots[i].children))
	for _, c := range f.slots[i].children {
		out = append(out, f.slots[c].node.Key)
	}
	return out, nil
}

// Ancestors returns the keys from the root down to key's parent
func (f *Forest) Ancestors(key string) ([]string, error) {
	i, ok := f.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	var out []string
	for p := f.slots[i].parent; p >= 0; p = f.slots[p].parent {
		out = append(out, f.slots[p].node.Key)
	}
	slices.Reverse(out)
	return out, nil
}

// Descendants returns every key inside key's lft/rght interval, in preorder
func (f *Forest) Descendants(key string) ([]string, error) {
	n, ok := f.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	var out []string
	for _, m := range f.Nodes() {
		if n.Contains(m) {
			out = append(out, m.Key)
		}
	}
	return out, nil
}

// Append adds n as the last child of n.ParentKey, or as the last root when
// ParentKey is empty, and renumbers. The stored node is returned.
func (f *Forest) Append(n Node) (Node, error) {
	if _, exists := f.index[n.Key]; exists {
		return Node{}, fmt.Errorf("%w: %s", ErrDuplicateKey, n.Key)
	}

	parent := -1
	if n.ParentKey != "" {
		p, ok := f.index[n.ParentKey]
		if !ok {
			return Node{}, fmt.Errorf("%w: %s", ErrUnknownParent, n.ParentKey)
		}
		parent = p
	}

	i := len(f.slots)
	f.index[n.Key] = i
	f.slots = append(f.slots, slot{node: n, parent: parent})
	if parent >= 0 {
		f.slots[parent].children = append(f.slots[parent].children, i)
	} else {
		f.roots = append(f.roots, i)
	}

	f.Rebuild()
	return f.slots[i].node, nil
}

// Remove deletes key and its whole subtree, renumbers the remaining trees and
// returns the removed keys in preorder.
func (f *Forest) Remove(key string) ([]string, error) {
	descendants, err := f.Descendants(key)
	if err != nil {
		return nil, err
	}
	removed := append([]string{key}, descendants...)

	drop := make(map[string]struct{}, len(removed))
	for _, k := range removed {
		drop[k] = struct{}{}
	}

	remaining := make([]Node, 0, len(f.slots)-len(removed))
	for _, n := range f.Nodes() {
		if _, gone := drop[n.Key]; !gone {
			remaining = append(remaining, n)
		}
	}

	rebuilt, err := Build(remaining)
	if err != nil {
		return nil, err
	}
	*f = *rebuilt
	return removed, nil
}
