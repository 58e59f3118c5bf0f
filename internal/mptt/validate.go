package mptt

import (
	"fmt"
	"slices"
)

// Validate checks stored rows against the nested-set invariants:
//   - each tree has exactly one root, at level 0 with lft = 1
//   - intervals nest properly and a node's enclosing interval is its parent
//   - level is the parent's level plus one
//   - the lft/rght values of a tree with n nodes cover 1..2n exactly
func Validate(nodes []Node) error {
	byTree := make(map[int][]Node)
	for _, n := range nodes {
		if n.Lft >= n.Rght {
			return fmt.Errorf("%w: %s has lft %d >= rght %d", ErrInvalidNesting, n.Key, n.Lft, n.Rght)
		}
		byTree[n.TreeID] = append(byTree[n.TreeID], n)
	}

	for treeID, tree := range byTree {
		if err := validateTree(treeID, tree); err != nil {
			return err
		}
	}
	return nil
}

func validateTree(treeID int, tree []Node) error {
	slices.SortFunc(tree, compareNodes)

	seen := make(map[int]bool, 2*len(tree))
	for _, n := range tree {
		for _, v := range []int{n.Lft, n.Rght} {
			if v < 1 || v > 2*len(tree) || seen[v] {
				return fmt.Errorf("%w: tree %d counter %d out of range or repeated", ErrInvalidNesting, treeID, v)
			}
			seen[v] = true
		}
	}

	var open []Node
	for i, n := range tree {
		for len(open) > 0 && open[len(open)-1].Rght < n.Lft {
			open = open[:len(open)-1]
		}

		if len(open) == 0 {
			if i != 0 {
				return fmt.Errorf("%w: tree %d has more than one root (%s)", ErrInvalidNesting, treeID, n.Key)
			}
			if !n.IsRoot() || n.Level != 0 || n.Lft != 1 {
				return fmt.Errorf("%w: %s is outermost in tree %d but is not a level-0 root", ErrInvalidNesting, n.Key, treeID)
			}
		} else {
			parent := open[len(open)-1]
			if n.Rght > parent.Rght {
				return fmt.Errorf("%w: %s overlaps %s", ErrInvalidNesting, n.Key, parent.Key)
			}
			if n.ParentKey != parent.Key {
				return fmt.Errorf("%w: %s lies inside %s but names parent %q", ErrInvalidNesting, n.Key, parent.Key, n.ParentKey)
			}
			if n.Level != parent.Level+1 {
				return fmt.Errorf("%w: %s has level %d under level %d", ErrInvalidNesting, n.Key, n.Level, parent.Level)
			}
		}
		open = append(open, n)
	}
	return nil
}
