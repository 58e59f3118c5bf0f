// Package mptt maintains nested-set (modified preorder tree traversal)
// bookkeeping for hierarchical rows.
//
// Every node carries four counters:
//
//   - tree_id: 1-based position of the node's root among all roots
//   - level: depth below the root (roots are level 0)
//   - lft, rght: entry and exit counters of a depth-first traversal
//
// A node's descendants are exactly the nodes of the same tree whose lft lies
// between its lft and rght, so subtree reads need no recursion:
//
//	SELECT * FROM technique WHERE tree_id = $t AND lft > $lft AND rght < $rght
//
// The Forest type holds the nodes in an arena with parent/child adjacency and
// renumbers all trees with a single traversal after every structural change.
// Validate checks rows loaded from storage against the same invariants.
package mptt
