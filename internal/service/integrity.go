package service

import (
	"context"
	"log/slog"

	"github.com/forgo/mediacms/api/internal/mptt"
)

// TreeCheck is the outcome of a nested-set consistency check
type TreeCheck struct {
	Nodes int `json:"nodes"`
	// Drifted counts nodes whose stored lft/rght/tree_id/level differ from a
	// fresh numbering of the parent links
	Drifted  int    `json:"drifted"`
	Problem  string `json:"problem,omitempty"`
	Repaired bool   `json:"repaired"`
}

// Healthy reports whether the stored bookkeeping matched the parent links
func (c *TreeCheck) Healthy() bool {
	return c.Drifted == 0 && c.Problem == ""
}

// CheckTree compares the stored nested-set fields with a renumbering derived
// from the parent links. With repair set, drifted rows are rewritten. A tree
// whose parent links are themselves broken returns ErrTechniqueTreeCorrupt
// and cannot be repaired here.
func (s *TechniqueService) CheckTree(ctx context.Context, repair bool) (*TreeCheck, error) {
	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	forest, stored, err := s.loadForest(ctx)
	if err != nil {
		return nil, err
	}

	check := &TreeCheck{
		Nodes:   len(stored),
		Drifted: len(forest.Changed(stored)),
	}
	if err := mptt.Validate(stored); err != nil {
		check.Problem = err.Error()
	}
	if check.Healthy() {
		return check, nil
	}

	s.logger.Warn("technique tree drifted",
		slog.Int("nodes", check.Nodes),
		slog.Int("drifted", check.Drifted),
		slog.String("problem", check.Problem),
	)
	if !repair {
		return check, nil
	}

	if err := s.persistChanged(ctx, forest, stored); err != nil {
		return nil, err
	}
	check.Repaired = true
	s.logger.Info("technique tree renumbered", slog.Int("rows", check.Drifted))
	return check, nil
}
