package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/mediacms/api/internal/model"
)

func TestCheckTree_Healthy(t *testing.T) {
	t.Parallel()
	repo := seededTechniques()
	svc := newTestTechniqueService(repo, nil, nil)

	check, err := svc.CheckTree(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, check.Healthy())
	assert.Equal(t, 3, check.Nodes)
	assert.False(t, check.Repaired)
	assert.Empty(t, repo.updates)
}

func TestCheckTree_ReportsWithoutRepair(t *testing.T) {
	t.Parallel()
	repo := seededTechniques()
	repo.rows["technique:2"].Rght = 9
	svc := newTestTechniqueService(repo, nil, nil)

	check, err := svc.CheckTree(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, check.Healthy())
	assert.Equal(t, 1, check.Drifted)
	assert.NotEmpty(t, check.Problem)
	assert.False(t, check.Repaired)
	assert.Empty(t, repo.updates)
}

func TestCheckTree_RepairsDrift(t *testing.T) {
	t.Parallel()
	repo := seededTechniques()
	// passing stored as a third tree after a deleted second one
	repo.rows["technique:3"].TreeID = 3
	svc := newTestTechniqueService(repo, nil, nil)

	check, err := svc.CheckTree(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, check.Drifted)
	assert.Empty(t, check.Problem)
	assert.True(t, check.Repaired)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, []model.TreeFields{{ID: "technique:3", Lft: 1, Rght: 2, TreeID: 2, Level: 0}}, repo.updates[0])

	again, err := svc.CheckTree(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, again.Healthy())
}

func TestCheckTree_BrokenParentLinks(t *testing.T) {
	t.Parallel()
	repo := seededTechniques()
	repo.rows["technique:2"].ParentID = strPtr("technique:99")
	svc := newTestTechniqueService(repo, nil, nil)

	_, err := svc.CheckTree(context.Background(), true)
	assert.ErrorIs(t, err, ErrTechniqueTreeCorrupt)
}

func TestCheckTree_ListError(t *testing.T) {
	t.Parallel()
	repo := seededTechniques()
	repo.listErr = errors.New("connection reset")
	svc := newTestTechniqueService(repo, nil, nil)

	_, err := svc.CheckTree(context.Background(), true)
	assert.ErrorContains(t, err, "connection reset")
}
