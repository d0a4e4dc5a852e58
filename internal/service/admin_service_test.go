package service

import (
	"context"
	"testing"

	"labelhub/internal/apperr"
	"labelhub/internal/models"
	"labelhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_ListUsers(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		env.mustRegister(t, name, "pw")
	}

	resp, err := env.admin.ListUsers(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "alice", resp.Users[0].Username)

	resp, err = env.admin.ListUsers(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "carol", resp.Users[0].Username)
}

func TestAdminService_DeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.mustRegister(t, "root", "pw")
	alice := env.mustRegister(t, "alice", "pw123")
	bob := env.mustRegister(t, "bob", "pw456")
	ds := testutil.CreateDataset(t, env.db, "animals", "cat")

	for _, uid := range []uint{alice, alice, bob} {
		_, err := env.submissions.CreateSubmission(ctx, uid, submitForm(ds.ID, ds.Labels[0].ID), pngUpload(t))
		require.NoError(t, err)
	}
	require.Len(t, env.store.Keys(), 3)

	require.NoError(t, env.admin.DeleteUser(ctx, admin, alice))

	var remaining []models.Submission
	require.NoError(t, env.db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, bob, remaining[0].UserID)
	assert.Equal(t, []string{remaining[0].Image}, env.store.Keys())

	err := env.admin.DeleteUser(ctx, admin, alice)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = env.admin.DeleteUser(ctx, admin, admin)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
