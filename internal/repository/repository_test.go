package repository

import (
	"context"
	"testing"
	"time"

	"labelhub/internal/models"
	"labelhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	exists, err := repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByUsername(ctx, "bob")
	assert.True(t, IsNotFound(err))
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "alice", PasswordHash: "a"}))
	err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: "b"})
	require.Error(t, err)
	assert.True(t, IsDuplicate(err), "expected duplicate key error, got %v", err)
}

func TestUserRepository_DeleteCascadesSubmissions(t *testing.T) {
	db := testutil.NewDB(t)
	users := NewUserRepository(db)
	subs := NewSubmissionRepository(db)
	ctx := context.Background()

	ds := testutil.CreateDataset(t, db, "animals", "cat", "dog")
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	for i, u := range []*models.User{alice, alice, bob} {
		require.NoError(t, subs.Create(ctx, &models.Submission{
			UserID: u.ID, DatasetID: ds.ID, LabelID: ds.Labels[0].ID,
			Image: "submissions/" + string(rune('a'+i)) + ".png",
		}))
	}

	images, err := users.Delete(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	n, err := subs.CountByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = subs.CountByUserID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = users.Delete(ctx, alice.ID)
	assert.True(t, IsNotFound(err))
}

func TestDatasetRepository_ListWithLabels(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewDatasetRepository(db)

	testutil.CreateDataset(t, db, "animals", "cat", "dog")
	testutil.CreateDataset(t, db, "vehicles", "car")

	datasets, err := repo.ListWithLabels(context.Background())
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	assert.Equal(t, "animals", datasets[0].Name)
	require.Len(t, datasets[0].Labels, 2)
	assert.Equal(t, "cat", datasets[0].Labels[0].Name)
	assert.Equal(t, "dog", datasets[0].Labels[1].Name)
	assert.Len(t, datasets[1].Labels, 1)
}

func TestDatasetRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	datasets := NewDatasetRepository(db)
	subs := NewSubmissionRepository(db)
	ctx := context.Background()

	animals := testutil.CreateDataset(t, db, "animals", "cat")
	vehicles := testutil.CreateDataset(t, db, "vehicles", "car")
	alice := testutil.CreateUser(t, db, "alice")

	// 一条提交引用 vehicles 数据集但使用 animals 的标签
	require.NoError(t, subs.Create(ctx, &models.Submission{UserID: alice.ID, DatasetID: animals.ID, LabelID: animals.Labels[0].ID, Image: "a.png"}))
	require.NoError(t, subs.Create(ctx, &models.Submission{UserID: alice.ID, DatasetID: vehicles.ID, LabelID: animals.Labels[0].ID, Image: "b.png"}))
	require.NoError(t, subs.Create(ctx, &models.Submission{UserID: alice.ID, DatasetID: vehicles.ID, LabelID: vehicles.Labels[0].ID, Image: "c.png"}))

	images, err := datasets.Delete(ctx, animals.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.png", "b.png"}, images)

	remaining, err := subs.ListByUserID(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "c.png", remaining[0].Image)

	var labels int64
	require.NoError(t, db.Model(&models.Label{}).Where("dataset_id = ?", animals.ID).Count(&labels).Error)
	assert.Zero(t, labels)
}

func TestLabelRepository_FirstOrCreateAndDeleteExcept(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLabelRepository(db)
	ctx := context.Background()

	ds := testutil.CreateDataset(t, db, "animals", "cat")

	cat, created, err := repo.FirstOrCreate(ctx, ds.ID, "cat")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, ds.Labels[0].ID, cat.ID)

	dog, created, err := repo.FirstOrCreate(ctx, ds.ID, "dog")
	require.NoError(t, err)
	assert.True(t, created)

	user := testutil.CreateUser(t, db, "alice")
	require.NoError(t, db.Create(&models.Submission{UserID: user.ID, DatasetID: ds.ID, LabelID: cat.ID, Image: "submissions/cat.png"}).Error)

	deleted, images, err := repo.DeleteExcept(ctx, ds.ID, []uint{dog.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, []string{"submissions/cat.png"}, images)

	labels, err := repo.ListByDataset(ctx, ds.ID)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "dog", labels[0].Name)
}

func TestSubmissionRepository_ListByUserIDNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	ds := testutil.CreateDataset(t, db, "animals", "cat")
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, ts := range []time.Time{base, base.Add(2 * time.Hour), base.Add(time.Hour)} {
		require.NoError(t, repo.Create(ctx, &models.Submission{
			UserID: alice.ID, DatasetID: ds.ID, LabelID: ds.Labels[0].ID,
			Image: "img" + string(rune('0'+i)), CreatedAt: ts,
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Submission{
		UserID: bob.ID, DatasetID: ds.ID, LabelID: ds.Labels[0].ID, Image: "bob", CreatedAt: base.Add(3 * time.Hour),
	}))

	list, err := repo.ListByUserID(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"img1", "img2", "img0"}, []string{list[0].Image, list[1].Image, list[2].Image})
	for _, s := range list {
		assert.Equal(t, alice.ID, s.UserID)
		assert.Equal(t, "alice", s.User.Username)
	}
}

func TestSubmissionRepository_ListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	animals := testutil.CreateDataset(t, db, "animals", "cat", "dog")
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, &models.Submission{UserID: alice.ID, DatasetID: animals.ID, LabelID: animals.Labels[0].ID, Image: "1"}))
	require.NoError(t, repo.Create(ctx, &models.Submission{UserID: alice.ID, DatasetID: animals.ID, LabelID: animals.Labels[1].ID, Image: "2"}))
	require.NoError(t, repo.Create(ctx, &models.Submission{UserID: bob.ID, DatasetID: animals.ID, LabelID: animals.Labels[1].ID, Image: "3"}))

	_, total, err := repo.List(ctx, SubmissionFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	list, total, err := repo.List(ctx, SubmissionFilter{LabelID: animals.Labels[1].ID, Username: "bob"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "3", list[0].Image)
	assert.Equal(t, "bob", list[0].User.Username)
}
