package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"labelhub/internal/apperr"
	"labelhub/internal/dto"
	"labelhub/internal/models"
	"labelhub/internal/storage"
	"labelhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitForm(ds, label uint) *dto.CreateSubmissionRequest {
	return &dto.CreateSubmissionRequest{Dataset: fmt.Sprint(ds), Label: fmt.Sprint(label)}
}

func TestValidateSubmission(t *testing.T) {
	upload := &ImageUpload{Reader: strings.NewReader("x"), Size: 1}

	tests := []struct {
		name    string
		req     dto.CreateSubmissionRequest
		upload  *ImageUpload
		wantErr string
	}{
		{"valid", dto.CreateSubmissionRequest{Dataset: "1", Label: "2"}, upload, ""},
		{"missing dataset", dto.CreateSubmissionRequest{Label: "2"}, upload, "dataset: this field is required"},
		{"non numeric label", dto.CreateSubmissionRequest{Dataset: "1", Label: "cat"}, upload, "label: invalid pk"},
		{"zero id", dto.CreateSubmissionRequest{Dataset: "0", Label: "2"}, upload, "dataset: invalid pk"},
		{"missing image", dto.CreateSubmissionRequest{Dataset: "1", Label: "2"}, nil, "image: no file"},
		{"empty image", dto.CreateSubmissionRequest{Dataset: "1", Label: "2"}, &ImageUpload{Reader: strings.NewReader("")}, "image: the submitted file is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, label, err := ValidateSubmission(&tt.req, tt.upload)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, uint(1), ds)
				assert.Equal(t, uint(2), label)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Contains(t, apperr.MessageOf(err), tt.wantErr)
		})
	}
}

func TestSubmissionService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.mustRegister(t, "alice", "pw123")
	ds := testutil.CreateDataset(t, env.db, "animals", "cat", "dog")

	before := time.Now().Add(-time.Second)
	resp, err := env.submissions.CreateSubmission(ctx, userID, submitForm(ds.ID, ds.Labels[1].ID), pngUpload(t))
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, userID, resp.User.ID)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, ds.ID, resp.Dataset)
	assert.Equal(t, ds.Labels[1].ID, resp.Label)
	assert.True(t, resp.CreatedAt.After(before))
	assert.True(t, strings.HasPrefix(resp.Image, "http://media.test/"+storage.SubmissionsPrefix))
	assert.True(t, strings.HasSuffix(resp.Image, ".png"))

	keys := env.store.Keys()
	require.Len(t, keys, 1)
	data, contentType, ok := env.store.Get(keys[0])
	require.True(t, ok)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, testutil.PNG(t), data)

	var stored models.Submission
	require.NoError(t, env.db.First(&stored, resp.ID).Error)
	assert.Equal(t, keys[0], stored.Image)
	assert.Equal(t, int64(len(data)), stored.Size)
}

func TestSubmissionService_CreateRejectsUnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.mustRegister(t, "alice", "pw123")
	ds := testutil.CreateDataset(t, env.db, "animals", "cat")

	_, err := env.submissions.CreateSubmission(ctx, userID, submitForm(ds.ID+10, ds.Labels[0].ID), pngUpload(t))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.MessageOf(err), "dataset")

	_, err = env.submissions.CreateSubmission(ctx, userID, submitForm(ds.ID, 999), pngUpload(t))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.MessageOf(err), "label")

	assert.Empty(t, env.store.Keys())
}

func TestSubmissionService_CreateRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	userID := env.mustRegister(t, "alice", "pw123")
	ds := testutil.CreateDataset(t, env.db, "animals", "cat")

	body := []byte("#!/bin/sh\necho not an image\n")
	upload := &ImageUpload{Reader: bytes.NewReader(body), Size: int64(len(body)), Filename: "cat.png"}
	_, err := env.submissions.CreateSubmission(context.Background(), userID, submitForm(ds.ID, ds.Labels[0].ID), upload)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.MessageOf(err), "image")
	assert.Empty(t, env.store.Keys())
}

func TestSubmissionService_CreateRejectsOversizedUpload(t *testing.T) {
	env := newTestEnv(t)
	userID := env.mustRegister(t, "alice", "pw123")
	ds := testutil.CreateDataset(t, env.db, "animals", "cat")

	upload := pngUpload(t)
	upload.Size = env.cfg.Storage.GetMaxUploadBytes() + 1
	_, err := env.submissions.CreateSubmission(context.Background(), userID, submitForm(ds.ID, ds.Labels[0].ID), upload)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSubmissionService_StorageFailure(t *testing.T) {
	env := newTestEnv(t)
	userID := env.mustRegister(t, "alice", "pw123")
	ds := testutil.CreateDataset(t, env.db, "animals", "cat")
	env.store.PutErr = errors.New("disk full")

	_, err := env.submissions.CreateSubmission(context.Background(), userID, submitForm(ds.ID, ds.Labels[0].ID), pngUpload(t))
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.Equal(t, 500, apperr.HTTPStatus(err))

	var count int64
	require.NoError(t, env.db.Model(&models.Submission{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmissionService_LabelDatasetConsistency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.mustRegister(t, "alice", "pw123")
	animals := testutil.CreateDataset(t, env.db, "animals", "cat")
	vehicles := testutil.CreateDataset(t, env.db, "vehicles", "car")

	// 默认不检查标签是否属于数据集
	resp, err := env.submissions.CreateSubmission(ctx, userID, submitForm(animals.ID, vehicles.Labels[0].ID), pngUpload(t))
	require.NoError(t, err)
	assert.Equal(t, animals.ID, resp.Dataset)
	assert.Equal(t, vehicles.Labels[0].ID, resp.Label)

	env.cfg.Submissions.EnforceLabelDataset = true
	_, err = env.submissions.CreateSubmission(ctx, userID, submitForm(animals.ID, vehicles.Labels[0].ID), pngUpload(t))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = env.submissions.CreateSubmission(ctx, userID, submitForm(animals.ID, animals.Labels[0].ID), pngUpload(t))
	assert.NoError(t, err)
}

func TestSubmissionService_ListOnlyOwnNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mustRegister(t, "alice", "pw123")
	bob := env.mustRegister(t, "bob", "pw456")
	ds := testutil.CreateDataset(t, env.db, "animals", "cat")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	env.submissions.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, uid := range []uint{alice, bob, alice, alice, bob} {
		_, err := env.submissions.CreateSubmission(ctx, uid, submitForm(ds.ID, ds.Labels[0].ID), pngUpload(t))
		require.NoError(t, err)
	}

	list, err := env.submissions.ListSubmissions(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, s := range list {
		assert.Equal(t, alice, s.User.ID)
		if i > 0 {
			assert.False(t, s.CreatedAt.After(list[i-1].CreatedAt), "not newest first")
		}
	}
	assert.True(t, list[0].CreatedAt.After(list[2].CreatedAt))

	dash, err := env.submissions.Dashboard(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.TotalSubmissions)
	assert.Len(t, dash.Submissions, dash.TotalSubmissions)
}

func TestSubmissionService_DashboardEmpty(t *testing.T) {
	env := newTestEnv(t)
	userID := env.mustRegister(t, "alice", "pw123")

	dash, err := env.submissions.Dashboard(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 0, dash.TotalSubmissions)
	assert.NotNil(t, dash.Submissions)
	assert.Empty(t, dash.Submissions)
}

func TestSubmissionService_AdminList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mustRegister(t, "alice", "pw123")
	bob := env.mustRegister(t, "bob", "pw456")
	ds := testutil.CreateDataset(t, env.db, "animals", "cat", "dog")

	for _, uid := range []uint{alice, bob, bob} {
		_, err := env.submissions.CreateSubmission(ctx, uid, submitForm(ds.ID, ds.Labels[0].ID), pngUpload(t))
		require.NoError(t, err)
	}
	_, err := env.submissions.CreateSubmission(ctx, alice, submitForm(ds.ID, ds.Labels[1].ID), pngUpload(t))
	require.NoError(t, err)

	all, err := env.submissions.AdminList(ctx, &dto.SubmissionQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 20, all.PerPage)

	byUser, err := env.submissions.AdminList(ctx, &dto.SubmissionQuery{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byUser.Total)

	byLabel, err := env.submissions.AdminList(ctx, &dto.SubmissionQuery{Label: ds.Labels[1].ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), byLabel.Total)
	assert.Equal(t, alice, byLabel.Submissions[0].User.ID)

	paged, err := env.submissions.AdminList(ctx, &dto.SubmissionQuery{Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), paged.Total)
	assert.Len(t, paged.Submissions, 1)
}
