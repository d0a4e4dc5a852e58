package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"labelhub/internal/config"
	"labelhub/internal/dto"
	"labelhub/internal/repository"
	"labelhub/internal/testutil"
	"labelhub/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	store       *testutil.MemoryStore
	jwt         *utils.JWTManager
	auth        *AuthService
	datasets    *DatasetService
	submissions *SubmissionService
	admin       *AdminService
	seed        *SeedService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	cfg := testutil.Config()
	store := testutil.NewMemoryStore()
	log := testutil.Logger()
	jwtManager := utils.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Algorithm,
		cfg.JWT.GetAccessExpireDuration(), cfg.JWT.GetRefreshExpireDuration())

	userRepo := repository.NewUserRepository(db)
	datasetRepo := repository.NewDatasetRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	return &testEnv{
		db:          db,
		cfg:         cfg,
		store:       store,
		jwt:         jwtManager,
		auth:        NewAuthService(userRepo, jwtManager, cfg, nil),
		datasets:    NewDatasetService(datasetRepo, time.Minute, nil),
		submissions: NewSubmissionService(submissionRepo, datasetRepo, labelRepo, store, cfg, nil, log),
		admin:       NewAdminService(userRepo, store, log),
		seed:        NewSeedService(datasetRepo, labelRepo, store, log),
	}
}

func pngUpload(t *testing.T) *ImageUpload {
	t.Helper()
	data := testutil.PNG(t)
	return &ImageUpload{Reader: bytes.NewReader(data), Size: int64(len(data)), Filename: "a.png"}
}

func (e *testEnv) mustRegister(t *testing.T, username, password string) uint {
	t.Helper()
	user, err := e.auth.Register(context.Background(), &dto.RegisterRequest{Username: username, Password: password})
	require.NoError(t, err)
	return user.ID
}
