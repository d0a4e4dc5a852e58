package cli

import (
	"fmt"

	"labelhub/internal/models"
	"labelhub/internal/repository"
	"labelhub/internal/service"
	"labelhub/internal/storage"

	"github.com/spf13/cobra"
)

func seedCommand(opts *options) *cobra.Command {
	var (
		file  string
		prune bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create or update datasets and labels from a YAML file",
		Example: `  labelhub seed --file config/datasets.yaml
  labelhub seed --file config/datasets.yaml --prune`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			seedFile, err := service.LoadSeedFile(file)
			if err != nil {
				return err
			}

			db, err := models.InitDB(&cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("初始化数据库失败: %w", err)
			}
			defer models.Close(db)

			if err := models.AutoMigrate(db); err != nil {
				return fmt.Errorf("数据库迁移失败: %w", err)
			}

			// 清理时需要删除被级联删除的提交图片
			store, err := storage.New(&cfg.Storage, logger)
			if err != nil {
				return fmt.Errorf("初始化存储失败: %w", err)
			}

			seeder := service.NewSeedService(
				repository.NewDatasetRepository(db),
				repository.NewLabelRepository(db),
				store,
				logger,
			)
			result, err := seeder.Seed(cmd.Context(), seedFile, prune)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "datasets: %d created, %d updated, %d deleted; labels: %d created, %d deleted\n",
				result.DatasetsCreated, result.DatasetsUpdated, result.DatasetsDeleted,
				result.LabelsCreated, result.LabelsDeleted)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with dataset definitions")
	cmd.Flags().BoolVar(&prune, "prune", false, "Delete datasets and labels not present in the file, including their submissions")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
