package cli

import (
	"fmt"

	"labelhub/internal/models"

	"github.com/spf13/cobra"
)

func migrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
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
			logger.WithField("driver", cfg.Database.Driver).Info("数据库迁移完成")
			return nil
		},
	}
}
