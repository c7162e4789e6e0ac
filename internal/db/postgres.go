package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/types"
	"github.com/pagetone/pagetone-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "pagetone", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Book{},
		&types.Section{},
		&types.SectionAsset{},
		&types.Summary{},
		&types.SummaryVersion{},
		&types.AudioAsset{},
		&types.ReadingProgress{},
		&types.Note{},
		&types.JobRun{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name  string
		table string
		col   string
		ref   string
	}{
		{"fk_section_book_id", "section", "book_id", `"book"("id")`},
		{"fk_section_asset_book_id", "section_asset", "book_id", `"book"("id")`},
		{"fk_section_asset_section_id", "section_asset", "section_id", `"section"("id")`},
		{"fk_summary_section_id", "summary", "section_id", `"section"("id")`},
		{"fk_summary_version_summary_id", "summary_version", "summary_id", `"summary"("id")`},
		{"fk_audio_asset_version_id", "audio_asset", "version_id", `"summary_version"("id")`},
		{"fk_reading_progress_book_id", "reading_progress", "book_id", `"book"("id")`},
		{"fk_note_book_id", "note", "book_id", `"book"("id")`},
	}
	for _, c := range constraints {
		stmt := fmt.Sprintf(`
			ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q;
			ALTER TABLE %q ADD CONSTRAINT %q
			FOREIGN KEY (%q) REFERENCES %s ON DELETE CASCADE;
		`, c.table, c.name, c.table, c.name, c.col, c.ref)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
