package infrastructure

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wordbearer/domain"
)

// GormResultStore keeps results of all leagues in one match_results table.
type GormResultStore struct {
	db *gorm.DB
}

func NewMySQLResultStore(dsn string) (*GormResultStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect results database: %w", err)
	}
	return NewGormResultStore(db)
}

// NewGormResultStore migrates the schema on an open connection.
func NewGormResultStore(db *gorm.DB) (*GormResultStore, error) {
	if err := db.AutoMigrate(&domain.MatchResult{}); err != nil {
		return nil, fmt.Errorf("migrate results schema: %w", err)
	}
	return &GormResultStore{db: db}, nil
}

func (s *GormResultStore) AppendResult(ctx context.Context, league string, r domain.MatchResult) error {
	r.ID = 0
	r.LeagueName = league
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *GormResultStore) Results(ctx context.Context, league string) ([]domain.MatchResult, error) {
	var rows []domain.MatchResult
	err := s.db.WithContext(ctx).
		Where("league_name = ?", league).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	return rows, nil
}
