package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wildlife-progress/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps documents in the profile_documents table (postgres in
// production, sqlite for single-node setups and tests).
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore migrates the profile_documents table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.ProfileDocument{}); err != nil {
		return nil, fmt.Errorf("failed to migrate profile documents: %w", err)
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc models.ProfileDocument
	err := s.DB.WithContext(ctx).Where("doc_key = ?", key).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Body, nil
}

// Put upserts the whole document.
func (s *GormStore) Put(ctx context.Context, key string, body []byte) error {
	doc := models.ProfileDocument{Key: key, Body: body}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&doc).Error
}

func (s *GormStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.DB.WithContext(ctx).
		Model(&models.ProfileDocument{}).
		Where("doc_key LIKE ?", prefix+"%").
		Order("doc_key ASC").
		Pluck("doc_key", &keys).Error
	if err != nil {
		return nil, err
	}
	// LIKE treats _ and % in prefix as wildcards.
	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}
