// Package store implements the signup record repository over the service
// database.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Repository struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func New(db *gorm.DB, log *zap.Logger, genID *snowflake.Node) *Repository {
	return &Repository{
		db:    db,
		log:   log.Named("signup.store"),
		genID: genID,
	}
}

// Create appends one record. Records are never updated or deleted.
func (r *Repository) Create(ctx context.Context, record *domain.Signup) error {
	if record.ID == 0 {
		record.ID = r.genID.Generate()
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	return nil
}

// Scan returns records matching every predicate in filter, oldest first.
func (r *Repository) Scan(ctx context.Context, filter domain.ScanFilter) ([]domain.Signup, error) {
	query := r.db.WithContext(ctx).Model(&domain.Signup{})
	for _, api := range filter.APIContains {
		// apis is a comma-joined set; wrap both sides in commas so "health"
		// cannot match "communityHealth".
		query = query.Where("(',' || apis || ',') LIKE ?", "%,"+api+",%")
	}
	if filter.KongConsumerID != "" {
		query = query.Where("kong_consumer_id = ?", filter.KongConsumerID)
	}
	if filter.OktaApplicationID != "" {
		query = query.Where("okta_application_id = ?", filter.OktaApplicationID)
	}

	var records []domain.Signup
	if err := query.Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreRead, err)
	}
	return records, nil
}

// FindPrevious returns every record for email older than before, full history.
func (r *Repository) FindPrevious(ctx context.Context, email string, before time.Time) ([]domain.Signup, error) {
	var records []domain.Signup
	err := r.db.WithContext(ctx).
		Where("email = ? AND created_at < ?", email, before).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreRead, err)
	}
	return records, nil
}

// Name implements the health check capability.
func (r *Repository) Name() string { return "database" }

// Healthy verifies the signups table answers a trivial query.
func (r *Repository) Healthy(ctx context.Context) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Signup{}).Limit(1).Count(&count).Error; err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreRead, err)
	}
	return nil
}
