package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockfolio/stockfolio/pkg/models"
)

// HoldingStore is the durable keyed storage for (user, instrument) position
// records. Get returns (nil, nil) when no position exists. Implementations
// must make each individual operation atomic; serialization of a full
// read-modify-write sequence is the orchestrator's job.
type HoldingStore interface {
	Get(ctx context.Context, userID uuid.UUID, instrumentID string) (*models.Position, error)
	Upsert(ctx context.Context, pos *models.Position) error
	Delete(ctx context.Context, userID uuid.UUID, instrumentID string) error
	List(ctx context.Context, userID uuid.UUID) ([]models.Position, error)
}

// GormStore implements HoldingStore on a relational database via GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a HoldingStore backed by the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ HoldingStore = (*GormStore)(nil)

func (s *GormStore) Get(ctx context.Context, userID uuid.UUID, instrumentID string) (*models.Position, error) {
	var pos models.Position
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND instrument_id = ?", userID, instrumentID).
		First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get position: %v", ErrStoreUnavailable, err)
	}
	return &pos, nil
}

func (s *GormStore) Upsert(ctx context.Context, pos *models.Position) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "instrument_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity_held", "average_cost", "updated_at",
		}),
	}).Create(pos).Error
	if err != nil {
		return fmt.Errorf("%w: upsert position: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, userID uuid.UUID, instrumentID string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND instrument_id = ?", userID, instrumentID).
		Delete(&models.Position{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete position: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, userID uuid.UUID) ([]models.Position, error) {
	var positions []models.Position
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list positions: %v", ErrStoreUnavailable, err)
	}
	return positions, nil
}
