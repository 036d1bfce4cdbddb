package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/catalog"
)

// ServiceModel is the GORM model for the services table.
type ServiceModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"type:varchar(200);not null"`
	Category       string    `gorm:"type:varchar(100);not null;default:''"`
	BasePriceCents int64     `gorm:"not null"`
	Currency       string    `gorm:"type:varchar(3);not null;default:'USD'"`
	Active         bool      `gorm:"not null"`
	CreatedAt      time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt      time.Time `gorm:"type:timestamptz;not null"`
}

func (ServiceModel) TableName() string { return "services" }

// ProviderModel is the GORM model for the providers table.
type ProviderModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	DisplayName string    `gorm:"type:varchar(200);not null"`
	Active      bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null"`
}

func (ProviderModel) TableName() string { return "providers" }

// GormServiceRepository implements catalog.ServiceRepository using GORM.
type GormServiceRepository struct {
	db *gorm.DB
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var model ServiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("service", id.String())
		}
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}
	return toServiceDomain(&model), nil
}

func (r *GormServiceRepository) ListActive(ctx context.Context) ([]*catalog.Service, error) {
	var models []ServiceModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("category ASC, name ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	services := make([]*catalog.Service, len(models))
	for i := range models {
		services[i] = toServiceDomain(&models[i])
	}
	return services, nil
}

// Upsert keeps the original created_at when the row already exists.
func (r *GormServiceRepository) Upsert(ctx context.Context, svc *catalog.Service) error {
	model := toServiceModel(svc)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category", "base_price_cents", "currency", "active", "updated_at"}),
	}).Create(model).Error
}

// GormProviderRepository implements catalog.ProviderRepository using GORM.
type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Provider, error) {
	var model ProviderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("provider", id.String())
		}
		return nil, fmt.Errorf("failed to find provider by ID: %w", err)
	}
	return catalog.ReconstructProvider(model.ID, model.DisplayName, model.Active, model.CreatedAt, model.UpdatedAt), nil
}

func (r *GormProviderRepository) Upsert(ctx context.Context, p *catalog.Provider) error {
	model := &ProviderModel{
		ID:          p.ID(),
		DisplayName: p.DisplayName(),
		Active:      p.IsActive(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "active", "updated_at"}),
	}).Create(model).Error
}

// --- Conversions ---

func toServiceModel(s *catalog.Service) *ServiceModel {
	return &ServiceModel{
		ID:             s.ID(),
		Name:           s.Name(),
		Category:       s.Category(),
		BasePriceCents: s.BasePriceCents(),
		Currency:       s.Currency(),
		Active:         s.IsActive(),
		CreatedAt:      s.CreatedAt(),
		UpdatedAt:      s.UpdatedAt(),
	}
}

func toServiceDomain(m *ServiceModel) *catalog.Service {
	return catalog.ReconstructService(
		m.ID, m.Name, m.Category,
		m.BasePriceCents, m.Currency, m.Active,
		m.CreatedAt, m.UpdatedAt,
	)
}
