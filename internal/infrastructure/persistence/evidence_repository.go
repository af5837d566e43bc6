package persistence

import (
	"context"

	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEvidenceRepository implements inspection.EvidenceRepository
type GormEvidenceRepository struct {
	db *rls.DB
}

func NewGormEvidenceRepository(db *rls.DB) *GormEvidenceRepository {
	return &GormEvidenceRepository{db: db}
}

func (r *GormEvidenceRepository) FindMedia(ctx context.Context, inspectionID uuid.UUID) ([]inspection.Media, error) {
	var rows []models.InspectionMediaModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Where("inspection_id = ?", inspectionID).Order("created_at").Find(&rows).Error
	})
	if err != nil {
		return nil, translateError("list inspection media", err)
	}
	media := make([]inspection.Media, len(rows))
	for i := range rows {
		media[i] = *rows[i].ToDomain()
	}
	return media, nil
}

func (r *GormEvidenceRepository) FindMediaByID(ctx context.Context, id uuid.UUID) (*inspection.Media, error) {
	var model models.InspectionMediaModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("find inspection media", err)
	}
	return model.ToDomain(), nil
}

func (r *GormEvidenceRepository) SaveMedia(ctx context.Context, m *inspection.Media) error {
	return translateError("save inspection media", r.db.Run(ctx, func(tx *gorm.DB) error {
		return upsert(tx, models.InspectionMediaModelFromDomain(m))
	}))
}

func (r *GormEvidenceRepository) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	return translateError("delete inspection media", r.db.Run(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.InspectionMediaModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

func (r *GormEvidenceRepository) FindSignatures(ctx context.Context, inspectionID uuid.UUID) ([]inspection.Signature, error) {
	var rows []models.InspectionSignatureModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Where("inspection_id = ?", inspectionID).Order("kind").Find(&rows).Error
	})
	if err != nil {
		return nil, translateError("list inspection signatures", err)
	}
	sigs := make([]inspection.Signature, len(rows))
	for i := range rows {
		sigs[i] = rows[i].ToDomain()
	}
	return sigs, nil
}

// SaveSignatures keeps one signature per kind; a new one replaces the old.
func (r *GormEvidenceRepository) SaveSignatures(ctx context.Context, sigs []inspection.Signature) error {
	if len(sigs) == 0 {
		return nil
	}
	rows := make([]*models.InspectionSignatureModel, len(sigs))
	for i := range sigs {
		rows[i] = models.InspectionSignatureModelFromDomain(&sigs[i])
	}
	return translateError("save inspection signatures", r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "inspection_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"signer_name", "signer_role", "storage_key", "signed_at", "updated_at"}),
		}).Create(&rows).Error
	}))
}

var _ inspection.EvidenceRepository = (*GormEvidenceRepository)(nil)
