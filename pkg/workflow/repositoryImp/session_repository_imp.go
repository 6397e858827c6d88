package repositoryImp

import (
	"gorm.io/gorm"

	"soilscan/entities"
	"soilscan/pkg/workflow/repository"
)

type sessionRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.SessionRepository { return &sessionRepo{db} }

func (r *sessionRepo) Create(s *entities.Session) error { return r.db.Create(s).Error }

func (r *sessionRepo) Find(id string) (*entities.Session, error) {
	var s entities.Session
	if err := r.db.Preload("Crops", func(db *gorm.DB) *gorm.DB {
		return db.Order("crop_id ASC")
	}).First(&s, "session_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes every column, including zeroed ones — resets must stick.
func (r *sessionRepo) Save(s *entities.Session) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: false}).
		Omit("Crops").Save(s).Error
}

func (r *sessionRepo) Delete(id string) error {
	if err := r.DeleteCrops(id); err != nil {
		return err
	}
	return r.db.Delete(&entities.Session{}, "session_id = ?", id).Error
}

func (r *sessionRepo) ReplaceCrops(sessionID string, crops []entities.CropSuggestion) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&entities.CropSuggestion{}).Error; err != nil {
			return err
		}
		if len(crops) == 0 {
			return nil
		}
		return tx.Create(&crops).Error
	})
}

func (r *sessionRepo) DeleteCrops(sessionID string) error {
	return r.db.Where("session_id = ?", sessionID).Delete(&entities.CropSuggestion{}).Error
}

func (r *sessionRepo) FindCrop(cropID uint) (*entities.CropSuggestion, error) {
	var cs entities.CropSuggestion
	if err := r.db.First(&cs, "crop_id = ?", cropID).Error; err != nil {
		return nil, err
	}
	return &cs, nil
}

func (r *sessionRepo) SaveCrop(cs *entities.CropSuggestion) error { return r.db.Save(cs).Error }
