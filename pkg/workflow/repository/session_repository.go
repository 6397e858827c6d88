package repository

import "soilscan/entities"

type SessionRepository interface {
	Create(*entities.Session) error
	Find(id string) (*entities.Session, error)
	Save(*entities.Session) error
	Delete(id string) error

	ReplaceCrops(sessionID string, crops []entities.CropSuggestion) error
	DeleteCrops(sessionID string) error
	FindCrop(cropID uint) (*entities.CropSuggestion, error)
	SaveCrop(*entities.CropSuggestion) error
}
