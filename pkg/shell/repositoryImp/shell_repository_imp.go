package repositoryImp

import (
	"errors"

	"gorm.io/gorm"

	"soilscan/entities"
	"soilscan/pkg/shell/repository"
)

type shellRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.ShellRepository { return &shellRepo{db} }

func (r *shellRepo) ListNotifications() ([]entities.Notification, error) {
	var out []entities.Notification
	if err := r.db.Order("created_at DESC, note_id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shellRepo) CreateNotification(n *entities.Notification) error { return r.db.Create(n).Error }

func (r *shellRepo) FindNotification(id uint) (*entities.Notification, error) {
	var n entities.Notification
	if err := r.db.First(&n, "note_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkRead is idempotent: already-read rows are left alone.
func (r *shellRepo) MarkRead(id uint) error {
	return r.db.Model(&entities.Notification{}).
		Where("note_id = ? AND read = ?", id, false).
		Update("read", true).Error
}

// UnreadCount is derived, never stored.
func (r *shellRepo) UnreadCount() (int64, error) {
	var n int64
	err := r.db.Model(&entities.Notification{}).Where("read = ?", false).Count(&n).Error
	return n, err
}

// GetSettings lazily creates the default row for a new client.
func (r *shellRepo) GetSettings(clientID string) (*entities.ShellSettings, error) {
	var s entities.ShellSettings
	err := r.db.First(&s, "client_id = ?", clientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = entities.ShellSettings{ClientID: clientID, WeatherAlerts: false}
		if err := r.db.Create(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shellRepo) SaveSettings(s *entities.ShellSettings) error { return r.db.Save(s).Error }
