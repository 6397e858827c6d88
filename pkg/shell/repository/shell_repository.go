package repository

import "soilscan/entities"

type ShellRepository interface {
	ListNotifications() ([]entities.Notification, error)
	CreateNotification(*entities.Notification) error
	FindNotification(id uint) (*entities.Notification, error)
	MarkRead(id uint) error
	UnreadCount() (int64, error)

	GetSettings(clientID string) (*entities.ShellSettings, error)
	SaveSettings(*entities.ShellSettings) error
}
