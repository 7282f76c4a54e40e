package database

import "chenil/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Owner{},
		&models.Dog{},
		&models.Media{},
		&models.EditToken{},
		&models.SiteSetting{},
		&models.PushSubscription{},
		&models.AuditEntry{},
	}
}
