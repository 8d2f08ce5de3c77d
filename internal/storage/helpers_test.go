package storage

import "lms-backend/internal/config"

func testConfig(storageType string) *config.Config {
	return &config.Config{StorageType: storageType}
}
