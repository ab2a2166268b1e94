package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"geonotes_backend/internal/model"
	"geonotes_backend/pkg/database"
)

// InitExpiryCron schedules the nightly purge of features and properties
// whose expire time has passed.
func InitExpiryCron() {
	c := cron.New()

	_, err := c.AddFunc("0 3 * * *", func() {
		PurgeExpired()
	})
	if err != nil {
		log.Printf("Could not initialize expiry cron: %v", err)
		return
	}

	c.Start()
}

// PurgeExpired deletes every expired feature (with its association rows
// and the owner's attached property) and every expired standalone
// property.
func PurgeExpired() {
	now := time.Now()
	db := database.GetDB()

	var features []model.Feature
	if err := db.Where("expire_time IS NOT NULL AND expire_time < ?", now).Find(&features).Error; err != nil {
		log.Printf("Error fetching expired features: %v", err)
		return
	}
	for i := range features {
		if err := model.DeleteFeature(db, &features[i]); err != nil {
			log.Printf("Error deleting expired feature %d: %v", features[i].ID, err)
		}
	}

	var properties []model.Property
	if err := db.Where("expire_time IS NOT NULL AND expire_time < ?", now).Find(&properties).Error; err != nil {
		log.Printf("Error fetching expired properties: %v", err)
		return
	}
	for i := range properties {
		if err := model.DeleteProperty(db, &properties[i]); err != nil {
			log.Printf("Error deleting expired property %d: %v", properties[i].ID, err)
		}
	}

	if len(features) > 0 || len(properties) > 0 {
		log.Printf("Purged %d expired features and %d expired properties", len(features), len(properties))
	}
}
