package seed

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"geonotes_backend/internal/model"
)

// SeedDemoData creates a couple of users and features for local
// development. Safe to call repeatedly.
func SeedDemoData(db *gorm.DB, defaultSRID int) {
	var count int64
	db.Model(&model.User{}).Count(&count)
	if count > 0 {
		return
	}

	users := []struct {
		username string
		email    string
		staff    bool
	}{
		{"demo", "demo@example.com", false},
		{"surveyor", "surveyor@example.com", false},
		{"admin", "admin@example.com", true},
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("passwd"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Could not hash seed password: %v", err)
		return
	}

	created := make([]*model.User, 0, len(users))
	for _, u := range users {
		user := &model.User{
			Username: u.username,
			Email:    u.email,
			Password: string(hashed),
			IsStaff:  u.staff,
		}
		if err := db.Create(user).Error; err != nil {
			log.Printf("Could not seed user %s: %v", u.username, err)
			return
		}
		created = append(created, user)
	}

	private := false
	doc := &model.FeatureDocument{
		Type:       "Feature",
		Geometry:   []byte(`{"type":"Point","coordinates":[24.9384,60.1699]}`),
		Properties: []byte(`{"name":"Helsinki city centre","category":"landmark"}`),
		Private:    &private,
	}
	if _, err := model.CreateFeature(db, created[0], model.DefaultGroup, doc, defaultSRID); err != nil {
		log.Printf("Could not seed demo feature: %v", err)
		return
	}

	log.Println("Seeded demo users and features")
}
