package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"geonotes_backend/internal/model"
	"geonotes_backend/pkg/apperr"
	"geonotes_backend/pkg/config"
	"geonotes_backend/pkg/database"
	"geonotes_backend/pkg/utils/jwt"
)

var (
	cfg      = &config.Config{Geo: config.GeoConfig{SRID: 4326}}
	validate = validator.New()
)

// Init wires the loaded configuration into the controllers.
func Init(c *config.Config) {
	cfg = c
}

// requestUser loads the signed-in user behind the validated JWT claims.
func requestUser(c *fiber.Ctx) (*model.User, error) {
	claims, ok := c.Locals("user").(*jwt.Claims)
	if !ok {
		return nil, apperr.Unauthorized("the request has to be made by a signed in user")
	}

	var user model.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.Unauthorized("the signed in user no longer exists")
		}
		return nil, err
	}
	return &user, nil
}

// groupParam reads a group path segment, applying the default and the
// maximum length rule.
func groupParam(c *fiber.Ctx) string {
	group := c.Params("group", model.DefaultGroup)
	if group == "" {
		group = model.DefaultGroup
	}
	if len(group) > model.MaxGroupLength {
		group = group[:model.MaxGroupLength]
	}
	return group
}

func userParam(c *fiber.Ctx) string {
	user := c.Params("user", "@me")
	if user == "" {
		user = "@me"
	}
	return user
}
