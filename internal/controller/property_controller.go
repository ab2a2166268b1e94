package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"geonotes_backend/internal/access"
	"geonotes_backend/internal/model"
	"geonotes_backend/pkg/apperr"
	"geonotes_backend/pkg/database"
)

// GetProperties returns the properties visible to the requester. A single
// match is returned bare, several as {totalResults, entry}; an empty
// result is a not-found, matching the historical API.
func GetProperties(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}

	featureSel := c.Params("feature", access.SelectorNull)
	q, err := access.PropertyScope(database.GetDB(), requester, userParam(c), groupParam(c), featureSel)
	if err != nil {
		return err
	}

	if propertySel := c.Params("property"); propertySel != "" && propertySel != access.SelectorAll {
		propertyID, err := access.ParseID(propertySel, "property")
		if err != nil {
			return err
		}
		q = q.Where("properties.id = ?", propertyID)
	}

	var properties []model.Property
	if err := q.Preload("User").Order("properties.id").Find(&properties).Error; err != nil {
		return err
	}

	if len(properties) == 0 {
		return apperr.NotFound("the property you queried was not found")
	}

	if len(properties) == 1 {
		view, err := properties[0].ToJSON()
		if err != nil {
			return err
		}
		return c.JSON(view)
	}

	views := make([]interface{}, 0, len(properties))
	for i := range properties {
		view, err := properties[i].ToJSON()
		if err != nil {
			return err
		}
		views = append(views, view)
	}
	return c.JSON(fiber.Map{
		"totalResults": len(views),
		"entry":        views,
	})
}

// PostProperty creates a property owned by the requester from the raw JSON
// object in the body. A literal feature segment attaches the property to
// that feature, merging into the requester's existing property there if
// one exists already.
func PostProperty(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}

	target, err := access.ResolveUser(database.GetDB(), requester, userParam(c))
	if err != nil {
		return err
	}
	if err := access.RequireSelf(requester, target, "create properties"); err != nil {
		return err
	}

	group := groupParam(c)
	featureSel := c.Params("feature", access.SelectorNull)
	if featureSel == "" {
		featureSel = access.SelectorNull
	}
	if featureSel == access.SelectorAll {
		return apperr.Validation("a property can only be created standalone (@null) or on one feature")
	}

	payload := c.Body()
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	var property *model.Property
	if featureSel == access.SelectorNull {
		property, err = model.CreateProperty(database.GetDB(), requester, group, payload)
		if err != nil {
			return err
		}
	} else {
		featureID, err := access.ParseID(featureSel, "feature")
		if err != nil {
			return err
		}

		var feature model.Feature
		if err := database.GetDB().Where(`features."group" = ?`, group).
			First(&feature, featureID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("feature %d was not found in group %s", featureID, group)
			}
			return err
		}

		property, err = feature.UpsertUserProperty(database.GetDB(), requester, payload)
		if err != nil {
			return err
		}
	}

	view, err := property.ToJSON()
	if err != nil {
		return err
	}

	c.Set("Location", fmt.Sprintf("/prop/%s/%s/%s/%d", target.Username, group, featureSel, property.ID))
	return c.Status(fiber.StatusCreated).JSON(view)
}

// PutProperty shallow-merges the body into the requester's own property.
func PutProperty(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}

	target, err := access.ResolveUser(database.GetDB(), requester, userParam(c))
	if err != nil {
		return err
	}
	if err := access.RequireSelf(requester, target, "update properties"); err != nil {
		return err
	}

	propertyID, err := access.ParseID(c.Params("property"), "property")
	if err != nil {
		return err
	}

	var property model.Property
	if err := database.GetDB().Where("user_id = ?", requester.ID).
		First(&property, propertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("property %d was not found", propertyID)
		}
		return err
	}

	if err := property.MergePayload(database.GetDB(), c.Body()); err != nil {
		return err
	}

	property.User = *requester
	view, err := property.ToJSON()
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// DeleteProperty removes a property owned by the requester, clearing any
// feature association first.
func DeleteProperty(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}

	propertyID, err := access.ParseID(c.Params("property"), "property")
	if err != nil {
		return err
	}

	var property model.Property
	if err := database.GetDB().First(&property, propertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("property %d was not found", propertyID)
		}
		return err
	}
	if err := access.RequireOwner(requester, property.UserID, "delete a property"); err != nil {
		return err
	}

	if err := model.DeleteProperty(database.GetDB(), &property); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "A property was deleted"})
}
