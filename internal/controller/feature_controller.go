package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"geonotes_backend/internal/access"
	"geonotes_backend/internal/model"
	"geonotes_backend/pkg/apperr"
	"geonotes_backend/pkg/database"
)

// GetFeatures returns a FeatureCollection of every feature visible to the
// requester under the user/group selectors, optionally narrowed to one id.
func GetFeatures(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}

	q, err := access.FeatureScope(database.GetDB(), requester, userParam(c), groupParam(c))
	if err != nil {
		return err
	}

	if featureSel := c.Params("feature"); featureSel != "" {
		featureID, err := access.ParseID(featureSel, "feature")
		if err != nil {
			return err
		}
		q = q.Where("features.id = ?", featureID)
	}

	var features []model.Feature
	if err := q.Preload("User").Preload("Properties").Preload("Properties.User").
		Order("features.id").Find(&features).Error; err != nil {
		return err
	}

	views := make([]interface{}, 0, len(features))
	for i := range features {
		view, err := features[i].ToJSON()
		if err != nil {
			return err
		}
		views = append(views, view)
	}

	srid := cfg.Geo.SRID
	if len(features) > 0 {
		srid = features[0].SRID
	}

	return c.JSON(fiber.Map{
		"type":     "FeatureCollection",
		"features": views,
		"crs": fiber.Map{
			"type":       "name",
			"properties": fiber.Map{"code": fmt.Sprintf("EPSG:%d", srid)},
		},
	})
}

// PostFeature creates a feature owned by the requester, together with the
// requester's initial property taken from the document's properties member.
func PostFeature(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}

	target, err := access.ResolveUser(database.GetDB(), requester, userParam(c))
	if err != nil {
		return err
	}
	if err := access.RequireSelf(requester, target, "create features"); err != nil {
		return err
	}

	doc := new(model.FeatureDocument)
	if err := c.BodyParser(doc); err != nil {
		return apperr.Validation("the request body is not a valid GeoJSON feature: %v", err)
	}

	group := groupParam(c)
	feature, err := model.CreateFeature(database.GetDB(), requester, group, doc, cfg.Geo.SRID)
	if err != nil {
		return err
	}

	view, err := feature.ToJSON()
	if err != nil {
		return err
	}

	c.Set("Location", fmt.Sprintf("/feat/%s/%s/%d", target.Username, group, feature.ID))
	return c.Status(fiber.StatusCreated).JSON(view)
}

// PutFeature applies a partial GeoJSON document to a feature. Acting as
// anyone but yourself is refused; a non-owner's update only ever touches
// their own attached property.
func PutFeature(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}

	target, err := access.ResolveUser(database.GetDB(), requester, userParam(c))
	if err != nil {
		return err
	}
	if err := access.RequireSelf(requester, target, "update features"); err != nil {
		return err
	}

	feature, err := visibleFeature(c, requester)
	if err != nil {
		return err
	}

	doc := new(model.FeatureDocument)
	if err := c.BodyParser(doc); err != nil {
		return apperr.Validation("the request body is not a valid GeoJSON feature: %v", err)
	}

	if err := feature.UpdateFrom(database.GetDB(), requester, doc); err != nil {
		return err
	}

	updated, err := model.FindFeature(database.GetDB(), feature.ID)
	if err != nil {
		return err
	}
	view, err := updated.ToJSON()
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// DeleteFeature removes a feature. Only the stored owner may delete it.
func DeleteFeature(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}

	target, err := access.ResolveUser(database.GetDB(), requester, userParam(c))
	if err != nil {
		return err
	}
	if err := access.RequireSelf(requester, target, "delete features"); err != nil {
		return err
	}

	featureID, err := access.ParseID(c.Params("feature"), "feature")
	if err != nil {
		return err
	}

	feature, err := model.FindFeature(database.GetDB(), featureID)
	if err != nil {
		return err
	}
	if err := access.RequireOwner(requester, feature.UserID, "delete a feature"); err != nil {
		return err
	}

	if err := model.DeleteFeature(database.GetDB(), feature); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "A feature was deleted"})
}

// visibleFeature loads the feature named in the path, still subject to the
// requester's visibility scope. A feature the requester may not see is
// indistinguishable from a missing one.
func visibleFeature(c *fiber.Ctx, requester *model.User) (*model.Feature, error) {
	featureID, err := access.ParseID(c.Params("feature"), "feature")
	if err != nil {
		return nil, err
	}

	q, err := access.FeatureScope(database.GetDB(), requester, access.SelectorAll, access.SelectorAll)
	if err != nil {
		return nil, err
	}

	var feature model.Feature
	if err := q.Preload("User").Where("features.id = ?", featureID).First(&feature).Error; err != nil {
		return nil, apperr.NotFound("feature %d was not found", featureID)
	}
	return &feature, nil
}
