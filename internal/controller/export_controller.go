package controller

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"geonotes_backend/internal/model"
	"geonotes_backend/pkg/apperr"
	"geonotes_backend/pkg/database"
	"geonotes_backend/pkg/export"
	"geonotes_backend/pkg/jsonval"
)

// ExportFeatures streams every feature as CSV: one column per dotted path
// seen across the composite views, geometry rendered as WKT. Staff only.
func ExportFeatures(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}
	if !requester.IsStaff {
		return apperr.Forbidden("only staff can export data")
	}

	var features []model.Feature
	if err := database.GetDB().Preload("User").Preload("Properties").Preload("Properties.User").
		Order("features.id").Find(&features).Error; err != nil {
		return err
	}

	records := make([]*jsonval.Object, 0, len(features))
	for i := range features {
		view, err := features[i].ToJSON()
		if err != nil {
			return err
		}
		records = append(records, view)
	}

	srid := cfg.Geo.SRID
	if len(features) > 0 {
		srid = features[0].SRID
	}

	return sendCSV(c, records, export.Filename("features", srid))
}

// ExportProperties streams every property's JSON view as CSV. Staff only.
func ExportProperties(c *fiber.Ctx) error {
	requester, err := requestUser(c)
	if err != nil {
		return err
	}
	if !requester.IsStaff {
		return apperr.Forbidden("only staff can export data")
	}

	var properties []model.Property
	if err := database.GetDB().Preload("User").
		Order("properties.id").Find(&properties).Error; err != nil {
		return err
	}

	records := make([]*jsonval.Object, 0, len(properties))
	for i := range properties {
		view, err := properties[i].ToJSON()
		if err != nil {
			return err
		}
		records = append(records, view)
	}

	return sendCSV(c, records, "properties.csv")
}

func sendCSV(c *fiber.Ctx, records []*jsonval.Object, filename string) error {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records, export.Selectors(records)); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(buf.Bytes())
}
