package model

import (
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"geonotes_backend/pkg/apperr"
	"geonotes_backend/pkg/geometry"
	"geonotes_backend/pkg/jsonval"
)

// Feature is a geo-tagged entity owned by one user. Other users attach
// their own Property rows to it through the feature_properties join table,
// at most one property per user.
type Feature struct {
	gorm.Model
	UserID  uint   `json:"user_id" gorm:"not null;index"`
	Group   string `json:"group" gorm:"size:50"`
	Private bool   `json:"private"`

	// Geom holds the validated GeoJSON geometry object; SRID the spatial
	// reference system its coordinates are expressed in.
	Geom datatypes.JSON `json:"geometry" gorm:"not null"`
	SRID int            `json:"srid" gorm:"not null"`

	ExpireTime *time.Time `json:"expire_time"`

	User       User       `json:"-" gorm:"foreignKey:UserID"`
	Properties []Property `json:"-" gorm:"many2many:feature_properties"`
}

func (f *Feature) BeforeCreate(tx *gorm.DB) error {
	if f.Group == "" {
		f.Group = DefaultGroup
	}
	return nil
}

// FeatureDocument is the GeoJSON Feature wire payload accepted on create
// and update. Server-derived fields (id, user, time) are ignored on input;
// an embedded CRS block overrides the configured SRID for that write.
type FeatureDocument struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	CRS        json.RawMessage `json:"crs,omitempty"`
	Properties json.RawMessage `json:"properties"`
	Private    *bool           `json:"private"`
}

// CreateFeature validates the document's geometry, stores the feature and
// atomically creates the owner's initial property from the document's
// properties member. Private defaults to true when absent.
func CreateFeature(db *gorm.DB, owner *User, group string, doc *FeatureDocument, defaultSRID int) (*Feature, error) {
	srid := geometry.ParseCRS(doc.CRS, defaultSRID)
	geom, err := geometry.Decode(doc.Geometry, srid)
	if err != nil {
		return nil, err
	}

	private := true
	if doc.Private != nil {
		private = *doc.Private
	}

	feature := &Feature{
		UserID:  owner.ID,
		Group:   group,
		Private: private,
		Geom:    datatypes.JSON(geom.Encode()),
		SRID:    srid,
	}

	var property *Property
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(feature).Error; err != nil {
			return err
		}

		property, err = CreateProperty(tx, owner, group, propertyPayload(doc))
		if err != nil {
			return err
		}
		return tx.Model(feature).Association("Properties").Append(property)
	})
	if err != nil {
		return nil, err
	}

	feature.User = *owner
	feature.Properties = []Property{*property}
	return feature, nil
}

// UpdateFrom applies the document on behalf of actor. The owner may change
// the private flag and their own attached property; any other user only
// creates or updates their own property on the feature, never the
// feature's fields. This is what lets several users annotate one shared
// feature without clobbering each other.
func (f *Feature) UpdateFrom(db *gorm.DB, actor *User, doc *FeatureDocument) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if actor.ID == f.UserID && doc.Private != nil {
			f.Private = *doc.Private
			if err := tx.Save(f).Error; err != nil {
				return err
			}
		}
		_, err := f.UpsertUserProperty(tx, actor, propertyPayload(doc))
		return err
	})
}

// UpsertUserProperty merges payload into actor's property on the feature,
// creating and associating one when none exists yet. At most one property
// per (feature, user) pair ever exists.
func (f *Feature) UpsertUserProperty(db *gorm.DB, actor *User, payload []byte) (*Property, error) {
	var existing Property
	err := db.
		Joins("JOIN feature_properties fp ON fp.property_id = properties.id").
		Where("fp.feature_id = ? AND properties.user_id = ?", f.ID, actor.ID).
		First(&existing).Error

	if err == nil {
		existing.User = *actor
		if err := existing.MergePayload(db, payload); err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	property, err := CreateProperty(db, actor, f.Group, payload)
	if err != nil {
		return nil, err
	}
	if err := db.Model(f).Association("Properties").Append(property); err != nil {
		return nil, err
	}
	return property, nil
}

// DeleteFeature removes the feature, its association rows and the owner's
// own attached property. Other users' properties survive as standalone
// rows.
func DeleteFeature(db *gorm.DB, f *Feature) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var attached []Property
		if err := tx.Model(f).Association("Properties").Find(&attached); err != nil {
			return err
		}
		if err := tx.Model(f).Association("Properties").Clear(); err != nil {
			return err
		}
		for i := range attached {
			if attached[i].UserID == f.UserID {
				if err := tx.Delete(&attached[i]).Error; err != nil {
					return err
				}
			}
		}
		return tx.Delete(f).Error
	})
}

// DeleteProperty removes a property after clearing any feature association
// it still has. The owning feature is never deleted.
func DeleteProperty(db *gorm.DB, p *Property) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM feature_properties WHERE property_id = ?", p.ID).Error; err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
}

// ToJSON assembles the composite GeoJSON view. The properties member is
// the merged union of every attached property's view, in association
// order, later properties winning on key collisions. Requires User and
// Properties (with their users) to be loaded.
func (f *Feature) ToJSON() (*jsonval.Object, error) {
	geom, err := jsonval.Decode(f.Geom)
	if err != nil {
		return nil, err
	}

	merged := jsonval.NewObject()
	for i := range f.Properties {
		view, err := f.Properties[i].ToJSON()
		if err != nil {
			return nil, err
		}
		merged.Merge(view)
	}

	view := jsonval.NewObject()
	view.Set("type", jsonval.String("Feature"))
	view.Set("id", jsonval.Number(strconv.FormatUint(uint64(f.ID), 10)))
	view.Set("geometry", geom)
	view.Set("private", jsonval.Bool(f.Private))
	view.Set("group", jsonval.String(f.Group))
	view.Set("user", jsonval.String(f.User.Username))
	view.Set("time", timeView(f.CreatedAt, f.ExpireTime))
	view.Set("properties", merged)
	return view, nil
}

func propertyPayload(doc *FeatureDocument) []byte {
	if len(doc.Properties) == 0 {
		return []byte("{}")
	}
	return doc.Properties
}

// FindFeature loads a feature by id with its owner and properties.
func FindFeature(db *gorm.DB, id uint) (*Feature, error) {
	var feature Feature
	err := db.Preload("User").Preload("Properties").Preload("Properties.User").First(&feature, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("feature %d was not found", id)
		}
		return nil, err
	}
	return &feature, nil
}
