package model

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"geonotes_backend/pkg/apperr"
	"geonotes_backend/pkg/jsonval"
)

const DefaultGroup = "@self"

// MaxGroupLength is enforced on the group path segment before it reaches
// the models.
const MaxGroupLength = 50

// Property is a free-form key/value payload a user attaches to a feature,
// or keeps standalone. A feature holds at most one property per user; the
// join table lives in feature_properties.
//
// The (user, payload hash, create time) index refuses literal duplicate
// inserts of the same payload through the same creation call.
type Property struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at" gorm:"uniqueIndex:idx_property_dedupe"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	UserID      uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_property_dedupe"`
	Group       string         `json:"group" gorm:"size:50"`
	Payload     datatypes.JSON `json:"payload"`
	PayloadHash string         `json:"-" gorm:"size:64;uniqueIndex:idx_property_dedupe"`
	ExpireTime  *time.Time     `json:"expire_time"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (p *Property) BeforeSave(tx *gorm.DB) error {
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if len(p.Payload) == 0 {
		p.Payload = datatypes.JSON("{}")
	}

	obj, err := jsonval.DecodeObject(p.Payload)
	if err != nil {
		return apperr.Validation("property payload must be a JSON object: %v", err)
	}
	canonical, err := obj.MarshalJSON()
	if err != nil {
		return err
	}
	sum := sha256.Sum256(canonical)
	p.PayloadHash = hex.EncodeToString(sum[:])
	return nil
}

// CreateProperty stores a new property for owner. The payload must be a
// JSON object; an identical payload stored by the same owner at the same
// instant is refused as a duplicate.
func CreateProperty(db *gorm.DB, owner *User, group string, payload []byte) (*Property, error) {
	property := &Property{
		UserID:  owner.ID,
		Group:   group,
		Payload: datatypes.JSON(payload),
	}

	if err := db.Create(property).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("an identical property already exists")
		}
		return nil, err
	}

	property.User = *owner
	return property, nil
}

// MergePayload shallow-merges partial into the stored payload: keys in
// partial overwrite same-named keys, every other key is untouched. Owner,
// group and timestamps are not changed.
func (p *Property) MergePayload(db *gorm.DB, partial []byte) error {
	current, err := jsonval.DecodeObject(p.Payload)
	if err != nil {
		return apperr.Validation("stored property payload is not a JSON object: %v", err)
	}
	incoming, err := jsonval.DecodeObject(partial)
	if err != nil {
		return apperr.Validation("property payload must be a JSON object: %v", err)
	}

	current.Merge(incoming)
	merged, err := current.MarshalJSON()
	if err != nil {
		return err
	}

	p.Payload = datatypes.JSON(merged)
	return db.Save(p).Error
}

// ToJSON returns the property's JSON view: the payload merged with the
// derived id, user, group and time fields. The derived fields win on a key
// collision, so a payload key literally named "id" is shadowed by the real
// identifier. Requires User to be loaded.
func (p *Property) ToJSON() (*jsonval.Object, error) {
	view, err := jsonval.DecodeObject(p.Payload)
	if err != nil {
		return nil, err
	}

	view.Set("id", jsonval.Number(strconv.FormatUint(uint64(p.ID), 10)))
	view.Set("user", jsonval.String(p.User.Username))
	view.Set("group", jsonval.String(p.Group))
	view.Set("time", timeView(p.CreatedAt, p.ExpireTime))
	return view, nil
}

func timeView(created time.Time, expire *time.Time) *jsonval.Object {
	t := jsonval.NewObject()
	t.Set("create_time", jsonval.String(created.UTC().Format(time.RFC3339)))
	if expire != nil {
		t.Set("expire_time", jsonval.String(expire.UTC().Format(time.RFC3339)))
	} else {
		t.Set("expire_time", jsonval.String(""))
	}
	return t
}
