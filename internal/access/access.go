// Package access decides which features and properties a requester may
// see or mutate. Every function receives the store and the resolved
// requester explicitly; there is no ambient request state.
package access

import (
	"strconv"

	"gorm.io/gorm"

	"geonotes_backend/internal/model"
	"geonotes_backend/pkg/apperr"
)

// Selector sentinels accepted in the user, group and feature path segments.
const (
	SelectorMe     = "@me"
	SelectorOthers = "@others"
	SelectorAll    = "@all"
	SelectorNull   = "@null"
	SelectorSelf   = "@self"
)

// ResolveUser maps a user path segment to a concrete user. @me resolves to
// the requester, anything else is a literal username.
func ResolveUser(db *gorm.DB, requester *model.User, selector string) (*model.User, error) {
	if selector == "" || selector == SelectorMe {
		if requester == nil {
			return nil, apperr.Unauthorized("the request has to be made by a signed in user")
		}
		return requester, nil
	}

	var user model.User
	if err := db.Where("username = ?", selector).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("user %s was not found", selector)
		}
		return nil, err
	}
	return &user, nil
}

// FeatureScope composes the visibility predicate for feature reads:
//
//   - literal username or @me: everything when it is the requester,
//     otherwise only that user's non-private features
//   - @others: everyone else's non-private features
//   - @all: everything for staff; own plus others' non-private otherwise
//
// A group selector other than @all narrows the result to that group. The
// scope is applied to id lookups too, so knowing an id never reveals a
// private feature.
func FeatureScope(db *gorm.DB, requester *model.User, userSel, groupSel string) (*gorm.DB, error) {
	if requester == nil {
		return nil, apperr.Unauthorized("the request has to be made by a signed in user")
	}

	q := db.Model(&model.Feature{})
	if groupSel != SelectorAll {
		q = q.Where(`features."group" = ?`, groupSel)
	}

	switch userSel {
	case SelectorOthers:
		q = q.Where("features.private = ?", false).
			Where("features.user_id <> ?", requester.ID)

	case SelectorAll:
		if !requester.IsStaff {
			q = q.Where("features.user_id = ? OR features.private = ?", requester.ID, false)
		}

	default:
		target, err := ResolveUser(db, requester, userSel)
		if err != nil {
			return nil, err
		}
		if target.ID == requester.ID {
			q = q.Where("features.user_id = ?", target.ID)
		} else {
			q = q.Where("features.user_id = ? AND features.private = ?", target.ID, false)
		}
	}

	return q, nil
}

// PropertyScope composes the visibility predicate for property reads.
// Properties carry no privacy flag; they are visible to their owner and to
// staff only. The feature selector links the scope to a feature: @null
// keeps only standalone properties, @all keeps any linkage, a literal id
// keeps properties attached to that feature.
func PropertyScope(db *gorm.DB, requester *model.User, userSel, groupSel, featureSel string) (*gorm.DB, error) {
	if requester == nil {
		return nil, apperr.Unauthorized("the request has to be made by a signed in user")
	}

	q := db.Model(&model.Property{})
	if groupSel != SelectorAll {
		q = q.Where(`properties."group" = ?`, groupSel)
	}

	switch userSel {
	case SelectorOthers:
		if !requester.IsStaff {
			return nil, apperr.Forbidden("you cannot list other users properties")
		}
		q = q.Where("properties.user_id <> ?", requester.ID)

	case SelectorAll:
		if !requester.IsStaff {
			q = q.Where("properties.user_id = ?", requester.ID)
		}

	default:
		target, err := ResolveUser(db, requester, userSel)
		if err != nil {
			return nil, err
		}
		if target.ID != requester.ID && !requester.IsStaff {
			return nil, apperr.Forbidden("you cannot list other users properties")
		}
		q = q.Where("properties.user_id = ?", target.ID)
	}

	switch featureSel {
	case "", SelectorNull:
		q = q.Where("properties.id NOT IN (SELECT property_id FROM feature_properties)")
	case SelectorAll:
		// no linkage filter
	default:
		featureID, err := ParseID(featureSel, "feature")
		if err != nil {
			return nil, err
		}
		q = q.Joins("JOIN feature_properties fp ON fp.property_id = properties.id").
			Where("fp.feature_id = ?", featureID)
	}

	return q, nil
}

// RequireSelf enforces that the resolved target of a write is the
// requester: you create, update and delete entities as yourself only.
func RequireSelf(requester, target *model.User, action string) error {
	if requester == nil {
		return apperr.Unauthorized("the request has to be made by a signed in user")
	}
	if target == nil || target.ID != requester.ID {
		return apperr.Forbidden("you cannot %s for other users", action)
	}
	return nil
}

// RequireOwner enforces that the requester owns the stored entity.
func RequireOwner(requester *model.User, ownerID uint, action string) error {
	if requester == nil {
		return apperr.Unauthorized("the request has to be made by a signed in user")
	}
	if requester.ID != ownerID {
		return apperr.Forbidden("only the owner can %s", action)
	}
	return nil
}

// ParseID parses a numeric id path segment.
func ParseID(segment, what string) (uint, error) {
	id, err := strconv.ParseUint(segment, 10, 32)
	if err != nil {
		return 0, apperr.Validation("%s id %q is not a valid id", what, segment)
	}
	return uint(id), nil
}
