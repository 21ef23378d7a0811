package rewrite

import (
	"reflect"
)

const (
	mediaKeyPrimary = "media"
	mediaKeyLegacy  = "media_info"
)

// Normalize keeps the primary and legacy-alias media fields of a Result
// in sync: if exactly one is set, it is copied into the other; if
// neither is set, both stay absent. When both are set they are left
// untouched even if they disagree — the returned mismatch flag lets the
// caller log a consistency warning. Idempotent: a second application is
// a no-op.
//
// Older writers populated only one of the two fields, so this runs both
// immediately before persistence and immediately after retrieval.
func (r *Result) Normalize() (mismatch bool) {
	switch {
	case r.Media != nil && r.MediaInfo == nil:
		r.MediaInfo = r.Media
	case r.Media == nil && r.MediaInfo != nil:
		r.Media = r.MediaInfo
	case r.Media != nil && r.MediaInfo != nil:
		if !reflect.DeepEqual(r.Media, r.MediaInfo) {
			return true
		}
	}
	return false
}

// NormalizeMediaKeys applies the same aliasing rule to a raw result map,
// covering snapshots serialized by older logic before the typed Result
// existed. The map is mutated in place and also returned. A key holding
// a falsy value (nil, empty map) counts as absent.
func NormalizeMediaKeys(m map[string]any) (out map[string]any, mismatch bool) {
	if m == nil {
		return nil, false
	}
	primary, hasPrimary := truthyValue(m, mediaKeyPrimary)
	legacy, hasLegacy := truthyValue(m, mediaKeyLegacy)
	switch {
	case hasPrimary && !hasLegacy:
		m[mediaKeyLegacy] = primary
	case !hasPrimary && hasLegacy:
		m[mediaKeyPrimary] = legacy
	case hasPrimary && hasLegacy:
		if !reflect.DeepEqual(primary, legacy) {
			return m, true
		}
	}
	return m, false
}

func truthyValue(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nil, false
		}
	case string:
		if t == "" {
			return nil, false
		}
	}
	return v, true
}
