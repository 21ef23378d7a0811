package rewrite

import (
	"reflect"
	"testing"
)

func TestResultNormalizeAliasing(t *testing.T) {
	photo := &MediaDescriptor{Type: MediaPhoto, FileID: "f1"}

	t.Run("primary_only", func(t *testing.T) {
		r := Result{Media: photo}
		if mismatch := r.Normalize(); mismatch {
			t.Fatalf("Normalize() mismatch = true, want false")
		}
		if r.MediaInfo != photo {
			t.Fatalf("MediaInfo = %+v, want copied from Media", r.MediaInfo)
		}
	})

	t.Run("legacy_only", func(t *testing.T) {
		r := Result{MediaInfo: photo}
		r.Normalize()
		if r.Media != photo {
			t.Fatalf("Media = %+v, want copied from MediaInfo", r.Media)
		}
	})

	t.Run("neither", func(t *testing.T) {
		r := Result{}
		r.Normalize()
		if r.Media != nil || r.MediaInfo != nil {
			t.Fatalf("Normalize() populated absent keys: %+v", r)
		}
	})

	t.Run("both_disagreeing_untouched", func(t *testing.T) {
		other := &MediaDescriptor{Type: MediaVideo, FileID: "f2"}
		r := Result{Media: photo, MediaInfo: other}
		if mismatch := r.Normalize(); !mismatch {
			t.Fatalf("Normalize() mismatch = false, want true")
		}
		if r.Media != photo || r.MediaInfo != other {
			t.Fatalf("Normalize() reconciled disagreeing keys: %+v", r)
		}
	})
}

func TestResultNormalizeIdempotent(t *testing.T) {
	r := Result{Media: &MediaDescriptor{Type: MediaPhoto, FileID: "f1"}}
	r.Normalize()
	once := r
	r.Normalize()
	if !reflect.DeepEqual(once, r) {
		t.Fatalf("second Normalize() changed result: %+v vs %+v", once, r)
	}
}

func TestNormalizeMediaKeysMap(t *testing.T) {
	media := map[string]any{"type": "photo", "file_id": "f1"}

	cases := []struct {
		name         string
		in           map[string]any
		wantBoth     bool
		wantMismatch bool
	}{
		{name: "primary_only", in: map[string]any{"media": media}, wantBoth: true},
		{name: "legacy_only", in: map[string]any{"media_info": media}, wantBoth: true},
		{name: "neither", in: map[string]any{"success": true}, wantBoth: false},
		{name: "nil_value_absent", in: map[string]any{"media": nil}, wantBoth: false},
		{name: "empty_map_absent", in: map[string]any{"media": map[string]any{}}, wantBoth: false},
		{name: "both_disagree", in: map[string]any{
			"media":      media,
			"media_info": map[string]any{"type": "video"},
		}, wantBoth: true, wantMismatch: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, mismatch := NormalizeMediaKeys(tc.in)
			if mismatch != tc.wantMismatch {
				t.Fatalf("mismatch = %v, want %v", mismatch, tc.wantMismatch)
			}
			_, hasPrimary := out["media"]
			_, hasLegacy := out["media_info"]
			if tc.wantBoth {
				if !hasPrimary || !hasLegacy {
					t.Fatalf("keys = media:%v media_info:%v, want both present", hasPrimary, hasLegacy)
				}
				if !tc.wantMismatch && !reflect.DeepEqual(out["media"], out["media_info"]) {
					t.Fatalf("media %v != media_info %v", out["media"], out["media_info"])
				}
			}
		})
	}
}

func TestNormalizeMediaKeysIdempotent(t *testing.T) {
	m := map[string]any{"media": map[string]any{"type": "photo", "file_id": "f1"}}
	once, _ := NormalizeMediaKeys(m)
	snapshot := map[string]any{}
	for k, v := range once {
		snapshot[k] = v
	}
	twice, _ := NormalizeMediaKeys(once)
	if !reflect.DeepEqual(snapshot, twice) {
		t.Fatalf("second application changed map: %v vs %v", snapshot, twice)
	}
}

func TestNormalizeMediaKeysNil(t *testing.T) {
	out, mismatch := NormalizeMediaKeys(nil)
	if out != nil || mismatch {
		t.Fatalf("NormalizeMediaKeys(nil) = %v %v, want nil false", out, mismatch)
	}
}
