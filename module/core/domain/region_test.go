package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewRegion_Constants(t *testing.T) {
	r := NewRegion("ChIJ", -6.2088, 106.8456)

	if r.RadiusMeters != 50 {
		t.Errorf("expected radius 50, got %f", r.RadiusMeters)
	}
	if r.Expiration != 24*time.Hour {
		t.Errorf("expected 24h expiration, got %s", r.Expiration)
	}
	if r.Transitions != TransitionEnter|TransitionExit {
		t.Errorf("expected enter|exit, got %v", r.Transitions.Names())
	}
}

func TestRegionsFromPlaces(t *testing.T) {
	regions := RegionsFromPlaces([]Place{
		{ID: "a", Lat: 1, Lon: 1},
		{ID: "b", Lat: 2, Lon: 2},
	})
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}
	if regions[1] != NewRegion("b", 2, 2) {
		t.Errorf("unexpected region %+v", regions[1])
	}
}

func TestRegionValidate(t *testing.T) {
	tests := []struct {
		name    string
		region  Region
		wantErr bool
	}{
		{"valid", NewRegion("a", 0, 0), false},
		{"edges", NewRegion("a", 90, -180), false},
		{"empty id", NewRegion("", 0, 0), true},
		{"blank id", NewRegion("  ", 0, 0), true},
		{"lat too high", NewRegion("a", 90.5, 0), true},
		{"lat nan", NewRegion("a", math.NaN(), 0), true},
		{"lon too low", NewRegion("a", 0, -181), true},
		{"lon inf", NewRegion("a", 0, math.Inf(1)), true},
		{"zero radius", Region{ID: "a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRegion) {
				t.Errorf("expected ErrInvalidRegion, got %v", err)
			}
		})
	}
}

func TestErrorCodeRoundTrip(t *testing.T) {
	for _, base := range []error{ErrPermissionDenied, ErrTransientFailure, ErrInvalidRegion} {
		code := ErrorCode(base)
		if got := ParseErrorCode(code, "boom"); !errors.Is(got, base) {
			t.Errorf("code %s: expected %v, got %v", code, base, got)
		}
	}

	if ErrorCode(nil) != CodeOK {
		t.Errorf("expected ok for nil error")
	}
	if ErrorCode(errors.New("other")) != CodeUnknown {
		t.Errorf("expected unknown for foreign error")
	}
	if err := ParseErrorCode("quota_exceeded", ""); !errors.Is(err, ErrTransientFailure) {
		t.Errorf("expected unknown code to be transient, got %v", err)
	}
	if ParseErrorCode(CodeOK, "ignored") != nil {
		t.Errorf("expected nil for ok code")
	}
}
