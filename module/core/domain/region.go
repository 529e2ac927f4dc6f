package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	RegionRadiusMeters = 50.0
	RegionExpiration   = 24 * time.Hour
)

// Transition is a bit set of the region crossings a watch fires on.
type Transition uint8

const (
	TransitionEnter Transition = 1 << iota
	TransitionExit

	RegionTransitions = TransitionEnter | TransitionExit
)

// Names returns the wire names of the transitions in t.
func (t Transition) Names() []string {
	var names []string
	if t&TransitionEnter != 0 {
		names = append(names, "enter")
	}
	if t&TransitionExit != 0 {
		names = append(names, "exit")
	}
	return names
}

type Place struct {
	ID  string  `json:"place_id"`
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Region is a circular area watched for entry and exit. Regions are
// comparable with ==.
type Region struct {
	ID           string        `json:"id"`
	Lat          float64       `json:"latitude"`
	Lon          float64       `json:"longitude"`
	RadiusMeters float64       `json:"radius_meters"`
	Expiration   time.Duration `json:"-"`
	Transitions  Transition    `json:"-"`
}

func NewRegion(id string, lat, lon float64) Region {
	return Region{
		ID:           id,
		Lat:          lat,
		Lon:          lon,
		RadiusMeters: RegionRadiusMeters,
		Expiration:   RegionExpiration,
		Transitions:  RegionTransitions,
	}
}

func RegionsFromPlaces(places []Place) []Region {
	regions := make([]Region, 0, len(places))
	for _, p := range places {
		regions = append(regions, NewRegion(p.ID, p.Lat, p.Lon))
	}
	return regions
}

// Validate reports degenerate region data. The returned error wraps
// ErrInvalidRegion.
func (r Region) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id: required", ErrInvalidRegion)
	}
	if math.IsNaN(r.Lat) || math.IsInf(r.Lat, 0) || r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("%w: %s: latitude must be between -90 and 90", ErrInvalidRegion, r.ID)
	}
	if math.IsNaN(r.Lon) || math.IsInf(r.Lon, 0) || r.Lon < -180 || r.Lon > 180 {
		return fmt.Errorf("%w: %s: longitude must be between -180 and 180", ErrInvalidRegion, r.ID)
	}
	if r.RadiusMeters <= 0 {
		return fmt.Errorf("%w: %s: radius must be positive", ErrInvalidRegion, r.ID)
	}
	return nil
}

type InvalidRegion struct {
	Region Region
	Err    error
}

// Diff is the delta between the desired and the confirmed region sets.
type Diff struct {
	ToAdd    []Region
	ToRemove []string
	Invalid  []InvalidRegion
}

func (d Diff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

func RegionIDs(regions []Region) []string {
	ids := make([]string, len(regions))
	for i, r := range regions {
		ids[i] = r.ID
	}
	return ids
}
