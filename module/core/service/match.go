package service

import (
	"math"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

const earthRadiusMeters = 6371000

func matchRegions(regions []domain.Region, lat, lon float64) []domain.Region {
	matched := []domain.Region{}
	for _, r := range regions {
		if haversine(lat, lon, r.Lat, r.Lon) <= r.RadiusMeters {
			matched = append(matched, r)
		}
	}
	return matched
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
