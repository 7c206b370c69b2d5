package models

import (
	"math"
	"sort"

	"gorm.io/gorm"

	"RescueHub/pkg/errors"
)

const earthRadiusKm = 6371.0

// NearbyTeam is a team candidate for dispatch, with its distance from
// the queried point.
type NearbyTeam struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Status     string  `json:"status"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return errors.BadRequest("latitude out of range")
	}
	if lng < -180 || lng > 180 {
		return errors.BadRequest("longitude out of range")
	}
	return nil
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// NearestTeams returns available teams with known coordinates within
// radiusKm of the point, closest first. Teams without a position are
// never dispatch candidates.
func NearestTeams(db *gorm.DB, lat, lng, radiusKm float64) ([]NearbyTeam, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return nil, errors.BadRequest("radius must be positive")
	}

	var teams []RescueTeam
	err := db.Where("status = ? AND latitude IS NOT NULL AND longitude IS NOT NULL",
		TeamStatusAvailable).Find(&teams).Error
	if err != nil {
		return nil, errors.Wrap(err, "load available teams")
	}

	nearby := make([]NearbyTeam, 0, len(teams))
	for _, t := range teams {
		dist := haversineKm(lat, lng, *t.Latitude, *t.Longitude)
		if dist > radiusKm {
			continue
		}
		nearby = append(nearby, NearbyTeam{
			ID:         t.ID,
			Name:       t.Name,
			Type:       t.Type,
			Status:     t.Status,
			Latitude:   *t.Latitude,
			Longitude:  *t.Longitude,
			DistanceKm: math.Round(dist*100) / 100,
		})
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceKm < nearby[j].DistanceKm })
	return nearby, nil
}
