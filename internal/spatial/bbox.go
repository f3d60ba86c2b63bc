package spatial

import (
	"strconv"
	"strings"

	"crowdwatch-go/internal/apperr"
)

// BoundingBox is an axis-aligned query box in degrees
type BoundingBox struct {
	MinLng float64
	MinLat float64
	MaxLng float64
	MaxLat float64
}

// ParseBBox parses the "minLng,minLat,maxLng,maxLat" query form
func ParseBBox(raw string) (BoundingBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return BoundingBox{}, apperr.New(apperr.CodeInvalidBBox, "bbox must be minLng,minLat,maxLng,maxLat")
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, apperr.Newf(apperr.CodeInvalidBBox, "bbox component %q is not a number", p)
		}
		vals[i] = v
	}

	box := BoundingBox{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}
	if err := box.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return box, nil
}

// Validate rejects out-of-range or inverted boxes. Boxes are never
// silently clamped.
func (b BoundingBox) Validate() error {
	if b.MinLng < -180 || b.MaxLng > 180 || b.MinLat < -90 || b.MaxLat > 90 {
		return apperr.New(apperr.CodeInvalidBBox, "bbox coordinates out of range")
	}
	if b.MinLng >= b.MaxLng || b.MinLat >= b.MaxLat {
		return apperr.New(apperr.CodeInvalidBBox, "bbox min must be below max")
	}
	return nil
}

// Contains reports whether the position lies within the box, edges inclusive
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
