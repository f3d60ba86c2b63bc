package spatial

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"crowdwatch-go/internal/models"
)

// CellKey quantizes a position to its grid cell, formatted at fixed
// 6-decimal precision so keys stay stable across float representations.
func CellKey(lat, lng, cellDeg float64) string {
	cellLat := math.Floor(lat/cellDeg) * cellDeg
	cellLng := math.Floor(lng/cellDeg) * cellDeg
	return fmt.Sprintf("%.6f,%.6f", cellLat, cellLng)
}

// Aggregate buckets samples into the density grid. Pure and
// order-independent: any permutation of samples yields the same cell set.
// Cells with no samples are omitted; output is sorted by cell key.
func Aggregate(samples []models.LocationPing, cellDeg float64) []models.GridCell {
	counts := make(map[string]int, len(samples))
	for _, s := range samples {
		counts[CellKey(s.Lat, s.Lng, cellDeg)]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cells := make([]models.GridCell, 0, len(keys))
	for _, k := range keys {
		parts := strings.SplitN(k, ",", 2)
		cellLat, _ := strconv.ParseFloat(parts[0], 64)
		cellLng, _ := strconv.ParseFloat(parts[1], 64)
		cells = append(cells, models.GridCell{
			CellLat: cellLat,
			CellLng: cellLng,
			Count:   counts[k],
		})
	}
	return cells
}
