package booking

import (
	"math"

	"roomkeeper/models"
)

// roundPrice rounds to whole cents.
func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

// quote prices a stay in one unit: nights times the unit's nightly rate.
func quote(rt *models.RoomType, u models.RoomUnit, stay models.DateRange) (rate float64, nights int, total float64) {
	rate = rt.NightlyRate(u)
	nights = stay.Nights()
	return rate, nights, roundPrice(rate * float64(nights))
}

// repriceAssignments recomputes every line for stay, keeping each line's nightly rate
// snapshot, and returns the reservation total.
func repriceAssignments(assignments []models.Assignment, stay models.DateRange) float64 {
	nights := stay.Nights()
	total := 0.0
	for i := range assignments {
		assignments[i].Nights = nights
		assignments[i].Total = roundPrice(assignments[i].NightlyRate * float64(nights))
		total += assignments[i].Total
	}
	return roundPrice(total)
}
