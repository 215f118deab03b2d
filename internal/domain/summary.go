package domain

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Summarize renders an estimate as the one-line badge text shown next to the
// impact marker, e.g. "75,085.87 Mt · crater 22.09 km · 383.36 km² affected".
func Summarize(e ImpactEstimate) string {
	return fmt.Sprintf("%s Mt · crater %s km · %s km² affected",
		humanize.CommafWithDigits(e.EnergyMt, 2),
		humanize.CommafWithDigits(e.CraterDiameterKm, 2),
		humanize.CommafWithDigits(e.AreaKm2, 2),
	)
}
