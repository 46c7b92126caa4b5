package usecase

import (
	"time"

	"BtcPulse/internal/domain/models"
	"BtcPulse/pkg/util"
)

// Reward-halving schedule. The next date is an estimate until the block
// height is actually reached.
var halvingDates = []time.Time{
	time.Date(2012, 11, 28, 0, 0, 0, 0, time.UTC),
	time.Date(2016, 7, 9, 0, 0, 0, 0, time.UTC),
	time.Date(2020, 5, 11, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
}

var estNextHalving = time.Date(2028, 4, 17, 0, 0, 0, 0, time.UTC)

// rewardAfter holds the block subsidy in force after each scheduled halving.
var rewardAfter = []float64{25, 12.5, 6.25, 3.125}

// ComputeHalvingInfo places now relative to the halving schedule.
func ComputeHalvingInfo(now time.Time) models.HalvingInfo {
	last := halvingDates[0]
	reward := rewardAfter[0]
	for i, d := range halvingDates {
		if !d.After(now) {
			last = d
			reward = rewardAfter[i]
		}
	}

	next := estNextHalving
	estimated := true
	for _, d := range halvingDates {
		if d.After(now) {
			next = d
			estimated = false
			break
		}
	}

	daysSince := util.DaysBetween(last, now)
	daysUntil := util.DaysBetween(now, next)
	if daysUntil < 0 {
		daysUntil = 0
	}

	position := 0.0
	if total := daysSince + daysUntil; total > 0 {
		position = float64(daysSince) / float64(total) * 100
	}

	return models.HalvingInfo{
		LastHalving:   last,
		NextHalving:   next,
		DaysSince:     daysSince,
		DaysUntil:     daysUntil,
		BlockReward:   reward,
		CyclePosition: position,
		NextEstimated: estimated,
	}
}
