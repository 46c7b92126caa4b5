package usecase

import (
	"testing"
	"time"
)

func TestComputeHalvingInfoCurrentEpoch(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	info := ComputeHalvingInfo(now)

	if got, want := info.LastHalving, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("last halving %v, want %v", got, want)
	}
	if got, want := info.NextHalving, time.Date(2028, 4, 17, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("next halving %v, want %v", got, want)
	}
	if !info.NextEstimated {
		t.Fatalf("next halving beyond the schedule must be flagged estimated")
	}
	if info.BlockReward != 3.125 {
		t.Fatalf("block reward %v, want 3.125", info.BlockReward)
	}
	if info.DaysSince != 862 {
		t.Fatalf("days since %d, want 862", info.DaysSince)
	}
	if info.CyclePosition <= 0 || info.CyclePosition >= 100 {
		t.Fatalf("cycle position %v out of range", info.CyclePosition)
	}
}

func TestComputeHalvingInfoPastEpoch(t *testing.T) {
	now := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	info := ComputeHalvingInfo(now)

	if got, want := info.LastHalving, time.Date(2020, 5, 11, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("last halving %v, want %v", got, want)
	}
	if got, want := info.NextHalving, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("next halving %v, want %v", got, want)
	}
	if info.NextEstimated {
		t.Fatalf("scheduled next halving must not be flagged estimated")
	}
	if info.BlockReward != 6.25 {
		t.Fatalf("block reward %v, want 6.25", info.BlockReward)
	}
	if info.DaysSince != 21 {
		t.Fatalf("days since %d, want 21", info.DaysSince)
	}
}

func TestComputeHalvingInfoOnHalvingDay(t *testing.T) {
	now := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)
	info := ComputeHalvingInfo(now)

	if got, want := info.LastHalving, now; !got.Equal(want) {
		t.Fatalf("halving day counts as last halving, got %v", got)
	}
	if info.DaysSince != 0 {
		t.Fatalf("days since %d, want 0", info.DaysSince)
	}
	if info.BlockReward != 3.125 {
		t.Fatalf("block reward %v, want 3.125", info.BlockReward)
	}
}
