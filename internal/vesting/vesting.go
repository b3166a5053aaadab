// Package vesting derives how much of a reward grant is unlocked at a given
// instant. A grant vests nothing before the cliff, then linearly until the end
// of the period, after which it is fully vested. All arithmetic is integer and
// rounds down, so rounding dust stays in custody.
package vesting

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

// Grant is the part of a stake record the calculator needs.
type Grant struct {
	Amount    uint64
	StartTime int64 // unix seconds
}

type Schedule struct {
	Cliff  time.Duration
	Period time.Duration
}

func NewSchedule(cliff, period time.Duration) (Schedule, error) {
	s := Schedule{Cliff: cliff, Period: period}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

func (s Schedule) Validate() error {
	if s.Period <= 0 {
		return fmt.Errorf("vesting period must be positive")
	}
	if s.Cliff < 0 {
		return fmt.Errorf("vesting cliff must not be negative")
	}
	if s.Cliff > s.Period {
		return fmt.Errorf("vesting cliff %s exceeds vesting period %s", s.Cliff, s.Period)
	}
	if s.Cliff%time.Second != 0 || s.Period%time.Second != 0 {
		return fmt.Errorf("vesting cliff and period must be whole seconds")
	}
	return nil
}

func (s Schedule) cliffSeconds() int64 {
	return int64(s.Cliff / time.Second)
}

func (s Schedule) periodSeconds() int64 {
	return int64(s.Period / time.Second)
}

// Elapsed returns the whole seconds between the grant start and now, clamped at 0.
func (s Schedule) Elapsed(g Grant, now time.Time) int64 {
	elapsed := now.Unix() - g.StartTime
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// VestedAmount returns the portion of the grant unlocked at now.
// Reaching the cliff exactly counts as past the cliff.
func (s Schedule) VestedAmount(g Grant, now time.Time) uint64 {
	elapsed := s.Elapsed(g, now)

	if elapsed < s.cliffSeconds() {
		return 0
	}
	if elapsed >= s.periodSeconds() {
		return g.Amount
	}

	vested := sdkmath.NewIntFromUint64(g.Amount).
		Mul(sdkmath.NewInt(elapsed)).
		Quo(sdkmath.NewInt(s.periodSeconds()))

	return vested.Uint64()
}

// Claimable returns vested minus already claimed, never below zero.
func (s Schedule) Claimable(g Grant, claimed uint64, now time.Time) uint64 {
	vested := s.VestedAmount(g, now)
	if vested <= claimed {
		return 0
	}
	return vested - claimed
}

// CliffTime is the first instant at which the grant can pay out.
func (s Schedule) CliffTime(g Grant) time.Time {
	return time.Unix(g.StartTime, 0).Add(s.Cliff)
}

// FullyVestedTime is the instant at which the whole grant is unlocked.
func (s Schedule) FullyVestedTime(g Grant) time.Time {
	return time.Unix(g.StartTime, 0).Add(s.Period)
}
