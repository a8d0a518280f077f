package auth

import (
	"time"

	apperrors "crm/internal/errors"
)

// Lockout configuration.
const (
	// MaxFailedAttempts is the number of consecutive failures that locks an account.
	MaxFailedAttempts = 5

	// LockDuration is how long an account stays locked.
	LockDuration = 15 * time.Minute
)

// LockoutState is the durable part of a credential record the policy operates on.
type LockoutState struct {
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

// LockoutPolicy holds the brute-force lockout thresholds. The zero value is not usable;
// use DefaultLockoutPolicy.
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockDuration      time.Duration
}

// DefaultLockoutPolicy locks for 15 minutes after 5 consecutive failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: MaxFailedAttempts,
		LockDuration:      LockDuration,
	}
}

// Check refuses authentication while a lock is active. The returned error is an
// *errors.AccountLockedError carrying the remaining time.
func (p LockoutPolicy) Check(lockedUntil *time.Time, now time.Time) error {
	if lockedUntil != nil && lockedUntil.After(now) {
		return &apperrors.AccountLockedError{Remaining: lockedUntil.Sub(now)}
	}
	return nil
}

// RecordFailure returns the state after a wrong password. The lock is set when the
// incremented counter reaches the threshold; otherwise the previous lock value is kept.
func (p LockoutPolicy) RecordFailure(s LockoutState, now time.Time) LockoutState {
	next := LockoutState{
		FailedAttempts: s.FailedAttempts + 1,
		LockedUntil:    s.LockedUntil,
		LastLoginAt:    s.LastLoginAt,
	}
	if next.FailedAttempts >= p.MaxFailedAttempts {
		until := now.Add(p.LockDuration)
		next.LockedUntil = &until
	}
	return next
}

// RecordSuccess returns the state after a correct password: counters cleared and
// the login stamped at now.
func (p LockoutPolicy) RecordSuccess(now time.Time) LockoutState {
	return LockoutState{LastLoginAt: &now}
}
