package models

import (
	"time"

	"github.com/getmentor/mentorship-api/pkg/hasher"
)

// LockoutPolicy configures failed-login bookkeeping
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

// AccountSecurity is embedded in both aggregates. PasswordHash only ever
// holds a digest produced by a hasher.
type AccountSecurity struct {
	PasswordHash        hasher.Digest `json:"passwordHash"`
	FailedLoginAttempts int           `json:"failedLoginAttempts"`
	AccountLocked       bool          `json:"accountLocked"`
	AccountLockedUntil  *time.Time    `json:"accountLockedUntil,omitempty"`
	PasswordChangedAt   *time.Time    `json:"passwordChangedAt,omitempty"`
}

// IsLocked reports whether the lock is in force at now
func (a *AccountSecurity) IsLocked(now time.Time) bool {
	return a.AccountLocked && a.AccountLockedUntil != nil && now.Before(*a.AccountLockedUntil)
}

// SetPasswordHash stores a freshly derived digest
func (a *AccountSecurity) SetPasswordHash(digest hasher.Digest, now time.Time) {
	changedAt := now
	a.PasswordHash = digest
	a.PasswordChangedAt = &changedAt
}

// RecordFailedLogin increments the failure counter and locks the account when
// it reaches the policy threshold. An expired lock restarts counting.
// It returns true when this call locked the account.
func (a *AccountSecurity) RecordFailedLogin(now time.Time, policy LockoutPolicy) bool {
	if a.AccountLocked && !a.IsLocked(now) {
		a.AccountLocked = false
		a.AccountLockedUntil = nil
		a.FailedLoginAttempts = 0
	}

	a.FailedLoginAttempts++
	if a.AccountLocked || policy.MaxFailedAttempts <= 0 || a.FailedLoginAttempts < policy.MaxFailedAttempts {
		return false
	}

	until := now.Add(policy.LockoutDuration)
	a.AccountLocked = true
	a.AccountLockedUntil = &until
	return true
}

// RecordSuccessfulLogin resets the failure counter and clears any lock
func (a *AccountSecurity) RecordSuccessfulLogin() {
	a.FailedLoginAttempts = 0
	a.AccountLocked = false
	a.AccountLockedUntil = nil
}

// LoginInput is the payload to authenticate as a mentor or student
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=200"`
}

// ChangePasswordInput is the payload to rotate a password
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,max=72"`
}

// TokenResponse is returned by login and registration
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	Role      Role   `json:"role"`
	ID        string `json:"id"`
}
