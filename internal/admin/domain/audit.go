package domain

import (
	"errors"
	"slices"
	"time"
)

// Action is a security-relevant admin action recorded in the audit log.
type Action string

const (
	ActionLogin              Action = "LOGIN"
	ActionLogout             Action = "LOGOUT"
	ActionFailedLoginAttempt Action = "FAILED_LOGIN_ATTEMPT"
	ActionAccountLocked      Action = "ACCOUNT_LOCKED"
	ActionOTPSent            Action = "OTP_SENT"
	ActionOTPVerified        Action = "OTP_VERIFIED"
	ActionTokenRefresh       Action = "TOKEN_REFRESH"
	ActionProfileUpdate      Action = "PROFILE_UPDATE"
	ActionPasswordChange     Action = "PASSWORD_CHANGE"
	ActionForceLogout        Action = "FORCE_LOGOUT"
	ActionAdminCreated       Action = "ADMIN_CREATED"
	ActionNotificationSent   Action = "NOTIFICATION_SENT"
	ActionSecurityEvent      Action = "SECURITY_EVENT"
)

// allActions is the closed action set; unrecognized actions fail fast
// instead of being silently logged as untyped strings.
var allActions = []Action{
	ActionLogin,
	ActionLogout,
	ActionFailedLoginAttempt,
	ActionAccountLocked,
	ActionOTPSent,
	ActionOTPVerified,
	ActionTokenRefresh,
	ActionProfileUpdate,
	ActionPasswordChange,
	ActionForceLogout,
	ActionAdminCreated,
	ActionNotificationSent,
	ActionSecurityEvent,
}

// SecurityActions is the fixed subset that always shows up in the security
// events view, regardless of severity.
var SecurityActions = []Action{
	ActionFailedLoginAttempt,
	ActionAccountLocked,
	ActionForceLogout,
	ActionSecurityEvent,
}

var ErrUnknownAction = errors.New("domain: unknown audit action")

func ParseAction(s string) (Action, error) {
	if slices.Contains(allActions, Action(s)) {
		return Action(s), nil
	}
	return "", ErrUnknownAction
}

// Severity grades how serious an audit entry is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var ErrUnknownSeverity = errors.New("domain: unknown severity")

func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s), nil
	}
	return "", ErrUnknownSeverity
}

// Status records the outcome of the audited operation.
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusPending   Status = "PENDING"
	StatusCancelled Status = "CANCELLED"
)

var ErrUnknownStatus = errors.New("domain: unknown status")

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSuccess, StatusFailed, StatusPending, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrUnknownStatus
}

// AuditEntry is one immutable record of a security-relevant action.
// Application logic only ever appends; there is no update or delete path.
type AuditEntry struct {
	ID          string
	AdminID     string
	Action      Action
	Description string
	Severity    Severity
	Status      Status
	IP          string
	UserAgent   string
	Metadata    map[string]string
	CreatedAt   time.Time
}

// AuditFilter narrows a query. Zero values mean "any"; filters combine with
// AND semantics. The date range applies to CreatedAt.
type AuditFilter struct {
	AdminID  string
	Action   Action
	Severity Severity
	Status   Status
	From     time.Time
	To       time.Time
}

// AuditPage is one page of query results, newest first.
type AuditPage struct {
	Entries    []AuditEntry
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// ActorCount ranks one admin by audit entry count within a window.
type ActorCount struct {
	AdminID string
	Name    string
	Email   string
	Count   int64
}

// AuditSummary aggregates entries within a trailing window.
type AuditSummary struct {
	ByAction   map[Action]int64
	BySeverity map[Severity]int64
	ByStatus   map[Status]int64
	TopActors  []ActorCount
}
