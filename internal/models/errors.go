package models

import "errors"

// Domain error kinds. Services wrap these with context; the boundary maps
// them to stable result codes.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAccountFrozen       = errors.New("account frozen")
	ErrAccountBanned       = errors.New("account banned")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrBudgetTooLow        = errors.New("budget too low")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAlreadyFinalized    = errors.New("already finalized")

	ErrInvalidRequest     = errors.New("invalid request")
	ErrOfferInactive      = errors.New("offer inactive")
	ErrNotEngaged         = errors.New("task not engaged")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMaintenance        = errors.New("platform under maintenance")
)

// Result codes surfaced to callers of the operation boundary.
const (
	CodeOK                  = "OK"
	CodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	CodeAccountFrozen       = "ACCOUNT_FROZEN"
	CodeAccountBanned       = "ACCOUNT_BANNED"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateSubmission = "DUPLICATE_SUBMISSION"
	CodeBudgetTooLow        = "BUDGET_TOO_LOW"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeAlreadyFinalized    = "ALREADY_FINALIZED"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeOfferInactive       = "OFFER_INACTIVE"
	CodeNotEngaged          = "NOT_ENGAGED"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeMaintenance         = "MAINTENANCE"
	CodeInternal            = "INTERNAL"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInsufficientFunds, CodeInsufficientFunds},
	{ErrAccountFrozen, CodeAccountFrozen},
	{ErrAccountBanned, CodeAccountBanned},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrNotFound, CodeNotFound},
	{ErrDuplicateSubmission, CodeDuplicateSubmission},
	{ErrBudgetTooLow, CodeBudgetTooLow},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrAlreadyFinalized, CodeAlreadyFinalized},
	{ErrInvalidRequest, CodeInvalidRequest},
	{ErrOfferInactive, CodeOfferInactive},
	{ErrNotEngaged, CodeNotEngaged},
	{ErrEmailTaken, CodeEmailTaken},
	{ErrInvalidCredentials, CodeInvalidCredentials},
	{ErrMaintenance, CodeMaintenance},
}

// ErrorCode maps an error chain to its result code. Unknown errors map to
// CodeInternal.
func ErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
