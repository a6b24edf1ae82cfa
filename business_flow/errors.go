// Package businessflow contains the core business logic and use cases for outreach workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Campaign-related errors
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrCampaignAccessDenied    = errors.New("campaign access denied")
	ErrCampaignAlreadyRunning  = errors.New("campaign is not in a launchable state")
	ErrCampaignNameRequired    = errors.New("campaign name is required")
	ErrCampaignPromptRequired  = errors.New("campaign master prompt is required")
	ErrCampaignChannelInvalid  = errors.New("campaign channel must be email or whatsapp")
	ErrCampaignUUIDRequired    = errors.New("campaign UUID is required")
	ErrCampaignLocked          = errors.New("campaign run already in progress")

	// Ingestion errors
	ErrUnsupportedFileType = errors.New("unsupported spreadsheet file type")
	ErrEmptySpreadsheet    = errors.New("spreadsheet contains no data rows")

	// Reply and review errors
	ErrRowNotFound         = errors.New("data row not found")
	ErrRowNotSent          = errors.New("row is not awaiting a reply")
	ErrRowNotInReview      = errors.New("row is not in the review queue")
	ErrNoSuggestedUpdate   = errors.New("reply produced no structured updates")
	ErrInvalidReviewAction = errors.New("review action must be approve or reject")
	ErrEmptyReply          = errors.New("reply text is empty")

	// Settings errors
	ErrModelNotAllowed = errors.New("model is not in the allowed list")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignAccessDenied(err error) bool {
	return errors.Is(err, ErrCampaignAccessDenied)
}

func IsCampaignAlreadyRunning(err error) bool {
	return errors.Is(err, ErrCampaignAlreadyRunning)
}

func IsCampaignLocked(err error) bool {
	return errors.Is(err, ErrCampaignLocked)
}

func IsUnsupportedFileType(err error) bool {
	return errors.Is(err, ErrUnsupportedFileType)
}

func IsEmptySpreadsheet(err error) bool {
	return errors.Is(err, ErrEmptySpreadsheet)
}

func IsRowNotFound(err error) bool {
	return errors.Is(err, ErrRowNotFound)
}

func IsRowNotSent(err error) bool {
	return errors.Is(err, ErrRowNotSent)
}

func IsRowNotInReview(err error) bool {
	return errors.Is(err, ErrRowNotInReview)
}

func IsNoSuggestedUpdate(err error) bool {
	return errors.Is(err, ErrNoSuggestedUpdate)
}

func IsInvalidReviewAction(err error) bool {
	return errors.Is(err, ErrInvalidReviewAction)
}

func IsModelNotAllowed(err error) bool {
	return errors.Is(err, ErrModelNotAllowed)
}

func IsEmptyReply(err error) bool {
	return errors.Is(err, ErrEmptyReply)
}
