package handler

import (
	"strings"
	"time"

	"bidrag/internal/behandling/models"
	dErrors "bidrag/pkg/domain-errors"
)

// SetCessationDateRequest is the body of
// PUT /behandlinger/{caseID}/barn/{childID}/opphorsdato.
// A null or absent opphorsdato clears the child's date.
type SetCessationDateRequest struct {
	CessationDate *string `json:"opphorsdato"`

	parsedDate *time.Time
}

// Validate parses the date.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SetCessationDateRequest) Validate() error {
	if r.CessationDate == nil {
		return nil
	}
	raw := strings.TrimSpace(*r.CessationDate)
	if raw == "" {
		return dErrors.New(dErrors.CodeValidation, "opphorsdato must be a date or null")
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return err
	}
	r.parsedDate = &d
	return nil
}

// ParsedDate returns the validated date, nil when clearing.
func (r *SetCessationDateRequest) ParsedDate() *time.Time {
	return r.parsedDate
}
