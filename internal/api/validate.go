package api

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/claims-dashboard/backend/internal/models"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// FilterQuery is the filter selection as sent in query parameters.
// region and specialty may repeat; start and end come together.
type FilterQuery struct {
	Regions     []string `query:"region"`
	Specialties []string `query:"specialty"`
	Start       string   `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End         string   `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

// Selection converts the query into a filter selection. Dates must already
// be validated.
func (q FilterQuery) Selection() (models.FilterSelection, error) {
	sel := models.FilterSelection{
		Regions:     nonEmpty(q.Regions),
		Specialties: nonEmpty(q.Specialties),
	}
	switch {
	case q.Start == "" && q.End == "":
		return sel, nil
	case q.Start == "":
		return sel, NewValidationError("start", "start and end must be given together")
	case q.End == "":
		return sel, NewValidationError("end", "start and end must be given together")
	}
	start, err := parseDay(q.Start)
	if err != nil {
		return sel, NewValidationError("start", err.Error())
	}
	end, err := parseDay(q.End)
	if err != nil {
		return sel, NewValidationError("end", err.Error())
	}
	if start.After(end) {
		return sel, NewValidationError("start", "start must not be after end")
	}
	sel.DateRange = &models.DateRange{Start: start, End: end}
	return sel, nil
}

// PageQuery selects a page of rows.
type PageQuery struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"pageSize" validate:"omitempty,min=1,max=1000"`
}

// ExportQuery selects a filtered export.
type ExportQuery struct {
	FilterQuery
	Format string `query:"format" validate:"required,oneof=csv xlsx"`
	Name   string `query:"name" validate:"omitempty,max=200"`
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDay(s string) (models.ClaimDate, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return models.ClaimDate{}, err
	}
	return models.DateOf(t), nil
}
