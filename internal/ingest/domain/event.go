package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Event kinds accepted by the beacon. Only EventPageView results in a stored
// visit; other kinds are accepted and dropped.
const (
	EventPageView  = "pageView"
	EventPageLeave = "pageLeave"
)

// TrackingEvent is the beacon payload. Field names mirror the wire format the
// tracking snippet sends: d=domain, e=event, r=referrer, u=url, w=width.
type TrackingEvent struct {
	Domain   string   `json:"d" validate:"required"`
	Event    string   `json:"e" validate:"required,oneof=pageView pageLeave"`
	Referrer string   `json:"r" validate:"omitempty,url"`
	URL      string   `json:"u" validate:"required,url"`
	Width    *float64 `json:"w"`
}

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a beacon payload fails schema validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "invalid tracking event: " + strings.Join(msgs, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report wire-format field names (d, e, r, u, w) in errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseTrackingEvent decodes and validates a raw beacon body. This is the sole
// input-sanitization point of the ingestion path; any violation rejects the
// whole payload.
func ParseTrackingEvent(body []byte) (*TrackingEvent, error) {
	var ev TrackingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "body", Message: "must be valid JSON"},
		}}
	}

	if err := validate.Struct(&ev); err != nil {
		var verrs validator.ValidationErrors
		fields := []FieldError{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, FieldError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
				})
			}
		} else {
			fields = append(fields, FieldError{Field: "body", Message: err.Error()})
		}
		return nil, &ValidationError{Fields: fields}
	}

	return &ev, nil
}
