package booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/campus-marketplace/internal/model"
)

// Column limits of the bookings table.
const (
	MaxDurationLen     = 64
	MaxRequirementsLen = 1000
)

type detailField struct {
	name    string
	present func(model.BookingDetails) bool
}

var (
	checkInDate = detailField{"bookingDetails.checkInDate", func(d model.BookingDetails) bool { return d.CheckInDate != nil && !d.CheckInDate.IsZero() }}
	startDate   = detailField{"bookingDetails.startDate", func(d model.BookingDetails) bool { return d.StartDate != nil && !d.StartDate.IsZero() }}
	duration    = detailField{"bookingDetails.duration", func(d model.BookingDetails) bool { return strings.TrimSpace(d.Duration) != "" }}
)

// requiredDetails is the fixed set of booking detail fields each service
// type must carry at creation. Fields are checked in order so the first
// missing one is reported.
var requiredDetails = map[model.ServiceType][]detailField{
	model.ServiceHostel: {checkInDate, duration},
	model.ServiceMess:   {startDate, duration},
	model.ServiceGym:    {duration},
}

type lengthLimit struct {
	name  string
	max   int
	value func(model.BookingDetails) string
}

// lengthLimits apply to every service type. Lengths count characters, as
// the utf8mb4 columns do.
var lengthLimits = []lengthLimit{
	{"bookingDetails.duration", MaxDurationLen, func(d model.BookingDetails) string { return d.Duration }},
	{"bookingDetails.additionalRequirements", MaxRequirementsLen, func(d model.BookingDetails) string { return d.AdditionalRequirements }},
}

// RawDates carries date fields as the client sent them. Accepted layouts
// are RFC 3339 and YYYY-MM-DD.
type RawDates struct {
	CheckInDate string
	StartDate   string
}

type dateInput struct {
	field detailField
	raw   func(RawDates) string
	set   func(*model.BookingDetails, time.Time)
}

// dateInputs lists the date fields each service type uses. Raw dates for
// fields a type does not use are ignored.
var dateInputs = map[model.ServiceType][]dateInput{
	model.ServiceHostel: {{checkInDate, func(r RawDates) string { return r.CheckInDate }, func(d *model.BookingDetails, t time.Time) { d.CheckInDate = &t }}},
	model.ServiceMess:   {{startDate, func(r RawDates) string { return r.StartDate }, func(d *model.BookingDetails, t time.Time) { d.StartDate = &t }}},
}

// ParseServiceType validates a raw service type tag.
func ParseServiceType(raw string) (model.ServiceType, error) {
	t := model.ServiceType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidServiceType, raw)
	}
	return t, nil
}

// ApplyDates parses the raw dates t uses into d. Blank values leave d
// untouched.
func ApplyDates(t model.ServiceType, raw RawDates, d *model.BookingDetails) error {
	for _, in := range dateInputs[t] {
		s := strings.TrimSpace(in.raw(raw))
		if s == "" {
			continue
		}
		parsed, err := parseDate(s)
		if err != nil {
			return &ValidationError{Field: in.field.name, Msg: "must be a date (YYYY-MM-DD)"}
		}
		in.set(d, parsed)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// ValidateDetails checks d against the requirement table for t and the
// column length limits.
func ValidateDetails(t model.ServiceType, d model.BookingDetails) error {
	rules, ok := requiredDetails[t]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidServiceType, t)
	}
	for _, f := range rules {
		if !f.present(d) {
			return &ValidationError{Field: f.name, Msg: fmt.Sprintf("is required for %s bookings", t)}
		}
	}
	for _, l := range lengthLimits {
		if utf8.RuneCountInString(l.value(d)) > l.max {
			return &ValidationError{Field: l.name, Msg: fmt.Sprintf("must be at most %d characters", l.max)}
		}
	}
	return nil
}
