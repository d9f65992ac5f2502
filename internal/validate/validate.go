// Package validate checks operator and reporter input before anything is sent to the API.
package validate

import (
	"math"
	"strconv"
	"strings"

	"github.com/Zachdehooge/sos-dashboard/internal/apperror"
	"github.com/Zachdehooge/sos-dashboard/internal/report"
)

// SOSForm holds the raw values of the SOS submission form.
type SOSForm struct {
	DisasterType string
	Latitude     string
	Longitude    string
	Details      string
	MobileNumber string
}

// SOS validates a submission and builds the /api/v1/sos payload.
// Rules short-circuit in order: numbers, latitude range, longitude range.
// Optional fields are kept only when non-blank after trimming.
func SOS(form SOSForm) (report.SubmitPayload, error) {
	lat, latErr := parseCoordinate(form.Latitude)
	lng, lngErr := parseCoordinate(form.Longitude)
	if latErr != nil || lngErr != nil {
		return report.SubmitPayload{}, apperror.ErrInvalidNumber
	}
	if lat < -90 || lat > 90 {
		return report.SubmitPayload{}, apperror.ErrLatitudeOutOfRange
	}
	if lng < -180 || lng > 180 {
		return report.SubmitPayload{}, apperror.ErrLongitudeOutOfRange
	}

	return report.SubmitPayload{
		DisasterType: strings.TrimSpace(form.DisasterType),
		Location: report.Coordinates{
			Latitude:  lat,
			Longitude: lng,
		},
		Details:      strings.TrimSpace(form.Details),
		MobileNumber: strings.TrimSpace(form.MobileNumber),
	}, nil
}

func parseCoordinate(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

// LegacySOS validates the deprecated name/location/message form. All three fields are required.
func LegacySOS(name, location, message string) (report.LegacySubmitPayload, error) {
	p := report.LegacySubmitPayload{
		Name:     strings.TrimSpace(name),
		Location: strings.TrimSpace(location),
		Message:  strings.TrimSpace(message),
	}
	if p.Name == "" || p.Location == "" || p.Message == "" {
		return report.LegacySubmitPayload{}, apperror.Validation(apperror.KindEmptyField,
			"Missing required fields (name, location, message)")
	}
	return p, nil
}

// Announcement rejects blank broadcast content and returns it trimmed.
func Announcement(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", apperror.Validation(apperror.KindEmptyField, "Broadcast message cannot be empty.")
	}
	return trimmed, nil
}

// Credentials rejects a login attempt with a blank username or password.
func Credentials(username, password string) (report.Credentials, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return report.Credentials{}, apperror.Validation(apperror.KindEmptyField, "Missing username or password")
	}
	return report.Credentials{Username: username, Password: password}, nil
}
