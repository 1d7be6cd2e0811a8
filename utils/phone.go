package utils

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

var CountryCode = "IN"

// FormatPhoneNumber renders a stored phone number in international format.
// Numbers that do not parse are returned trimmed but otherwise untouched.
func FormatPhoneNumber(phoneNumber string, countryCode string) string {
	raw := strings.TrimSpace(phoneNumber)
	if raw == "" {
		return ""
	}
	if countryCode == "" {
		countryCode = CountryCode
	}
	p, err := libphonenumber.Parse(raw, countryCode)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return raw
	}
	return libphonenumber.Format(p, libphonenumber.INTERNATIONAL)
}
