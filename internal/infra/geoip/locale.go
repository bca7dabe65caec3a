package geoip

import "strings"

var germanSpeaking = map[string]bool{"DE": true, "AT": true, "CH": true, "LI": true}

// LanguageForCountry maps an ISO country code to a UI language, or "" when
// the country implies no preference.
func LanguageForCountry(code string) string {
	if germanSpeaking[strings.ToUpper(strings.TrimSpace(code))] {
		return "de"
	}
	return ""
}
