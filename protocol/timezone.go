package protocol

// Microsoft APIs identify timezones by Windows display names inside
// dateTimeTimeZone resources, while Go (and the rest of the world) uses
// IANA names. These tables cover the zones in common use; unknown names
// fall through unchanged so callers can still round-trip them.

var windowsToIANA = map[string]string{
	"Dateline Standard Time":        "Etc/GMT+12",
	"Hawaiian Standard Time":        "Pacific/Honolulu",
	"Alaskan Standard Time":         "America/Anchorage",
	"Pacific Standard Time":         "America/Los_Angeles",
	"Mountain Standard Time":        "America/Denver",
	"US Mountain Standard Time":     "America/Phoenix",
	"Central Standard Time":         "America/Chicago",
	"Eastern Standard Time":         "America/New_York",
	"US Eastern Standard Time":      "America/Indiana/Indianapolis",
	"Atlantic Standard Time":        "America/Halifax",
	"SA Pacific Standard Time":      "America/Bogota",
	"SA Eastern Standard Time":      "America/Cayenne",
	"E. South America Standard Time": "America/Sao_Paulo",
	"Argentina Standard Time":       "America/Argentina/Buenos_Aires",
	"UTC":                           "UTC",
	"GMT Standard Time":             "Europe/London",
	"Greenwich Standard Time":       "Atlantic/Reykjavik",
	"W. Europe Standard Time":       "Europe/Berlin",
	"Central Europe Standard Time":  "Europe/Budapest",
	"Romance Standard Time":         "Europe/Paris",
	"Central European Standard Time": "Europe/Warsaw",
	"GTB Standard Time":             "Europe/Bucharest",
	"E. Europe Standard Time":       "Europe/Chisinau",
	"FLE Standard Time":             "Europe/Kiev",
	"Russian Standard Time":         "Europe/Moscow",
	"Turkey Standard Time":          "Europe/Istanbul",
	"Israel Standard Time":          "Asia/Jerusalem",
	"Arabian Standard Time":         "Asia/Dubai",
	"Iran Standard Time":            "Asia/Tehran",
	"Pakistan Standard Time":        "Asia/Karachi",
	"India Standard Time":           "Asia/Kolkata",
	"Bangladesh Standard Time":      "Asia/Dhaka",
	"SE Asia Standard Time":         "Asia/Bangkok",
	"China Standard Time":           "Asia/Shanghai",
	"Singapore Standard Time":       "Asia/Singapore",
	"Taipei Standard Time":          "Asia/Taipei",
	"Tokyo Standard Time":           "Asia/Tokyo",
	"Korea Standard Time":           "Asia/Seoul",
	"W. Australia Standard Time":    "Australia/Perth",
	"Cen. Australia Standard Time":  "Australia/Adelaide",
	"AUS Eastern Standard Time":     "Australia/Sydney",
	"New Zealand Standard Time":     "Pacific/Auckland",
	"South Africa Standard Time":    "Africa/Johannesburg",
	"Egypt Standard Time":           "Africa/Cairo",
	"Morocco Standard Time":         "Africa/Casablanca",
	"W. Central Africa Standard Time": "Africa/Lagos",
	"E. Africa Standard Time":       "Africa/Nairobi",
	"Canada Central Standard Time":  "America/Regina",
	"Central America Standard Time": "America/Guatemala",
	"Venezuela Standard Time":       "America/Caracas",
	"Montevideo Standard Time":      "America/Montevideo",
	"Azores Standard Time":          "Atlantic/Azores",
	"Cape Verde Standard Time":      "Atlantic/Cape_Verde",
}

var ianaToWindows = func() map[string]string {
	m := make(map[string]string, len(windowsToIANA))
	for win, iana := range windowsToIANA {
		if _, ok := m[iana]; !ok {
			m[iana] = win
		}
	}
	// Zones whose canonical Windows name maps elsewhere.
	m["Europe/Madrid"] = "Romance Standard Time"
	m["Europe/Amsterdam"] = "W. Europe Standard Time"
	m["Europe/Rome"] = "W. Europe Standard Time"
	m["Europe/Stockholm"] = "W. Europe Standard Time"
	m["Europe/Zurich"] = "W. Europe Standard Time"
	m["Europe/Vienna"] = "W. Europe Standard Time"
	m["Europe/Oslo"] = "W. Europe Standard Time"
	m["Europe/Copenhagen"] = "Romance Standard Time"
	m["Europe/Prague"] = "Central Europe Standard Time"
	m["Europe/Dublin"] = "GMT Standard Time"
	m["Europe/Lisbon"] = "GMT Standard Time"
	m["Europe/Helsinki"] = "FLE Standard Time"
	m["America/Toronto"] = "Eastern Standard Time"
	m["America/Vancouver"] = "Pacific Standard Time"
	m["America/Mexico_City"] = "Central Standard Time"
	m["Asia/Hong_Kong"] = "China Standard Time"
	m["Asia/Kuala_Lumpur"] = "Singapore Standard Time"
	m["Australia/Melbourne"] = "AUS Eastern Standard Time"
	m["Australia/Brisbane"] = "E. Australia Standard Time"
	m["Etc/UTC"] = "UTC"
	return m
}()

// IANATimezone returns the IANA name for a Windows timezone name.
// Unknown names are returned unchanged.
func IANATimezone(windowsName string) string {
	if iana, ok := windowsToIANA[windowsName]; ok {
		return iana
	}
	return windowsName
}

// WindowsTimezone returns the Windows name for an IANA timezone name.
// Unknown names are returned unchanged.
func WindowsTimezone(ianaName string) string {
	if win, ok := ianaToWindows[ianaName]; ok {
		return win
	}
	return ianaName
}
