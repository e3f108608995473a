package schedule

// ApplicableHolidays filters exceptions down to those in scope for a
// practitioner at a location. Pure; the input slice is not modified.
func ApplicableHolidays(exceptions []HolidayException, practitionerID, locationID string) []HolidayException {
	var applicable []HolidayException
	for _, h := range exceptions {
		if h.AppliesTo(practitionerID, locationID) {
			applicable = append(applicable, h)
		}
	}
	return applicable
}

// FullyBlocked reports whether any of the (already scope-filtered)
// exceptions blocks the entire day.
func FullyBlocked(exceptions []HolidayException) bool {
	for _, h := range exceptions {
		if h.Block.IsAllDay() {
			return true
		}
	}
	return false
}
