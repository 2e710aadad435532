package handler

import "time"

const dateLayout = "2006-01-02"

// validDate reports whether s is empty or a YYYY-MM-DD date.
func validDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// validDateRange checks both ends of an optional date window.
func validDateRange(start, end string) bool {
	return validDate(start) && validDate(end)
}
