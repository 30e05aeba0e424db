package logger

import "strings"

// RedactEmail masks the local part of an address, keeping just enough to
// correlate log lines: "ana.torres@example.com" becomes "an***@example.com".
func RedactEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "***@***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
