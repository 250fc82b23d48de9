package offices

import (
	"strings"
)

// OfficeID identifies an office within one deployment
type OfficeID int64

// Office is immutable reference data from the remote directory
type Office struct {
	ID   OfficeID `json:"id"`
	Name string   `json:"name"`
	Code string   `json:"code"`
}

// Well-known office codes used by the static pipelines
const (
	CodeCentralOffice   = "QA"
	CodePresidentOffice = "PO"
)

// ResolveOfficeID finds an office id by code, ignoring case.
// A missing code reports false instead of failing.
func ResolveOfficeID(offices []Office, code string) (OfficeID, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, false
	}
	for _, o := range offices {
		if strings.EqualFold(o.Code, code) {
			return o.ID, true
		}
	}
	return 0, false
}

// FindByID returns the office with the given id
func FindByID(offices []Office, id OfficeID) (Office, bool) {
	for _, o := range offices {
		if o.ID == id {
			return o, true
		}
	}
	return Office{}, false
}

// CodeOf returns the code of the office with the given id, or "" when unknown
func CodeOf(offices []Office, id OfficeID) string {
	if o, ok := FindByID(offices, id); ok {
		return o.Code
	}
	return ""
}
