package domain

import "strings"

// Free-form postal address of a rider's home.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
}

// IsBlank reports whether the address carries nothing a geocoder could use.
func (a Address) IsBlank() bool {
	return strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.PostalCode) == ""
}

// Single line form, e.g. "510 Ward St, Wiley, CO 81092".
func (a Address) String() string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(a.Street); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(a.City); s != "" {
		parts = append(parts, s)
	}

	stateZip := strings.TrimSpace(strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.PostalCode))
	if stateZip != "" {
		parts = append(parts, stateZip)
	}

	return strings.Join(parts, ", ")
}

// Represents a student on the transportation roster.
// Riders are a read-only snapshot for a planning run; Home is nil
// until the address has been resolved to coordinates.
type Rider struct {
	RiderID  int64
	Name     string
	Address  Address
	Home     *Coordinates
	Excluded bool
}

// HasHome reports whether the rider already carries coordinates.
func (r *Rider) HasHome() bool { return r.Home != nil }
