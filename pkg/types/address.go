package types

import "strings"

// Address is a normalized postal address as returned by a lookup provider.
// It is a value type; two addresses are equal when all fields match.
type Address struct {
	PostalCode   string `json:"cep" yaml:"cep"`
	Street       string `json:"street" yaml:"street"`
	Complement   string `json:"complement,omitempty" yaml:"complement,omitempty"`
	Neighborhood string `json:"neighborhood" yaml:"neighborhood"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state"`
	IBGECode     string `json:"ibge,omitempty" yaml:"ibge,omitempty"`
}

// IsZero reports whether no field of the address is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String renders the address on a single line, skipping empty parts.
func (a Address) String() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Street, a.Complement, a.Neighborhood} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	locality := a.City
	if a.State != "" {
		if locality != "" {
			locality += "/"
		}
		locality += a.State
	}
	if locality != "" {
		parts = append(parts, locality)
	}
	if a.PostalCode != "" {
		parts = append(parts, "CEP "+a.PostalCode)
	}
	return strings.Join(parts, ", ")
}
