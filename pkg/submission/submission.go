// Package submission defines the two website form payloads handled by the
// notification pipeline: the general contact form and the bathroom configurator.
package submission

import (
	"net/mail"
	"strings"
)

// Kind identifies the submission variant.
type Kind string

const (
	KindContact       Kind = "contact"
	KindConfiguration Kind = "configuration"
)

// Contact is a general contact form submission.
type Contact struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Subject         string `json:"subject"`
	Message         string `json:"message"`
	ServiceCategory string `json:"serviceCategory,omitempty"`
	Urgent          bool   `json:"urgent"`
}

// FullName joins first and last name, skipping empty parts.
func (c Contact) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// ContactInfo is the contact block of a configurator submission.
type ContactInfo struct {
	Salutation string `json:"salutation,omitempty"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
}

// FullName joins first and last name, skipping empty parts.
func (c ContactInfo) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// Configuration is a bathroom configurator submission.
type Configuration struct {
	Contact        ContactInfo       `json:"contact"`
	Data           ConfigurationData `json:"configuration"`
	Comments       string            `json:"comments,omitempty"`
	AdditionalInfo map[string]bool   `json:"additionalInfo,omitempty"`
}

// ConfigurationData is the semi-structured configurator payload.
type ConfigurationData struct {
	BathroomSize float64     `json:"bathroomSize"`
	Quality      QualityTier `json:"quality"`
	Equipment    []Equipment `json:"equipment"`
	FloorTiles   []string    `json:"floorTiles"`
	WallTiles    []string    `json:"wallTiles"`
	Heating      []string    `json:"heating"`
}

// QualityTier is the selected finish level.
type QualityTier struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Equipment is a single configurator line item.
type Equipment struct {
	Name     string            `json:"name"`
	Selected bool              `json:"selected"`
	Options  []EquipmentOption `json:"options,omitempty"`
}

// EquipmentOption is a variant of an equipment item.
type EquipmentOption struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// SelectedOption returns the first selected option name, or "" if none.
func (e Equipment) SelectedOption() string {
	for _, o := range e.Options {
		if o.Selected {
			return o.Name
		}
	}
	return ""
}

// SelectedEquipment returns only the equipment entries flagged selected.
func (d ConfigurationData) SelectedEquipment() []Equipment {
	var out []Equipment
	for _, e := range d.Equipment {
		if e.Selected {
			out = append(out, e)
		}
	}
	return out
}

const maxEmailLength = 254

// ValidEmail reports whether addr is a bare, syntactically valid address
// with a dotted domain. Display-name forms are rejected.
func ValidEmail(addr string) bool {
	if addr == "" || len(addr) > maxEmailLength || strings.TrimSpace(addr) != addr {
		return false
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || parsed.Name != "" {
		return false
	}
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 {
		return false
	}
	domain := addr[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
