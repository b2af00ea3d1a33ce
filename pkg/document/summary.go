package document

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tech-artist89/mitra/pkg/submission"
)

// Display placeholders for missing data.
const (
	NoSelection    = "Keine Auswahl"
	NotSpecified   = "Nicht angegeben"
	StandardOption = "Standard"
)

// additionalInfoLabels translates configurator flag keys. Unknown keys are shown as-is.
var additionalInfoLabels = map[string]string{
	"barrierFree":       "Barrierefreie Ausführung gewünscht",
	"oldBuilding":       "Altbau",
	"demolition":        "Rückbau des bestehenden Bades erforderlich",
	"ownerOccupied":     "Selbstgenutztes Wohneigentum",
	"fundingInterest":   "Interesse an Fördermitteln (KfW)",
	"callbackRequested": "Rückruf erwünscht",
	"siteVisit":         "Vor-Ort-Termin gewünscht",
	"quickStart":        "Schnellstmöglicher Baubeginn",
	"designConsulting":  "Designberatung gewünscht",
}

// EquipmentLine is a selected equipment entry ready for display.
type EquipmentLine struct {
	Name   string
	Option string
}

// Summary is the display model of a configurator submission. It is shared by
// the document markup and the notification email templates.
type Summary struct {
	Salutation         string
	FirstName          string
	LastName           string
	FullName           string
	Email              string
	Phone              string
	BathroomSize       string
	Quality            string
	QualityDescription string
	Comments           string
	Equipment          []EquipmentLine
	FloorTiles         []string
	WallTiles          []string
	Heating            []string
	AdditionalInfo     []string
}

// Summarize maps a configuration onto display values, substituting
// placeholders for every missing optional field.
func Summarize(cfg submission.Configuration) Summary {
	s := Summary{
		Salutation:         strings.TrimSpace(cfg.Contact.Salutation),
		FirstName:          strings.TrimSpace(cfg.Contact.FirstName),
		LastName:           strings.TrimSpace(cfg.Contact.LastName),
		FullName:           cfg.Contact.FullName(),
		Email:              strings.TrimSpace(cfg.Contact.Email),
		Phone:              orPlaceholder(cfg.Contact.Phone, NotSpecified),
		BathroomSize:       formatSize(cfg.Data.BathroomSize),
		Quality:            orPlaceholder(cfg.Data.Quality.Name, NotSpecified),
		QualityDescription: strings.TrimSpace(cfg.Data.Quality.Description),
		Comments:           strings.TrimSpace(cfg.Comments),
		FloorTiles:         nonEmpty(cfg.Data.FloorTiles),
		WallTiles:          nonEmpty(cfg.Data.WallTiles),
		Heating:            nonEmpty(cfg.Data.Heating),
	}
	if s.FullName == "" {
		s.FullName = NotSpecified
	}

	for _, e := range cfg.Data.SelectedEquipment() {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		s.Equipment = append(s.Equipment, EquipmentLine{
			Name:   name,
			Option: orPlaceholder(e.SelectedOption(), StandardOption),
		})
	}

	s.AdditionalInfo = additionalInfo(cfg.AdditionalInfo)
	return s
}

// Greeting returns the salutation line used in customer-facing texts.
func (s Summary) Greeting() string {
	switch {
	case s.Salutation != "" && s.LastName != "":
		return s.Salutation + " " + s.LastName
	case s.FullName != NotSpecified:
		return s.FullName
	default:
		return ""
	}
}

func additionalInfo(flags map[string]bool) []string {
	keys := make([]string, 0, len(flags))
	for k, v := range flags {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		if label, ok := additionalInfoLabels[k]; ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, k)
		}
	}
	return labels
}

func formatSize(v float64) string {
	if v <= 0 {
		return NotSpecified
	}
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1) + " m²"
}

func orPlaceholder(s, placeholder string) string {
	if s = strings.TrimSpace(s); s == "" {
		return placeholder
	}
	return s
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
