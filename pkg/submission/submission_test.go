package submission_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tech-artist89/mitra/pkg/submission"
)

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want bool
	}{
		{"max@example.de", true},
		{"anna.schmidt+bad@mail.co.uk", true},
		{"not-an-email", false},
		{"", false},
		{"a@localhost", false},
		{"Max <max@example.de>", false},
		{" max@example.de", false},
		{"max@.de", false},
		{"max@example.", false},
		{"@example.de", false},
		{strings.Repeat("a", 250) + "@x.de", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, submission.ValidEmail(tt.addr))
		})
	}
}

func TestContact_Validate(t *testing.T) {
	t.Parallel()

	valid := submission.Contact{
		FirstName: "Max", LastName: "Mustermann", Email: "max@example.de",
		Subject: "Inquiry", Message: "Hello",
	}
	require.True(t, valid.Validate().IsEmpty())

	invalid := valid
	invalid.Email = "nope"
	invalid.Message = "  "
	errs := invalid.Validate()
	require.Len(t, errs, 2)
	require.Contains(t, errs.Error(), "email")
	require.Contains(t, errs.Error(), "message")

	long := valid
	long.Subject = strings.Repeat("x", 201)
	require.Len(t, long.Validate(), 1)
}

func TestConfiguration_Validate(t *testing.T) {
	t.Parallel()

	var empty submission.Configuration
	errs := empty.Validate()
	require.False(t, errs.IsEmpty())

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	require.Contains(t, fields, "contact.email")
	require.Contains(t, fields, "configuration.equipment")
}

func TestEquipment(t *testing.T) {
	t.Parallel()

	data := submission.ConfigurationData{Equipment: []submission.Equipment{
		{Name: "Dusche", Selected: true, Options: []submission.EquipmentOption{
			{Name: "Walk-In", Selected: false},
			{Name: "Bodengleich", Selected: true},
		}},
		{Name: "Badewanne", Selected: false},
		{Name: "WC", Selected: true},
	}}

	selected := data.SelectedEquipment()
	require.Len(t, selected, 2)
	require.Equal(t, "Bodengleich", selected[0].SelectedOption())
	require.Empty(t, selected[1].SelectedOption())
}

func TestFullName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Max Mustermann", submission.Contact{FirstName: " Max", LastName: "Mustermann "}.FullName())
	require.Equal(t, "Schmidt", submission.ContactInfo{LastName: "Schmidt"}.FullName())
	require.Empty(t, submission.ContactInfo{}.FullName())
}

func TestConfiguration_JSON(t *testing.T) {
	t.Parallel()

	payload := `{
		"contact": {"salutation": "Frau", "firstName": "Anna", "lastName": "Schmidt", "email": "anna@example.de"},
		"configuration": {
			"bathroomSize": 8.5,
			"quality": {"name": "Premium", "description": "Hochwertige Markenprodukte"},
			"equipment": [{"name": "Dusche", "selected": true, "options": [{"name": "Walk-In", "selected": true}]}],
			"floorTiles": ["Feinsteinzeug"],
			"wallTiles": [],
			"heating": ["Fußbodenheizung"]
		},
		"comments": "Bitte\nanrufen",
		"additionalInfo": {"barrierFree": true}
	}`

	var cfg submission.Configuration
	require.NoError(t, json.Unmarshal([]byte(payload), &cfg))
	require.Equal(t, "Frau", cfg.Contact.Salutation)
	require.InDelta(t, 8.5, cfg.Data.BathroomSize, 0.001)
	require.Equal(t, "Walk-In", cfg.Data.Equipment[0].SelectedOption())
	require.True(t, cfg.AdditionalInfo["barrierFree"])
}
