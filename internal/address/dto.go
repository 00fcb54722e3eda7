package address

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

const (
	DefaultCity    = "Dubai"
	DefaultEmirate = "Dubai"
)

type AddressDTO struct {
	ID            uuid.UUID `json:"id"`
	FullName      string    `json:"full_name"`
	PhoneNumber   string    `json:"phone_number"`
	StreetAddress string    `json:"street_address"`
	Building      string    `json:"building"`
	Area          string    `json:"area"`
	City          string    `json:"city"`
	Emirate       string    `json:"emirate"`
	PostalCode    string    `json:"postal_code"`
	IsDefault     bool      `json:"is_default"`
}

// AddressInput is the payload for create and full update.
type AddressInput struct {
	FullName      string `json:"full_name" validate:"required,max=200"`
	PhoneNumber   string `json:"phone_number" validate:"required,max=20"`
	StreetAddress string `json:"street_address" validate:"required,max=255"`
	Building      string `json:"building" validate:"max=100"`
	Area          string `json:"area" validate:"max=100"`
	City          string `json:"city" validate:"max=100"`
	Emirate       string `json:"emirate" validate:"max=50"`
	PostalCode    string `json:"postal_code" validate:"max=10"`
	IsDefault     bool   `json:"is_default"`
}

func FromModel(a models.Address) AddressDTO {
	return AddressDTO{
		ID:            a.ID,
		FullName:      a.FullName,
		PhoneNumber:   a.PhoneNumber,
		StreetAddress: a.StreetAddress,
		Building:      a.Building,
		Area:          a.Area,
		City:          a.City,
		Emirate:       a.Emirate,
		PostalCode:    a.PostalCode,
		IsDefault:     a.IsDefault,
	}
}

func (in AddressInput) apply(a *models.Address) {
	a.FullName = strings.TrimSpace(in.FullName)
	a.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	a.StreetAddress = strings.TrimSpace(in.StreetAddress)
	a.Building = strings.TrimSpace(in.Building)
	a.Area = strings.TrimSpace(in.Area)
	a.City = withDefault(in.City, DefaultCity)
	a.Emirate = withDefault(in.Emirate, DefaultEmirate)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
	a.IsDefault = in.IsDefault
}

func withDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
