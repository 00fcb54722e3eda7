package checkout

import (
	"context"
	"strings"
	"unicode"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	"github.com/angelmondragon/pharmacy-backend/internal/address"
	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

const minPhoneDigits = 10

type delivery struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Emirate string
	Notes   string
	Method  enums.PaymentMethod
}

// resolveDelivery merges the request with the optional saved address and
// validates the result.
func resolveDelivery(ctx context.Context, addresses *address.Repository, identity access.Identity, input CheckoutInput) (delivery, error) {
	d := delivery{
		Name:    strings.TrimSpace(input.DeliveryName),
		Email:   strings.TrimSpace(input.DeliveryEmail),
		Phone:   strings.TrimSpace(input.DeliveryPhone),
		Address: strings.TrimSpace(input.DeliveryAddress),
		City:    strings.TrimSpace(input.DeliveryCity),
		Emirate: strings.TrimSpace(input.DeliveryEmirate),
		Notes:   strings.TrimSpace(input.DeliveryNotes),
	}

	if input.AddressID != nil {
		saved, err := addresses.FindByID(ctx, *input.AddressID)
		if err != nil {
			return delivery{}, repo.NotFound(err, "address")
		}
		if err := access.Authorize(identity, access.OwnedBy(access.ResourceAddress, saved.UserID), access.ActionRead); err != nil {
			return delivery{}, err
		}
		fill(&d.Name, saved.FullName)
		fill(&d.Phone, saved.PhoneNumber)
		fill(&d.Address, joinNonEmpty(saved.StreetAddress, saved.Building, saved.Area))
		fill(&d.City, saved.City)
		fill(&d.Emirate, saved.Emirate)
	}

	method := enums.PaymentMethodCashOnDelivery
	if raw := strings.TrimSpace(input.PaymentMethod); raw != "" {
		parsed, err := enums.ParsePaymentMethod(raw)
		if err != nil {
			return delivery{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
				WithDetails(map[string]any{"payment_method": raw})
		}
		method = parsed
	}
	d.Method = method

	return d, d.validate()
}

func (d delivery) validate() error {
	required := []struct {
		field string
		value string
	}{
		{"delivery_name", d.Name},
		{"delivery_email", d.Email},
		{"delivery_phone", d.Phone},
		{"delivery_address", d.Address},
		{"delivery_city", d.City},
		{"delivery_emirate", d.Emirate},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing_fields": missing})
	}

	fields := map[string]string{}
	if !strings.Contains(d.Email, "@") || !strings.Contains(d.Email, ".") {
		fields["delivery_email"] = "invalid email address"
	}
	if countDigits(address.StripPhone(d.Phone)) < minPhoneDigits {
		fields["delivery_phone"] = "phone number must contain at least 10 digits"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery details").WithDetails(fields)
	}
	return nil
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = strings.TrimSpace(value)
	}
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func countDigits(value string) int {
	n := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
