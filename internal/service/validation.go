package service

import (
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/checkout"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/freight"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxNameLength   = 120
)

// ValidateCredentials validates a sign-in request.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return errors.NewValidationError("email", "email is required")
	}
	if !checkout.ValidEmail(email) {
		return errors.NewValidationError("email", "invalid email address")
	}
	if password == "" {
		return errors.NewValidationError("password", "password is required")
	}
	return nil
}

// ValidatePostalCode validates a CEP before quoting freight.
func ValidatePostalCode(postalCode string) error {
	if strings.TrimSpace(postalCode) == "" {
		return errors.NewValidationError("postal_code", "postal code is required")
	}
	if !freight.ValidCEP(postalCode) {
		return errors.NewValidationError("postal_code", "CEP must have 8 digits")
	}
	return nil
}

// ValidateQuantity validates the quantity of a cart addition.
func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return errors.NewValidationError("quantity", "quantity must be at least 1")
	}
	return nil
}

// ValidatePagination applies the default page size and caps the limit.
func ValidatePagination(limit, offset int) (int, int, error) {
	if limit < 0 {
		return 0, 0, errors.NewValidationError("limit", "limit cannot be negative")
	}
	if offset < 0 {
		return 0, 0, errors.NewValidationError("offset", "offset cannot be negative")
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset, nil
}

// ValidateProfileUpdate checks the fields present in update and normalizes
// the document numbers to digits and the CEP to XXXXX-XXX.
func ValidateProfileUpdate(update *models.ProfileUpdate) error {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return errors.NewValidationError("name", "name cannot be empty")
		}
		if len(name) > maxNameLength {
			return errors.NewValidationError("name", "name too long (max 120 characters)")
		}
		update.Name = &name
	}

	if update.CPF != nil {
		cpf := digits(*update.CPF)
		if len(cpf) != 11 {
			return errors.NewValidationError("cpf", "CPF must have 11 digits")
		}
		update.CPF = &cpf
	}

	if update.PostalCode != nil {
		if !freight.ValidCEP(*update.PostalCode) {
			return errors.NewValidationError("cep", "CEP must have 8 digits")
		}
		cep := freight.FormatCEP(*update.PostalCode)
		update.PostalCode = &cep
	}

	if update.State != nil {
		state := strings.ToUpper(strings.TrimSpace(*update.State))
		if len(state) != 2 {
			return errors.NewValidationError("estado", "state must be a 2-letter code")
		}
		update.State = &state
	}

	if update.Phone != nil {
		phone := digits(*update.Phone)
		if len(phone) < 10 || len(phone) > 11 {
			return errors.NewValidationError("telefone", "phone must have 10 or 11 digits")
		}
		update.Phone = &phone
	}

	return nil
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
