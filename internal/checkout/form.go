package checkout

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsOnly   = regexp.MustCompile(`^[0-9]+$`)
)

// Form is the card and contact data collected from the payer.
type Form struct {
	CardNumber   string `json:"card_number"`
	HolderName   string `json:"holder_name"`
	ExpiryMonth  string `json:"expiry_month"`
	ExpiryYear   string `json:"expiry_year"`
	CVV          string `json:"cvv"`
	Email        string `json:"email"`
	Installments int    `json:"installments"`
}

// Validate checks the form and returns the card ready for tokenization.
// The email is trimmed in place and installments of zero default to one.
func (f *Form) Validate() (CardData, error) {
	number := strings.NewReplacer(" ", "", "-", "").Replace(f.CardNumber)
	if len(number) != 16 || !digitsOnly.MatchString(number) {
		return CardData{}, errors.NewValidationError("card_number", "must have 16 digits")
	}

	holder := strings.TrimSpace(f.HolderName)
	if holder == "" {
		return CardData{}, errors.NewValidationError("holder_name", "is required")
	}

	month, err := strconv.Atoi(strings.TrimSpace(f.ExpiryMonth))
	if err != nil || month < 1 || month > 12 {
		return CardData{}, errors.NewValidationError("expiry_month", "must be between 1 and 12")
	}

	yearText := strings.TrimSpace(f.ExpiryYear)
	if (len(yearText) != 2 && len(yearText) != 4) || !digitsOnly.MatchString(yearText) {
		return CardData{}, errors.NewValidationError("expiry_year", "must have 2 or 4 digits")
	}
	year, _ := strconv.Atoi(yearText)
	if len(yearText) == 2 {
		year += 2000
	}

	cvv := strings.TrimSpace(f.CVV)
	if len(cvv) < 3 || len(cvv) > 4 || !digitsOnly.MatchString(cvv) {
		return CardData{}, errors.NewValidationError("cvv", "must have 3 or 4 digits")
	}

	f.Email = strings.TrimSpace(f.Email)
	if !emailPattern.MatchString(f.Email) {
		return CardData{}, errors.NewValidationError("email", "is not a valid address")
	}

	if f.Installments < 0 {
		return CardData{}, errors.NewValidationError("installments", "must be at least 1")
	}
	if f.Installments == 0 {
		f.Installments = 1
	}

	return CardData{
		Number:          number,
		HolderName:      holder,
		ExpirationMonth: month,
		ExpirationYear:  year,
		SecurityCode:    cvv,
	}, nil
}

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}
