package domain

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

func ValidateDetails(d Details) error {
	if strings.TrimSpace(d.CustomerName) == "" {
		return invalidInput("customer name is required")
	}
	if strings.TrimSpace(d.ContactPerson) == "" {
		return invalidInput("contact person is required")
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return invalidInput("email %q is not valid", d.Email)
	}
	if utf8.RuneCountInString(d.Notes) > MaxNotesLength {
		return invalidInput("notes exceed %d characters", MaxNotesLength)
	}
	return nil
}

func ValidateItemRequests(items []ItemRequest) error {
	if len(items) == 0 {
		return invalidInput("at least one item is required")
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return invalidInput("item %d: product id is required", i)
		}
		if item.Quantity <= 0 {
			return invalidInput("item %d: quantity must be positive", i)
		}
		if item.UnitPrice.IsNegative() {
			return invalidInput("item %d: unit price must not be negative", i)
		}
	}
	return nil
}
