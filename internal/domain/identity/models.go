package identity

import (
	"errors"
	"time"
)

var ErrIdentityNotFound = errors.New("identity not found")

type Address struct {
	FullAddress    *string `json:"fullAddress,omitempty"`
	PrimaryAddress *string `json:"primaryAddress,omitempty"`
	City           *string `json:"city,omitempty"`
	PostalCode     *string `json:"postalCode,omitempty"`
	State          *string `json:"state,omitempty"`
	Country        *string `json:"country,omitempty"`
	Type           *string `json:"type,omitempty"`
}

// Contact is a phone number or an email address
type Contact struct {
	Type  *string `json:"type,omitempty"`
	Value string  `json:"value"`
}

type Relation struct {
	Type     *string `json:"type,omitempty"`
	Name     *string `json:"name,omitempty"`
	Document *string `json:"document,omitempty"`
}

// Identity is the account holder behind a connection. There is at most one per connection.
// Document and TaxNumber are stored encrypted.
type Identity struct {
	ID                string     `json:"id"`
	ConnectionID      string     `json:"connectionId"`
	FullName          *string    `json:"fullName,omitempty"`
	CompanyName       *string    `json:"companyName,omitempty"`
	Document          *string    `json:"document,omitempty"`
	DocumentType      *string    `json:"documentType,omitempty"`
	TaxNumber         *string    `json:"taxNumber,omitempty"`
	BirthDate         *time.Time `json:"birthDate,omitempty"`
	JobTitle          *string    `json:"jobTitle,omitempty"`
	EstablishmentCode *string    `json:"establishmentCode,omitempty"`
	EstablishmentName *string    `json:"establishmentName,omitempty"`
	Addresses         []Address  `json:"addresses"`
	PhoneNumbers      []Contact  `json:"phoneNumbers"`
	Emails            []Contact  `json:"emails"`
	Relations         []Relation `json:"relations"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
