package models

import "time"

// Payload is the flat projection of a draft sent to the record store and to every
// notification target. JSON names are the column names of the record collection.
type Payload struct {
	FullName           string  `json:"full_name"`
	DateOfBirth        *string `json:"date_of_birth"`
	IsForDependent     bool    `json:"is_for_dependent"`
	MailingAddress     string  `json:"mailing_address"`
	Email              string  `json:"email"`
	PhoneNumber        string  `json:"phone_number"`
	GrantRequestedDate string  `json:"grant_requested_date"`
	FundsUsage         string  `json:"funds_usage"`
	PreviousGrant      bool    `json:"previous_grant"`
	PreviousGrantUsage *string `json:"previous_grant_usage"`
	SupportLetterURL   string  `json:"support_letter_url"`
	Attestation        bool    `json:"attestation"`
}

// Record is a persisted submission. ID and CreatedAt are assigned by the store.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Payload
}

// StoredObject is an uploaded attachment and its public address.
type StoredObject struct {
	Name      string
	Bucket    string
	PublicURL string
}
