package models

import "time"

// Location represents a demand site a bowser can be deployed to. Locations
// are reference data: the dispatch core reads them by ID and never mutates
// them.
type Location struct {
	// ID is the unique location identifier (maps to CouchDB _id)
	ID string `json:"_id"`

	// Rev is the CouchDB document revision
	Rev string `json:"_rev,omitempty"`

	// Type is the document type discriminator ("Location")
	Type string `json:"type"`

	// Name is the human-readable site name
	Name string `json:"name"`

	// Address is the street address of the site
	Address string `json:"address,omitempty"`

	// Latitude and Longitude are optional WGS84 coordinates
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Category is a free-text site category (healthcare, residential, ...)
	Category string `json:"category,omitempty"`

	// CreatedAt is the record creation timestamp
	CreatedAt time.Time `json:"createdAt"`
}
