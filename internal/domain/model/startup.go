package model

import (
	"time"
)

type Startup struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	Sector      string    `json:"sector"`
	FoundedYear int       `json:"foundedYear"`
	Description *string   `json:"description,omitempty"`
	Website     *string   `json:"website,omitempty"`
	AddedBy     string    `json:"addedBy"`
	AddedAt     time.Time `json:"addedAt"`
}
