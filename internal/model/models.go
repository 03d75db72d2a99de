// Package model defines the persisted entity shapes shared by the store,
// lifecycle engine and HTTP layer.
package model

import (
	"time"

	"huntboard/tracker-service/internal/lifecycle"
)

// Vacancy is one tracked job opening.
type Vacancy struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"userId"`
	CompanyName     string           `json:"companyName"`
	JobTitle        string           `json:"jobTitle"`
	Description     *string          `json:"description"`
	SourcePlatform  *string          `json:"sourcePlatform"`
	SourceURL       *string          `json:"sourceUrl"`
	Salary          *string          `json:"salary"`
	Status          lifecycle.Status `json:"status"`
	ApplicationDate *time.Time       `json:"applicationDate"`
	LastContactDate *time.Time       `json:"lastContactDate"`
	Notes           *string          `json:"notes"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func (v *Vacancy) CurrentStatus() lifecycle.Status { return v.Status }

// VacancyParams collects the caller-supplied attributes for a new vacancy.
// Status is never part of creation input; the lifecycle engine assigns it.
type VacancyParams struct {
	CompanyName     string     `json:"companyName"`
	JobTitle        string     `json:"jobTitle"`
	Description     *string    `json:"description"`
	SourcePlatform  *string    `json:"sourcePlatform"`
	SourceURL       *string    `json:"sourceUrl"`
	Salary          *string    `json:"salary"`
	ApplicationDate *time.Time `json:"applicationDate"`
	Notes           *string    `json:"notes"`
}

// Recruiter is one tracked recruiter contact.
type Recruiter struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"userId"`
	FullName        string           `json:"fullName"`
	Company         *string          `json:"company"`
	Position        *string          `json:"position"`
	LinkedinURL     *string          `json:"linkedinUrl"`
	ContactInfo     *string          `json:"contactInfo"`
	Status          lifecycle.Status `json:"status"`
	LastContactDate *time.Time       `json:"lastContactDate"`
	Notes           *string          `json:"notes"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func (r *Recruiter) CurrentStatus() lifecycle.Status { return r.Status }

// RecruiterParams collects the caller-supplied attributes for a new recruiter.
type RecruiterParams struct {
	FullName    string  `json:"fullName"`
	Company     *string `json:"company"`
	Position    *string `json:"position"`
	LinkedinURL *string `json:"linkedinUrl"`
	ContactInfo *string `json:"contactInfo"`
	Notes       *string `json:"notes"`
}
