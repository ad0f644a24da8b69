package entities

import (
	"time"
)

// PlaceStatus is the moderation state of a place
type PlaceStatus string

const (
	PlaceStatusPending  PlaceStatus = "pending"
	PlaceStatusApproved PlaceStatus = "approved"
	PlaceStatusRejected PlaceStatus = "rejected"
)

// IsModerationDecision reports whether s can be set through the status-change operation
func (s PlaceStatus) IsModerationDecision() bool {
	return s == PlaceStatusApproved || s == PlaceStatusRejected
}

// Place represents a proposed point of interest
type Place struct {
	ID           string      `json:"id" db:"id"`
	Title        string      `json:"title" db:"title"`
	Description  string      `json:"description" db:"description"`
	Address      string      `json:"address,omitempty" db:"address"`
	Location     Location    `json:"location" db:"-"`
	Status       PlaceStatus `json:"status" db:"status"`
	AuthorID     string      `json:"author" db:"author_id"`
	AvgRating    float64     `json:"avgRating" db:"avg_rating"`
	ReviewsCount int         `json:"reviewsCount" db:"reviews_count"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// Location represents geographical coordinates
type Location struct {
	Longitude float64 `json:"longitude" db:"longitude"`
	Latitude  float64 `json:"latitude" db:"latitude"`
}

// Valid reports whether the coordinates are within WGS84 bounds
func (l Location) Valid() bool {
	return l.Longitude >= -180 && l.Longitude <= 180 && l.Latitude >= -90 && l.Latitude <= 90
}

// IsApproved reports whether the place is publicly visible
func (p *Place) IsApproved() bool {
	return p.Status == PlaceStatusApproved
}

// Stats returns the derived rating fields of the place
func (p *Place) Stats() PlaceStats {
	return PlaceStats{AvgRating: p.AvgRating, ReviewsCount: p.ReviewsCount}
}

// PlaceStats are the rating fields derived from a place's reviews
type PlaceStats struct {
	AvgRating    float64 `json:"avgRating"`
	ReviewsCount int     `json:"reviewsCount"`
}

// MapPlace is the lightweight projection used by the map feed
type MapPlace struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Location     Location `json:"location"`
	AvgRating    float64  `json:"avgRating"`
	ReviewsCount int      `json:"reviewsCount"`
}

// PlacePage is one page of a place listing
type PlacePage struct {
	Data       []*Place `json:"data"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
	Total      int      `json:"total"`
}

// NewPlacePage builds a page, deriving the page count from total and limit
func NewPlacePage(places []*Place, page, limit, total int) *PlacePage {
	if places == nil {
		places = []*Place{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &PlacePage{Data: places, Page: page, TotalPages: totalPages, Total: total}
}
