package entities

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a single user's rating of a place
type Review struct {
	ID        string    `json:"id" db:"id"`
	PlaceID   string    `json:"place" db:"place_id"`
	AuthorID  string    `json:"author" db:"author_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ValidRating reports whether rating lies in the closed range [MinRating, MaxRating]
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// ReviewAuthor is the author projection attached to reviews on the place page
type ReviewAuthor struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// ReviewWithAuthor is a review joined with its author
type ReviewWithAuthor struct {
	ID        string        `json:"id"`
	PlaceID   string        `json:"place"`
	Author    *ReviewAuthor `json:"author"`
	Rating    int           `json:"rating"`
	Comment   string        `json:"comment,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PlaceDetail is a place composed with its reviews for a single read
type PlaceDetail struct {
	Place           *Place              `json:"place"`
	Reviews         []*ReviewWithAuthor `json:"reviews"`
	AlreadyReviewed bool                `json:"alreadyReviewed"`
}

// ReviewResult is a review mutation result carrying the place stats after aggregation
type ReviewResult struct {
	Review *Review    `json:"review"`
	Place  PlaceStats `json:"place"`
}
