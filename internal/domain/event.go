package domain

// RatingUpdate is the payload of a review.rated event: the product's new
// average rating as computed by the review collaborator.
type RatingUpdate struct {
	ProductID int64   `json:"product_id"`
	RatingAvg float64 `json:"rating_avg"`
}
