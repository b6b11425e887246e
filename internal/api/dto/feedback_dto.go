package dto

import "github.com/spec-kit/gig-service/internal/domain"

// SubmitFeedbackRequest payload. ToUser is optional; the recipient is always
// the other party of the gig.
type SubmitFeedbackRequest struct {
	ToUser  string `json:"toUser"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// FeedbackResponse is the public view of a feedback record.
type FeedbackResponse struct {
	ID        string `json:"id"`
	GigID     string `json:"gigId"`
	FromUser  string `json:"fromUser"`
	ToUser    string `json:"toUser"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// RatingResponse is a reputation aggregate.
type RatingResponse struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// NewFeedbackResponse converts a domain feedback record.
func NewFeedbackResponse(fb *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        fb.ID,
		GigID:     fb.GigID,
		FromUser:  fb.FromUser,
		ToUser:    fb.ToUser,
		Rating:    fb.Rating,
		Comment:   fb.Comment,
		CreatedAt: FormatTime(fb.CreatedAt),
	}
}

// NewFeedbackList converts a slice of feedback records.
func NewFeedbackList(records []domain.Feedback) []FeedbackResponse {
	items := make([]FeedbackResponse, 0, len(records))
	for i := range records {
		items = append(items, NewFeedbackResponse(&records[i]))
	}
	return items
}

// NewRatingResponse converts a rating aggregate.
func NewRatingResponse(r domain.Rating) RatingResponse {
	return RatingResponse{Mean: r.Mean, Count: r.Count}
}
