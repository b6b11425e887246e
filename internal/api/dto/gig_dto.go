package dto

import (
	"github.com/spec-kit/gig-service/internal/domain"
)

// CreateGigRequest payload.
type CreateGigRequest struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Subcategory   string              `json:"subcategory"`
	Location      string              `json:"location"`
	PaymentAmount float64             `json:"paymentAmount"`
	PaymentKind   domain.PaymentKind  `json:"paymentKind"`
	Duration      int                 `json:"duration"`
	DurationUnit  domain.DurationUnit `json:"durationUnit"`
	TargetDate    *string             `json:"targetDate"`
}

// UpdateGigRequest is a partial edit; omitted fields are left untouched.
// An explicit null targetDate is expressed with clearTargetDate.
type UpdateGigRequest struct {
	Title           *string              `json:"title"`
	Description     *string              `json:"description"`
	Category        *string              `json:"category"`
	Subcategory     *string              `json:"subcategory"`
	Location        *string              `json:"location"`
	PaymentAmount   *float64             `json:"paymentAmount"`
	PaymentKind     *domain.PaymentKind  `json:"paymentKind"`
	Duration        *int                 `json:"duration"`
	DurationUnit    *domain.DurationUnit `json:"durationUnit"`
	TargetDate      *string              `json:"targetDate"`
	ClearTargetDate bool                 `json:"clearTargetDate"`
}

// GigResponse is the public view of a gig.
type GigResponse struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Subcategory   string              `json:"subcategory,omitempty"`
	Location      string              `json:"location"`
	PaymentAmount float64             `json:"paymentAmount"`
	PaymentKind   domain.PaymentKind  `json:"paymentKind"`
	Duration      int                 `json:"duration"`
	DurationUnit  domain.DurationUnit `json:"durationUnit"`
	TargetDate    *string             `json:"targetDate"`
	PosterID      string              `json:"posterId"`
	Status        domain.GigStatus    `json:"status"`
	ClaimedBy     *string             `json:"claimedBy"`
	Applicants    []string            `json:"applicants"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     string              `json:"updatedAt"`
}

// GigHistoryResponse is one audit entry.
type GigHistoryResponse struct {
	ID          string               `json:"id"`
	GigID       string               `json:"gigId"`
	ChangedByID *string              `json:"changedBy"`
	ChangeType  domain.GigChangeType `json:"changeType"`
	OldValue    map[string]any       `json:"oldValue"`
	NewValue    map[string]any       `json:"newValue"`
	CreatedAt   string               `json:"createdAt"`
}

// NewGigResponse converts a domain gig.
func NewGigResponse(gig *domain.Gig) GigResponse {
	applicants := gig.Applicants
	if applicants == nil {
		applicants = []string{}
	}
	return GigResponse{
		ID:            gig.ID,
		Title:         gig.Title,
		Description:   gig.Description,
		Category:      gig.Category,
		Subcategory:   gig.Subcategory,
		Location:      gig.Location,
		PaymentAmount: gig.PaymentAmount,
		PaymentKind:   gig.PaymentKind,
		Duration:      gig.Duration,
		DurationUnit:  gig.DurationUnit,
		TargetDate:    FormatTimePtr(gig.TargetDate),
		PosterID:      gig.PosterID,
		Status:        gig.Status,
		ClaimedBy:     gig.ClaimedBy,
		Applicants:    applicants,
		CreatedAt:     FormatTime(gig.CreatedAt),
		UpdatedAt:     FormatTime(gig.UpdatedAt),
	}
}

// NewGigList converts a slice of gigs.
func NewGigList(gigs []domain.Gig) []GigResponse {
	items := make([]GigResponse, 0, len(gigs))
	for i := range gigs {
		items = append(items, NewGigResponse(&gigs[i]))
	}
	return items
}

// NewGigHistoryList converts audit entries.
func NewGigHistoryList(entries []domain.GigHistory) []GigHistoryResponse {
	items := make([]GigHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, GigHistoryResponse{
			ID:          entry.ID,
			GigID:       entry.GigID,
			ChangedByID: entry.ChangedByID,
			ChangeType:  entry.ChangeType,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   FormatTime(entry.CreatedAt),
		})
	}
	return items
}
