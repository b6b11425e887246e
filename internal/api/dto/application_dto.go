package dto

import "github.com/spec-kit/gig-service/internal/domain"

// ApplyRequest payload.
type ApplyRequest struct {
	Message string `json:"message"`
}

// ReviewApplicationRequest payload.
type ReviewApplicationRequest struct {
	Status domain.ApplicationStatus `json:"status"`
}

// ApplicationResponse is the public view of an application.
type ApplicationResponse struct {
	ID          string                   `json:"id"`
	GigID       string                   `json:"gigId"`
	ApplicantID string                   `json:"applicantId"`
	Message     string                   `json:"message"`
	Status      domain.ApplicationStatus `json:"status"`
	AppliedAt   string                   `json:"appliedAt"`
	UpdatedAt   string                   `json:"updatedAt"`
}

// NewApplicationResponse converts a domain application.
func NewApplicationResponse(app *domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:          app.ID,
		GigID:       app.GigID,
		ApplicantID: app.ApplicantID,
		Message:     app.Message,
		Status:      app.Status,
		AppliedAt:   FormatTime(app.AppliedAt),
		UpdatedAt:   FormatTime(app.UpdatedAt),
	}
}

// NewApplicationList converts a slice of applications.
func NewApplicationList(apps []domain.Application) []ApplicationResponse {
	items := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		items = append(items, NewApplicationResponse(&apps[i]))
	}
	return items
}
