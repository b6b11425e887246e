package auth

import (
	"fmt"

	"github.com/spec-kit/gig-service/internal/domain"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

// Action names an operation subject to authorization.
type Action string

const (
	ActionCreateGig         Action = "create_gig"
	ActionEditGig           Action = "edit_gig"
	ActionApply             Action = "apply"
	ActionClaim             Action = "claim"
	ActionComplete          Action = "complete"
	ActionViewApplications  Action = "view_applications"
	ActionReviewApplication Action = "review_application"
	ActionSubmitFeedback    Action = "submit_feedback"
)

// Relationship describes how a caller relates to a gig.
type Relationship string

const (
	RelationshipOwner     Relationship = "owner"
	RelationshipClaimant  Relationship = "claimant"
	RelationshipApplicant Relationship = "applicant"
	RelationshipNone      Relationship = "none"
)

type permissionKey struct {
	role   domain.Role
	action Action
	rel    Relationship
}

// permissionTable lists every allowed combination. Anything absent is denied.
var permissionTable = map[permissionKey]struct{}{
	{domain.RolePoster, ActionCreateGig, RelationshipNone}: {},

	{domain.RolePoster, ActionEditGig, RelationshipOwner}:           {},
	{domain.RolePoster, ActionComplete, RelationshipOwner}:          {},
	{domain.RolePoster, ActionViewApplications, RelationshipOwner}:  {},
	{domain.RolePoster, ActionReviewApplication, RelationshipOwner}: {},

	// Members may repeat apply or claim so the state checks report
	// AlreadyApplied, AlreadyClaimed or GigClosed instead of a denial.
	{domain.RoleSeeker, ActionApply, RelationshipNone}:      {},
	{domain.RoleSeeker, ActionApply, RelationshipApplicant}: {},
	{domain.RoleSeeker, ActionApply, RelationshipClaimant}:  {},
	{domain.RoleSeeker, ActionClaim, RelationshipNone}:      {},
	{domain.RoleSeeker, ActionClaim, RelationshipApplicant}: {},
	{domain.RoleSeeker, ActionClaim, RelationshipClaimant}:  {},

	{domain.RolePoster, ActionSubmitFeedback, RelationshipOwner}:    {},
	{domain.RoleSeeker, ActionSubmitFeedback, RelationshipClaimant}: {},
}

// RelationshipTo classifies userID against gig. Ownership wins over claim,
// and claim over application.
func RelationshipTo(gig *domain.Gig, userID string) Relationship {
	switch {
	case gig == nil:
		return RelationshipNone
	case gig.PosterID == userID:
		return RelationshipOwner
	case gig.IsClaimant(userID):
		return RelationshipClaimant
	case gig.HasApplicant(userID):
		return RelationshipApplicant
	default:
		return RelationshipNone
	}
}

// Allowed reports whether role may perform action given rel.
func Allowed(role domain.Role, action Action, rel Relationship) bool {
	_, ok := permissionTable[permissionKey{role: role, action: action, rel: rel}]
	return ok
}

// Authorize returns PermissionDenied unless the table allows the action.
func Authorize(role domain.Role, action Action, rel Relationship) error {
	if Allowed(role, action, rel) {
		return nil
	}
	return apperrors.NewPermissionDenied(fmt.Sprintf("%s may not %s as %s", role, action, rel))
}

// AuthorizeOnGig resolves the caller's relationship to gig and consults the
// table once.
func AuthorizeOnGig(user *domain.User, action Action, gig *domain.Gig) error {
	if user == nil {
		return apperrors.NewPermissionDenied("unknown actor")
	}
	return Authorize(user.Role, action, RelationshipTo(gig, user.ID))
}
