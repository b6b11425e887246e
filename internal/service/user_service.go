package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/repository"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

const (
	maxDisplayNameLength = 80
	maxBioLength         = 2000
	maxSkills            = 50
)

// UserService serves profiles and profile edits.
type UserService struct {
	core
}

// ProfileInput is a partial profile edit. Nil fields are left untouched.
type ProfileInput struct {
	DisplayName *string
	Bio         *string
	Skills      *[]string
}

// NewUserService constructs the service.
func NewUserService(deps Dependencies) *UserService {
	return &UserService{core: newCore(deps)}
}

// GetUser resolves a user id to its profile.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.translate("users.get", "user", userID, err)
	}
	return user, nil
}

// UpdateProfile edits the caller's own display fields. Rating and completed
// counts are derived and never editable here.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*domain.User, error) {
	patch := repository.UserPatch{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, apperrors.NewValidationError("displayName", "display name is required")
		}
		if len(name) > maxDisplayNameLength {
			return nil, apperrors.NewValidationError("displayName", "display name is too long")
		}
		patch.DisplayName = &name
	}
	if input.Bio != nil {
		bio := strings.TrimSpace(*input.Bio)
		if len(bio) > maxBioLength {
			return nil, apperrors.NewValidationError("bio", "bio is too long")
		}
		patch.Bio = &bio
	}
	if input.Skills != nil {
		skills := NormalizeSkills(*input.Skills)
		if len(skills) > maxSkills {
			return nil, apperrors.NewValidationError("skills", "too many skills")
		}
		patch.Skills = &skills
	}

	user, err := s.store.Users.Update(ctx, userID, patch)
	if err != nil {
		return nil, s.translate("users.update", "user", userID, err)
	}
	s.logger.Info("profile updated", zap.String("user_id", userID))
	return user, nil
}

// NormalizeSkills trims, drops blanks, and de-duplicates case-insensitively,
// keeping the first spelling seen. The result is sorted so that the set is
// order-insensitive.
func NormalizeSkills(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	skills := make([]string, 0, len(raw))
	for _, skill := range raw {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, skill)
	}
	sort.Slice(skills, func(i, j int) bool {
		return strings.ToLower(skills[i]) < strings.ToLower(skills[j])
	})
	return skills
}
