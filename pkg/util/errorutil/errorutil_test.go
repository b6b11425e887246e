package errorutil_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

func TestDomainErrors(t *testing.T) {
	Convey("Given the domain error constructors", t, func() {
		Convey("Each kind carries its code and status", func() {
			cases := []struct {
				err    error
				code   string
				status int
			}{
				{apperrors.NewNotFound("gig", nil), apperrors.CodeNotFound, http.StatusNotFound},
				{apperrors.NewInvalidTransition("completed", "claim", nil), apperrors.CodeInvalidTransition, http.StatusConflict},
				{apperrors.NewAlreadyClaimed(nil), apperrors.CodeAlreadyClaimed, http.StatusConflict},
				{apperrors.NewAlreadyApplied(nil), apperrors.CodeAlreadyApplied, http.StatusConflict},
				{apperrors.NewGigClosed(nil), apperrors.CodeGigClosed, http.StatusConflict},
				{apperrors.NewDuplicateFeedback(nil), apperrors.CodeDuplicateFeedback, http.StatusConflict},
				{apperrors.NewPermissionDenied("no"), apperrors.CodePermissionDenied, http.StatusForbidden},
				{apperrors.NewUnauthorized("no"), apperrors.CodeUnauthorized, http.StatusUnauthorized},
				{apperrors.NewValidationError("title", "required"), apperrors.CodeValidation, http.StatusBadRequest},
				{apperrors.NewStoreError(errors.New("conn reset")), apperrors.CodeStore, http.StatusServiceUnavailable},
			}
			for _, tc := range cases {
				So(apperrors.IsKind(tc.err, tc.code), ShouldBeTrue)
				So(apperrors.ToDomainError(tc.err).HTTPStatus, ShouldEqual, tc.status)
			}
		})

		Convey("Validation errors name the field", func() {
			So(apperrors.ToDomainError(apperrors.NewValidationError("rating", "out of range")).Field, ShouldEqual, "rating")
		})

		Convey("Only store errors are retryable", func() {
			So(apperrors.Retryable(apperrors.NewStoreError(errors.New("timeout"))), ShouldBeTrue)
			So(apperrors.Retryable(apperrors.NewAlreadyClaimed(nil)), ShouldBeFalse)
		})

		Convey("Wrapped errors are still classified", func() {
			wrapped := fmt.Errorf("claim: %w", apperrors.NewAlreadyClaimed(nil))
			So(apperrors.IsKind(wrapped, apperrors.CodeAlreadyClaimed), ShouldBeTrue)
		})

		Convey("Unknown errors become store errors and keep their cause", func() {
			cause := errors.New("boom")
			domainErr := apperrors.ToDomainError(cause)
			So(domainErr.Code, ShouldEqual, apperrors.CodeStore)
			So(errors.Is(domainErr, cause), ShouldBeTrue)
			So(apperrors.ToDomainError(nil), ShouldBeNil)
		})
	})
}
