package auth_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/domain"
)

func TestTokenManager(t *testing.T) {
	Convey("Given a token manager", t, func() {
		tm := auth.NewTokenManager("secret", 5)

		Convey("Issued tokens round-trip their subject and role", func() {
			token, err := tm.GenerateToken("user-1", domain.RolePoster)
			So(err, ShouldBeNil)
			So(token.ExpiresAt.After(token.IssuedAt), ShouldBeTrue)

			claims, err := tm.ParseToken(token.Value)
			So(err, ShouldBeNil)
			So(claims.SubjectID, ShouldEqual, "user-1")
			So(claims.Role, ShouldEqual, domain.RolePoster)
		})

		Convey("Tokens signed with another secret are rejected", func() {
			other := auth.NewTokenManager("other", 5)
			token, err := other.GenerateToken("user-1", domain.RoleSeeker)
			So(err, ShouldBeNil)

			_, err = tm.ParseToken(token.Value)
			So(err, ShouldNotBeNil)
		})

		Convey("Garbage is rejected", func() {
			_, err := tm.ParseToken("not-a-jwt")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPasswordHashing(t *testing.T) {
	Convey("Given a hashed password", t, func() {
		hash, err := auth.HashPassword("hunter22", 4)
		So(err, ShouldBeNil)

		So(auth.ComparePassword(hash, "hunter22"), ShouldBeNil)
		So(auth.ComparePassword(hash, "hunter23"), ShouldNotBeNil)
	})
}
