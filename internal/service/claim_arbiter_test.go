package service_test

import (
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/domain"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

func TestClaimGig(t *testing.T) {
	Convey("Given an open gig", t, func() {
		h := newHarness()
		poster := h.user("pat", domain.RolePoster)
		otherPoster := h.user("pam", domain.RolePoster)
		b := h.user("bea", domain.RoleSeeker)
		c := h.user("cal", domain.RoleSeeker)
		gig := h.openGig(poster)

		Convey("A seeker claims it", func() {
			claimed, err := h.arbiter.Claim(h.ctx, gig.ID, b.ID)
			So(err, ShouldBeNil)
			So(claimed.Status, ShouldEqual, domain.GigStatusClaimed)
			So(*claimed.ClaimedBy, ShouldEqual, b.ID)

			Convey("A second seeker sees AlreadyClaimed and nothing changes", func() {
				_, err := h.arbiter.Claim(h.ctx, gig.ID, c.ID)
				So(apperrors.IsKind(err, apperrors.CodeAlreadyClaimed), ShouldBeTrue)

				current, err := h.gigs.GetGig(h.ctx, gig.ID)
				So(err, ShouldBeNil)
				So(*current.ClaimedBy, ShouldEqual, b.ID)
			})

			Convey("The claimant claiming again also sees AlreadyClaimed", func() {
				_, err := h.arbiter.Claim(h.ctx, gig.ID, b.ID)
				So(apperrors.IsKind(err, apperrors.CodeAlreadyClaimed), ShouldBeTrue)
			})
		})

		Convey("The poster may not claim their own gig", func() {
			_, err := h.arbiter.Claim(h.ctx, gig.ID, poster.ID)
			So(apperrors.IsKind(err, apperrors.CodePermissionDenied), ShouldBeTrue)
		})

		Convey("Posters may not claim other posters' gigs", func() {
			_, err := h.arbiter.Claim(h.ctx, gig.ID, otherPoster.ID)
			So(apperrors.IsKind(err, apperrors.CodePermissionDenied), ShouldBeTrue)
		})

		Convey("Claiming a missing gig is NotFound", func() {
			_, err := h.arbiter.Claim(h.ctx, "missing", b.ID)
			So(apperrors.IsKind(err, apperrors.CodeNotFound), ShouldBeTrue)
		})
	})
}

func TestClaimGigConcurrent(t *testing.T) {
	const attempts = 32

	for round := 0; round < 10; round++ {
		var h *harness
		var gig *domain.Gig
		seekers := make([]*domain.User, attempts)
		Convey(fmt.Sprintf("Setup round %d", round), t, func() {
			h = newHarness()
			poster := h.user("pat", domain.RolePoster)
			for i := range seekers {
				seekers[i] = h.user(fmt.Sprintf("seeker%d", i), domain.RoleSeeker)
			}
			gig = h.openGig(poster)
		})

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []string
			others  []error
		)
		start := make(chan struct{})
		for _, seeker := range seekers {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				<-start
				_, err := h.arbiter.Claim(h.ctx, gig.ID, id)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					winners = append(winners, id)
					return
				}
				others = append(others, err)
			}(seeker.ID)
		}
		close(start)
		wg.Wait()

		if len(winners) != 1 {
			t.Fatalf("round %d: expected exactly one winner, got %d", round, len(winners))
		}
		for _, err := range others {
			if !apperrors.IsKind(err, apperrors.CodeAlreadyClaimed) {
				t.Fatalf("round %d: loser got %v, want ALREADY_CLAIMED", round, err)
			}
		}
		final, err := h.gigs.GetGig(h.ctx, gig.ID)
		if err != nil {
			t.Fatalf("round %d: reload: %v", round, err)
		}
		if final.Status != domain.GigStatusClaimed || final.ClaimedBy == nil || *final.ClaimedBy != winners[0] {
			t.Fatalf("round %d: final state %s claimed by %v, want winner %s", round, final.Status, final.ClaimedBy, winners[0])
		}
	}
}
