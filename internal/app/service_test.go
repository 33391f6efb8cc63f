package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/vigilance/vanguard/internal/adapters/bungie/gateway"
	"github.com/vigilance/vanguard/internal/adapters/repository"
	service "github.com/vigilance/vanguard/internal/app"
	"github.com/vigilance/vanguard/internal/domain/items"
	"github.com/vigilance/vanguard/internal/domain/manifest"
	"github.com/vigilance/vanguard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestService_Start(t *testing.T) {
	Convey("Given a service without tables or a loader", t, func() {
		up := newUpstream(t)
		svc := service.New(up.client(), repository.NewMemoryStore())

		Convey("Then Start fails", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Then flows needing tables report not started", func() {
			_, err := svc.Items(context.Background(), "u1", "c1", items.Equipment)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a service whose manifest cannot be loaded", t, func() {
		up := newUpstream(t)
		gw := up.client()
		svc := service.New(gw, repository.NewMemoryStore(), service.WithLoader(manifest.NewLoader(gw)))

		Convey("Then Start returns a fatal load error", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, manifest.ErrFatalLoad), ShouldBeTrue)
		})
	})

	Convey("Given a service with fixture tables", t, func() {
		up := newUpstream(t)
		svc := service.New(up.client(), repository.NewMemoryStore(),
			service.WithTables(fixtureTables()),
			service.WithFanoutWorkers(2),
		)
		ctx := context.Background()

		Convey("When started twice and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			stats := svc.GetStats(ctx)

			Convey("Then stats reflect the running service", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["fanoutWorkers"], ShouldEqual, 2)
				So(stats["tables"].(map[string]int)[manifest.TableItems], ShouldEqual, 2)
			})

			Convey("Then Stop is idempotent", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.GetStats(ctx)["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Authorize(t *testing.T) {
	Convey("Given a started service", t, func() {
		up := newUpstream(t)
		store := repository.NewMemoryStore()
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		svc := service.New(up.client(), store,
			service.WithTables(fixtureTables()),
			service.WithClock(func() time.Time { return now }),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a valid code is exchanged", func() {
			a, err := svc.Authorize(ctx, "good")

			Convey("Then the primary membership is linked and stored", func() {
				So(err, ShouldBeNil)
				So(a.UserID, ShouldEqual, "u1")
				So(a.PlatformID, ShouldEqual, "p1")
				So(a.PlatformType, ShouldEqual, 3)
				So(a.DisplayName, ShouldEqual, "Guardian#0042")
				So(a.AccessToken, ShouldEqual, "acc-1")
				So(a.AccessExpiresAt.Equal(now.Add(time.Hour)), ShouldBeTrue)

				stored, err := store.Get(ctx, "u1")
				So(err, ShouldBeNil)
				So(stored, ShouldResemble, a)
			})
		})

		Convey("When the code is rejected", func() {
			_, err := svc.Authorize(ctx, "bad")

			Convey("Then the error asks for re-authentication", func() {
				So(errors.Is(err, gateway.ErrStaleAuth), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When no code is given", func() {
			_, err := svc.Authorize(ctx, "")

			Convey("Then the request is refused", func() {
				So(errors.Is(err, service.ErrMissingCode), ShouldBeTrue)
			})
		})
	})
}

func TestService_Accounts(t *testing.T) {
	Convey("Given stored accounts", t, func() {
		up := newUpstream(t)
		store := repository.NewMemoryStore()
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		svc := service.New(up.client(), store,
			service.WithTables(fixtureTables()),
			service.WithClock(func() time.Time { return now }),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When the user is unknown", func() {
			_, err := svc.Characters(ctx, "nobody")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the access token has expired", func() {
			So(store.Save(ctx, repository.Account{
				UserID: "u1", PlatformID: "p1", PlatformType: 3,
				AccessToken: "acc-1", RefreshToken: "ref-1",
				AccessExpiresAt: now.Add(-time.Minute),
			}), ShouldBeNil)

			chars, err := svc.Characters(ctx, "u1")

			Convey("Then it is refreshed before the call", func() {
				So(err, ShouldBeNil)
				So(chars, ShouldHaveLength, 2)
				So(up.refreshes.Load(), ShouldEqual, 1)

				stored, _ := store.Get(ctx, "u1")
				So(stored.AccessToken, ShouldEqual, "acc-2")
				So(stored.RefreshToken, ShouldEqual, "ref-2")
			})
		})

		Convey("When the stored token is rejected upstream", func() {
			So(store.Save(ctx, repository.Account{
				UserID: "u1", PlatformID: "p1", PlatformType: 3, AccessToken: "revoked",
			}), ShouldBeNil)

			_, err := svc.WeaponStats(ctx, "u1", true)

			Convey("Then the error is a stale auth error with the upstream status", func() {
				So(errors.Is(err, gateway.ErrStaleAuth), ShouldBeTrue)
				So(gateway.IsStatus(err, 401), ShouldBeTrue)
			})
		})
	})
}
