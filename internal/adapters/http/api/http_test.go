package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/vigilance/vanguard/internal/adapters/bungie/gateway"
	"github.com/vigilance/vanguard/internal/adapters/http/api"
	"github.com/vigilance/vanguard/internal/adapters/repository"
	service "github.com/vigilance/vanguard/internal/app"
	"github.com/vigilance/vanguard/internal/domain/activity"
	"github.com/vigilance/vanguard/internal/domain/items"
	"github.com/vigilance/vanguard/internal/domain/model"
)

type mockDeps struct {
	err error

	gotCode     string
	gotLoc      items.Location
	gotMode     int
	gotCount    int
	gotPvE      bool
	gotUser     string
	gotChar     string
	reloadCalls int
}

func (m *mockDeps) Authorize(_ context.Context, code string) (repository.Account, error) {
	m.gotCode = code
	if m.err != nil {
		return repository.Account{}, m.err
	}
	return repository.Account{
		UserID:       "u1",
		PlatformID:   "p1",
		PlatformType: 3,
		DisplayName:  "Guardian#0042",
		AccessToken:  "secret-access",
		RefreshToken: "secret-refresh",
	}, nil
}

func (m *mockDeps) Characters(_ context.Context, userID string) ([]model.Character, error) {
	m.gotUser = userID
	if m.err != nil {
		return nil, m.err
	}
	return []model.Character{{ID: "c1", Light: 1810, Class: "Warlock", HoursPlayed: 12.5}}, nil
}

func (m *mockDeps) Items(_ context.Context, userID, characterID string, loc items.Location) (model.NormalizeResult, error) {
	m.gotUser, m.gotChar, m.gotLoc = userID, characterID, loc
	if m.err != nil {
		return model.NormalizeResult{}, m.err
	}
	return model.NormalizeResult{
		Items:      []model.NormalizedItem{{Name: "Ace of Spades"}},
		Subclasses: []model.Subclass{},
	}, nil
}

func (m *mockDeps) Loadout(_ context.Context, userID, characterID string) (model.Loadout, error) {
	m.gotUser, m.gotChar = userID, characterID
	if m.err != nil {
		return model.Loadout{}, m.err
	}
	return model.Loadout{Weapons: []model.NormalizedItem{{Name: "Ace of Spades"}}, Armor: []model.NormalizedItem{}}, nil
}

func (m *mockDeps) Activities(_ context.Context, userID, characterID string, mode, count int) ([]model.ActivitySummary, error) {
	m.gotUser, m.gotChar, m.gotMode, m.gotCount = userID, characterID, mode, count
	if m.err != nil {
		return nil, m.err
	}
	return []model.ActivitySummary{{InstanceID: "i1", ActivityName: "The Corrupted"}}, nil
}

func (m *mockDeps) WeaponStats(_ context.Context, userID string, pve bool) ([]model.WeaponStatRecord, error) {
	m.gotUser, m.gotPvE = userID, pve
	if m.err != nil {
		return nil, m.err
	}
	return []model.WeaponStatRecord{{WeaponType: "HandCannon", PrecisionKills: 250, Kills: 500}}, nil
}

func (m *mockDeps) ReloadTables(context.Context) error {
	m.reloadCalls++
	return m.err
}

type mockStats struct{}

func (mockStats) GetStats(context.Context) map[string]any {
	return map[string]any{"started": true, "accounts": 1}
}

func newTestServer(deps *mockDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}).Register(mux)
	return httptest.NewServer(mux)
}

func do(srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, strings.NewReader(body))
	So(err, ShouldBeNil)
	resp, err := srv.Client().Do(req)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)
	return resp, out
}

func TestAuthorize(t *testing.T) {
	Convey("POST /authorize", t, func() {
		deps := &mockDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("returns the linked account without tokens", func() {
			resp, body := do(srv, http.MethodPost, "/authorize", `{"code":"abc"}`)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.gotCode, ShouldEqual, "abc")

			var out map[string]any
			So(json.Unmarshal(body, &out), ShouldBeNil)
			So(out["userId"], ShouldEqual, "u1")
			So(out["displayName"], ShouldEqual, "Guardian#0042")
			So(out["platformType"], ShouldEqual, 3)
			So(string(body), ShouldNotContainSubstring, "secret")
		})

		Convey("accepts the code as a query parameter", func() {
			resp, _ := do(srv, http.MethodPost, "/authorize?code=q1", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.gotCode, ShouldEqual, "q1")
		})

		Convey("rejects a missing code", func() {
			resp, body := do(srv, http.MethodPost, "/authorize", `{}`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(string(body), ShouldContainSubstring, "bad_request")
		})

		Convey("rejects malformed JSON", func() {
			resp, _ := do(srv, http.MethodPost, "/authorize", `{"code":`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("maps a rejected code to 401", func() {
			deps.err = fmt.Errorf("exchange: %w", gateway.ErrStaleAuth)
			resp, body := do(srv, http.MethodPost, "/authorize", `{"code":"bad"}`)
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
			So(string(body), ShouldContainSubstring, "stale_auth")
		})

		Convey("is POST only", func() {
			resp, _ := do(srv, http.MethodGet, "/authorize", "")
			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestUserRoutes(t *testing.T) {
	Convey("user routes", t, func() {
		deps := &mockDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("lists characters", func() {
			resp, body := do(srv, http.MethodGet, "/users/u1/characters", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.gotUser, ShouldEqual, "u1")
			var out []model.Character
			So(json.Unmarshal(body, &out), ShouldBeNil)
			So(out, ShouldHaveLength, 1)
			So(out[0].Class, ShouldEqual, "Warlock")
		})

		Convey("weapon stats default to PvE", func() {
			resp, _ := do(srv, http.MethodGet, "/users/u1/weapon-stats", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.gotPvE, ShouldBeTrue)
		})

		Convey("weapon stats honor pve=false", func() {
			resp, _ := do(srv, http.MethodGet, "/users/u1/weapon-stats?pve=false", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.gotPvE, ShouldBeFalse)
		})

		Convey("weapon stats reject a bad flag", func() {
			resp, _ := do(srv, http.MethodGet, "/users/u1/weapon-stats?pve=maybe", "")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("unknown users are 404", func() {
			deps.err = repository.ErrNotFound
			resp, body := do(srv, http.MethodGet, "/users/nobody/characters", "")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(string(body), ShouldContainSubstring, "not_found")
		})
	})
}

func TestCharacterRoutes(t *testing.T) {
	Convey("character routes", t, func() {
		deps := &mockDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("items default to equipment", func() {
			resp, body := do(srv, http.MethodGet, "/characters/u1/c1/items", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.gotLoc, ShouldEqual, items.Equipment)
			So(deps.gotUser, ShouldEqual, "u1")
			So(deps.gotChar, ShouldEqual, "c1")
			So(string(body), ShouldContainSubstring, "Ace of Spades")
		})

		Convey("items honor the location", func() {
			resp, _ := do(srv, http.MethodGet, "/characters/u1/c1/items?location=vault", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.gotLoc, ShouldEqual, items.Vault)
		})

		Convey("items reject an unknown location", func() {
			resp, _ := do(srv, http.MethodGet, "/characters/u1/c1/items?location=postmaster", "")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("loadout splits weapons and armor", func() {
			resp, body := do(srv, http.MethodGet, "/characters/u1/c1/loadout", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var out model.Loadout
			So(json.Unmarshal(body, &out), ShouldBeNil)
			So(out.Weapons, ShouldHaveLength, 1)
			So(out.Armor, ShouldBeEmpty)
		})

		Convey("activities pass mode and count", func() {
			resp, _ := do(srv, http.MethodGet, "/characters/u1/c1/activities?mode=4&count=-1", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.gotMode, ShouldEqual, 4)
			So(deps.gotCount, ShouldEqual, -1)
		})

		Convey("activities default to the recent window", func() {
			resp, _ := do(srv, http.MethodGet, "/characters/u1/c1/activities", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.gotMode, ShouldEqual, 0)
			So(deps.gotCount, ShouldEqual, 0)
		})

		Convey("activities reject a non-numeric count", func() {
			resp, _ := do(srv, http.MethodGet, "/characters/u1/c1/activities?count=lots", "")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("pagination failures are 502", func() {
			deps.err = &activity.PaginationError{Page: 2, Err: fmt.Errorf("%w: boom", gateway.ErrGateway)}
			resp, body := do(srv, http.MethodGet, "/characters/u1/c1/activities", "")
			So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
			So(string(body), ShouldContainSubstring, "upstream_error")
		})

		Convey("a stopped service is 503", func() {
			deps.err = service.ErrNotStarted
			resp, _ := do(srv, http.MethodGet, "/characters/u1/c1/loadout", "")
			So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("unexpected errors are 500", func() {
			deps.err = fmt.Errorf("disk on fire")
			resp, body := do(srv, http.MethodGet, "/characters/u1/c1/loadout", "")
			So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
			So(string(body), ShouldContainSubstring, "internal_error")
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("operational routes", t, func() {
		deps := &mockDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("stats reports the provider snapshot", func() {
			resp, body := do(srv, http.MethodGet, "/stats", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var out map[string]any
			So(json.Unmarshal(body, &out), ShouldBeNil)
			So(out["started"], ShouldEqual, true)
		})

		Convey("healthz serves metrics", func() {
			resp, _ := do(srv, http.MethodGet, "/healthz", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("manifest reload", func() {
			resp, _ := do(srv, http.MethodPost, "/manifest/reload", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.reloadCalls, ShouldEqual, 1)

			deps.err = fmt.Errorf("%w: manifest down", gateway.ErrGateway)
			resp, _ = do(srv, http.MethodPost, "/manifest/reload", "")
			So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
		})
	})
}
