package service_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vigilance/vanguard/internal/adapters/bungie/gateway"
	"github.com/vigilance/vanguard/internal/adapters/bungie/throttle"
	"github.com/vigilance/vanguard/internal/domain/manifest"
	"github.com/vigilance/vanguard/internal/domain/model"
)

const (
	bucketHelmet  uint32 = 1
	bucketKinetic uint32 = 2
	itemHelm      uint32 = 101
	itemRifle     uint32 = 102
	activityHash  uint32 = 10
)

// fixtureTables resolve everything the fixture upstream returns.
func fixtureTables() *manifest.ReferenceTables {
	return &manifest.ReferenceTables{
		Buckets: manifest.NewReferenceMap(map[uint32]model.Bucket{
			bucketHelmet:  {Hash: bucketHelmet, Name: "Helmet"},
			bucketKinetic: {Hash: bucketKinetic, Name: "Kinetic Weapons"},
		}),
		Items: manifest.NewReferenceMap(map[uint32]model.ItemDefinition{
			itemHelm:  {Hash: itemHelm, Name: "Test Helm", BucketHash: bucketHelmet},
			itemRifle: {Hash: itemRifle, Name: "Ace of Spades", BucketHash: bucketKinetic, DamageType: 1},
		}),
		Activities: manifest.NewReferenceMap(map[uint32]model.Activity{
			activityHash: {Hash: activityHash, Name: "The Corrupted", Type: "Strike"},
		}),
	}
}

// upstream is a fake platform API. Tokens other than validToken are
// rejected with 401.
type upstream struct {
	*httptest.Server
	validToken atomic.Value
	refreshes  atomic.Int32
	historyHit atomic.Int32
}

func envelope(w http.ResponseWriter, response string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"Response": %s, "ErrorCode": 1, "ErrorStatus": "Success", "Message": "Ok"}`, response)
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.validToken.Store("acc-1")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /Platform/App/OAuth/token/", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch {
		case r.PostForm.Get("grant_type") == "refresh_token":
			u.refreshes.Add(1)
			u.validToken.Store("acc-2")
			_, _ = io.WriteString(w, `{"access_token": "acc-2", "refresh_token": "ref-2", "expires_in": 3600}`)
		case r.PostForm.Get("code") == "good":
			_, _ = io.WriteString(w, `{"membership_id": "u1", "access_token": "acc-1", "refresh_token": "ref-1", "expires_in": 3600, "refresh_expires_in": 7776000}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error": "invalid_grant", "error_description": "AuthorizationCodeInvalid"}`)
		}
	})

	scoped := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+u.validToken.Load().(string) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"ErrorCode": 99, "ErrorStatus": "WebAuthRequired", "Message": "Please sign-in to continue."}`)
				return
			}
			h(w, r)
		}
	}

	mux.HandleFunc("GET /Platform/User/GetMembershipsForCurrentUser/", scoped(func(w http.ResponseWriter, _ *http.Request) {
		envelope(w, `{
			"destinyMemberships": [
				{"membershipId": "other", "membershipType": 1, "displayName": "xbox"},
				{"membershipId": "p1", "membershipType": 3, "displayName": "steam", "bungieGlobalDisplayName": "Guardian", "bungieGlobalDisplayNameCode": 42}
			],
			"primaryMembershipId": "p1"
		}`)
	}))

	mux.HandleFunc("GET /Platform/Destiny2/3/Profile/p1/{$}", scoped(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Query().Get("components"), "200") {
			envelope(w, `{"characters": {"data": {
				"c2": {"characterId": "c2", "light": 1800, "classType": 1, "minutesPlayedTotal": "90"},
				"c1": {"characterId": "c1", "light": 1810, "classType": 0, "minutesPlayedTotal": "600"}
			}}}`)
			return
		}
		envelope(w, `{
			"profileInventory": {"data": {"items": [{"itemHash": 102, "itemInstanceId": "v1"}]}},
			"itemComponents": {"instances": {"data": {"v1": {"primaryStat": {"value": 1790}, "damageType": 1}}}}
		}`)
	}))

	mux.HandleFunc("GET /Platform/Destiny2/3/Profile/p1/Character/c1/", scoped(func(w http.ResponseWriter, _ *http.Request) {
		envelope(w, `{
			"equipment": {"data": {"items": [
				{"itemHash": "corrupt", "itemInstanceId": "x9"},
				{"itemHash": 101, "itemInstanceId": "x1"},
				{"itemHash": 102, "itemInstanceId": "x2"}
			]}},
			"itemComponents": {"instances": {"data": {
				"x1": {"primaryStat": {"value": 100}, "damageType": 0},
				"x2": {"primaryStat": {"value": 1800}, "damageType": 1}
			}}}
		}`)
	}))

	mux.HandleFunc("GET /Platform/Destiny2/3/Account/p1/Character/c1/Stats/Activities/", scoped(func(w http.ResponseWriter, _ *http.Request) {
		u.historyHit.Add(1)
		envelope(w, `{"activities": [
			{"period": "2023-02-01T00:00:00Z", "activityDetails": {"instanceId": "i2"}},
			{"period": "2023-01-01T00:00:00Z", "activityDetails": {"instanceId": "i1"}}
		]}`)
	}))

	mux.HandleFunc("GET /Platform/Destiny2/Stats/PostGameCarnageReport/{id}/", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		period := map[string]string{"i1": "2023-01-01T00:00:00Z", "i2": "2023-02-01T00:00:00Z"}[id]
		envelope(w, fmt.Sprintf(`{
			"period": %q,
			"activityDetails": {"referenceId": %d, "instanceId": %q, "mode": 3},
			"entries": [{
				"standing": 0, "characterId": "c1",
				"values": {"completed": {"basic": {"value": 1}}, "kills": {"basic": {"value": 9}}},
				"extended": {"weapons": [{"referenceId": %d, "values": {"uniqueWeaponKills": {"basic": {"value": 9}}}}]}
			}]
		}`, period, activityHash, id, itemRifle))
	})

	mux.HandleFunc("GET /Platform/Destiny2/3/Account/p1/Character/0/Stats/", scoped(func(w http.ResponseWriter, _ *http.Request) {
		envelope(w, `{"mergedAllCharacters": {"results": {
			"allPvE": {"allTime": {
				"activitiesEntered": {"basic": {"value": 300}},
				"weaponKillsHandCannon": {"basic": {"value": 500}},
				"weaponPrecisionKillsHandCannon": {"basic": {"value": 250}}
			}},
			"allPvP": {"allTime": {
				"weaponPrecisionKillsSniper": {"basic": {"value": 30}},
				"weaponKillsSniper": {"basic": {"value": 45}}
			}}
		}}}`)
	}))

	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) client() *gateway.Client {
	return gateway.New(
		gateway.WithBaseURL(u.URL),
		gateway.WithStatsBaseURL(u.URL),
		gateway.WithAPIKey("test-key"),
		gateway.WithClientCredentials("client", "secret"),
		gateway.WithLimiter(throttle.NewWindow(1000, time.Second)),
	)
}
