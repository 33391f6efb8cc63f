package gateway

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Component codes accepted by the profile and character endpoints.
const (
	ComponentVaultItems   = 102
	ComponentCharacters   = 200
	ComponentInventory    = 201
	ComponentEquipment    = 205
	ComponentItemInstance = 300
	ComponentItemPerks    = 302
	ComponentItemStats    = 304
	ComponentItemSockets  = 305
)

// ItemComponents are requested alongside any item location.
var ItemComponents = []int{ComponentItemInstance, ComponentItemStats, ComponentItemPerks, ComponentItemSockets} //nolint:gochecknoglobals // fixed component set

func components(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return "?components=" + strings.Join(parts, ",")
}

// ContentURL joins a manifest content path onto the base URL.
func (c *Client) ContentURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// ManifestURL locates the reference-table index.
func (c *Client) ManifestURL() string {
	return c.baseURL + "/Platform/Destiny2/Manifest/"
}

// MilestonesURL lists the currently live milestones.
func (c *Client) MilestonesURL() string {
	return c.baseURL + "/Platform/Destiny2/Milestones/"
}

// MembershipsURL lists the memberships linked to the token's owner.
func (c *Client) MembershipsURL() string {
	return c.baseURL + "/Platform/User/GetMembershipsForCurrentUser/"
}

// ProfileURL addresses profile-scoped components such as the vault.
func (c *Client) ProfileURL(membershipType int, membershipID string, codes ...int) string {
	return fmt.Sprintf("%s/Platform/Destiny2/%d/Profile/%s/%s",
		c.baseURL, membershipType, url.PathEscape(membershipID), components(codes))
}

// CharacterURL addresses character-scoped components.
func (c *Client) CharacterURL(membershipType int, membershipID, characterID string, codes ...int) string {
	return fmt.Sprintf("%s/Platform/Destiny2/%d/Profile/%s/Character/%s/%s",
		c.baseURL, membershipType, url.PathEscape(membershipID), url.PathEscape(characterID), components(codes))
}

// ActivityHistoryURL addresses one page of a character's activity history.
func (c *Client) ActivityHistoryURL(membershipType int, membershipID, characterID string, mode, count, page int) string {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	q.Set("mode", strconv.Itoa(mode))
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s/Platform/Destiny2/%d/Account/%s/Character/%s/Stats/Activities/?%s",
		c.baseURL, membershipType, url.PathEscape(membershipID), url.PathEscape(characterID), q.Encode())
}

// PostGameReportURL addresses the detail report of one activity instance.
func (c *Client) PostGameReportURL(instanceID string) string {
	return fmt.Sprintf("%s/Platform/Destiny2/Stats/PostGameCarnageReport/%s/", c.statsBaseURL, url.PathEscape(instanceID))
}

// HistoricalStatsURL addresses account-wide historical stats merged across
// characters.
func (c *Client) HistoricalStatsURL(membershipType int, membershipID string) string {
	return fmt.Sprintf("%s/Platform/Destiny2/%d/Account/%s/Character/0/Stats/",
		c.baseURL, membershipType, url.PathEscape(membershipID))
}

// TokenURL is the OAuth token endpoint.
func (c *Client) TokenURL() string {
	return c.baseURL + "/Platform/App/OAuth/token/"
}
