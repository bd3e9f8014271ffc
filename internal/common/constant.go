// Package common contains shared constants and sentinel errors used across
// ProjectHub components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultAdminEmail is the address granted the admin role when no other
// address is configured.
const DefaultAdminEmail = "artorsiriratpoom@gmail.com"

// Object storage buckets.
const (
	ProjectFilesBucket = "project-files"
	TeamAvatarsBucket  = "team-avatars"
)
