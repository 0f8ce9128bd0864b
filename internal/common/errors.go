// Package common defines shared constants and sentinel errors used across
// the gophledger adapters, services and admin surfaces. Callers should use
// errors.Is to match these values.
package common

import "errors"

// AccessTokenHeaderName is the gRPC metadata key used to carry the admin
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

var (
	// Adapter-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrTransientStore = errors.New("store unavailable")

	// Service-level errors.
	ErrPartialDelete   = errors.New("partial delete")
	ErrInvalidArgument = errors.New("invalid argument")

	// Auth errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)
