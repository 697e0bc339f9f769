package auth

import "errors"

// Token verification failures. ParseJWT wraps the jwt library error when
// signature checking itself fails; these sentinels cover the checks
// layered on top of it.
var (
	// ErrInvalidToken covers tokens that fail structural or signature checks.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrMissingTenant rejects tokens minted without a tenant_id claim.
	ErrMissingTenant = errors.New("auth: token missing tenant_id")
	// ErrUnknownRole rejects tokens whose role claim is not a known role.
	ErrUnknownRole = errors.New("auth: unknown role")
	// ErrTokenExpired rejects tokens past their expiry.
	ErrTokenExpired = errors.New("auth: token expired")
)
