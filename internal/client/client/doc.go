// Package client is the ProjectHub RPC client used by the terminal app.
//
// GRPCClient speaks the JSON-coded gRPC service from package api. It keeps
// the token pair in memory, adds the access token to every protected call,
// exchanges an expired access token once per call and persists the refresh
// token through a TokenStore so a restart can restore the session. It also
// implements the auth provider the session state machine expects:
// GetCurrentSession, OnAuthStateChange, SignInWithPassword, SignUp and
// SignOut.
//
// Status codes are mapped back to sentinels (ErrUnauthorized, ErrForbidden,
// ErrNotFound, ErrAlreadyExists, ErrInvalidArgument, ErrUnavailable) that
// callers match with errors.Is.
//
// InitDatabase opens the local SQLite file and applies the embedded goose
// migrations.
package client
