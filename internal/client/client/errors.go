package client

import (
	"errors"

	"github.com/dmitrijs2005/projecthub/internal/common"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrNotSignedIn     = errors.New("not signed in")
	ErrUnauthorized    = common.ErrorUnauthorized
	ErrForbidden       = common.ErrorForbidden
	ErrNotFound        = common.ErrorNotFound
	ErrAlreadyExists   = common.ErrorAlreadyExists
	ErrInvalidArgument = common.ErrorInvalidArgument
)
