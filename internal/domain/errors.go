package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConfig             = errors.New("invalid bond configuration")
	ErrNetworkNotFound    = errors.New("network not configured for bond")
	ErrMalformedABI       = errors.New("malformed contract interface")
	ErrReadOnlyConnection = errors.New("connection cannot sign transactions")
	ErrNoBackend          = errors.New("connection has no rpc backend")
)
