package signer

import "errors"

var errInvalidKey = errors.New("invalid signing key material")
