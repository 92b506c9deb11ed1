package market

import "errors"

// ErrInvalidInput is returned when a request is rejected before any ledger
// interaction: non-positive quantity or price, missing fields, duplicate ids,
// unregistered transfer targets.
var ErrInvalidInput = errors.New("invalid input")

// ErrChainCorrupted is returned once chain verification has failed. The
// service refuses all further writes until an admin resets the ledger.
var ErrChainCorrupted = errors.New("chain corrupted: writes disabled until admin reset")
