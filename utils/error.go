package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorDuplicateTitle marks a submenu/dish create or update that collides
// with an existing title. Surfaced to the API caller as a 400.
var ErrorDuplicateTitle = errors.New("duplicate title")

// ErrorInvalidPrice marks a dish price that does not parse as a decimal.
// Surfaced to the API caller as a 422.
var ErrorInvalidPrice = errors.New("invalid price")
