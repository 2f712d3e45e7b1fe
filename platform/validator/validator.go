// Package validator exposes the shared request validator used by handlers
// after JSON binding.
package validator

import "github.com/go-playground/validator/v10"

// Validate is the shared validator instance. Struct-tag rules cover all
// request validation; custom rules are registered here at init time.
var Validate = validator.New()
