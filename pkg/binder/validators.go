package binder

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var hexColorRE = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// hexColorValidator ensures the value is a 6-digit hex color like #3B82F6 or
// the empty string. The empty string is allowed so this validator can be used
// on optional fields; add `ne=` to the validate tag to make it required.
func hexColorValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return hexColorRE.MatchString(value)
}
