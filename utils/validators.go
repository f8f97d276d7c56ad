package utils

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

// InitValidator registers the custom rules on both the standalone validator
// and the one gin uses for request binding.
func InitValidator() {
	Validate = validator.New()
	RegisterCustomValidators(Validate)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterCustomValidators(v)
	}
}

func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("slug", ValidateSlugRule)
}

func ValidateSlugRule(fl validator.FieldLevel) bool {
	return ValidateSlug(fl.Field().String())
}

// ValidateSlug accepts 1..255 characters with no whitespace and no '/',
// since the slug is used as a single path segment.
func ValidateSlug(slug string) bool {
	if slug == "" || len(slug) > 255 {
		return false
	}
	if strings.Contains(slug, "/") {
		return false
	}
	return strings.IndexFunc(slug, unicode.IsSpace) == -1
}
