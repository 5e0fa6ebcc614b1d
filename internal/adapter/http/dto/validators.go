package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	bandIDRe = regexp.MustCompile(`^[a-zA-Z0-9]+-[a-zA-Z0-9]+$`)
	phoneRe  = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	pinRe    = regexp.MustCompile(`^[0-9]{4}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("band_id", validateBandID)
		_ = v.RegisterValidation("phone_number", validatePhoneNumber)
		_ = v.RegisterValidation("pin_code", validatePINCode)
	}
}

// validateBandID accepts prefix-suffix band identifiers in either case.
func validateBandID(fl validator.FieldLevel) bool {
	return bandIDRe.MatchString(strings.TrimSpace(fl.Field().String()))
}

// validatePhoneNumber accepts 7-15 digits with an optional leading plus.
func validatePhoneNumber(fl validator.FieldLevel) bool {
	return phoneRe.MatchString(fl.Field().String())
}

// validatePINCode accepts exactly four digits.
func validatePINCode(fl validator.FieldLevel) bool {
	return pinRe.MatchString(fl.Field().String())
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
