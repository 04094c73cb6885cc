package service

import (
	"net/url"
	"reflect"
	"strconv"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator with the proxy's URL rules registered:
//
//	authority  the value parses with a scheme and a non-empty host
//	utf16max   the value is at most N UTF-16 code units long
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("authority", hasAuthority)
	_ = v.RegisterValidation("utf16max", maxUTF16Len)
	return v
}

// hasAuthority rejects URLs the `url` rule lets through on a fragment or
// opaque part alone, such as "https://#frag" or "https:#x".
func hasAuthority(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Opaque == "" && u.Host != ""
}

func maxUTF16Len(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf16Len(fl.Field().String()) <= limit
}

// utf16Len counts s in UTF-16 code units. Runes outside the Basic
// Multilingual Plane count twice.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
