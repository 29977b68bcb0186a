package hhconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Bidon15/hardhatkit"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CheckNetwork reports the problems of one network descriptor as warnings.
// Incomplete descriptors are still merged.
func CheckNetwork(name string, desc hardhatkit.NetworkDescriptor) []string {
	err := validate.Struct(desc)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{fmt.Sprintf("network %s: %v", name, err)}
	}
	warnings := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		field := fe.Field()
		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "url":
			msg = field + " must be a valid URL"
		case "gt":
			msg = field + " must be greater than " + fe.Param()
		default:
			msg = field + " is invalid"
		}
		warnings = append(warnings, fmt.Sprintf("network %s: %s", name, msg))
	}
	return warnings
}
