package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// carColorPattern accepts color names such as "Red" or "Dark Blue".
var carColorPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z \-]{0,39}$`)

func validCarColor(fl validator.FieldLevel) bool {
	return carColorPattern.MatchString(fl.Field().String())
}

// RegisterValidators adds the custom binding tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("carcolor", validCarColor)
}
