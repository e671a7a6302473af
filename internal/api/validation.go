package api

import (
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the custom binding rules used by request
// structs across the handler packages. Call once at startup.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	rules := map[string]validator.Func{
		"position": func(fl validator.FieldLevel) bool {
			return models.ValidPosition(fl.Field().String())
		},
		"category": func(fl validator.FieldLevel) bool {
			return models.ValidCategory(fl.Field().String())
		},
		"periodtype": func(fl validator.FieldLevel) bool {
			return models.ValidPeriodType(fl.Field().String())
		},
	}

	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
