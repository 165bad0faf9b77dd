package announcement

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	typeTag  = "announcementtype"
	typeText = "invalid announcement type"

	audienceTag  = "audience"
	audienceText = "invalid target audience"

	requiredIfTag  = "required_if"
	requiredIfText = "this field is required"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(typeTag, oneOf(AllTypes))
	core.RegisterCustomTranslation(validate, translator, typeTag, typeText)

	_ = validate.RegisterValidation(audienceTag, oneOf(AllAudiences))
	core.RegisterCustomTranslation(validate, translator, audienceTag, audienceText)

	core.RegisterCustomTranslation(validate, translator, requiredIfTag, requiredIfText, true)
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, v := range values {
			if s == v {
				return true
			}
		}
		return false
	}
}
