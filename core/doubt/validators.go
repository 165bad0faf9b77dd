package doubt

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	priorityTag  = "doubtpriority"
	priorityText = "invalid priority"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(priorityTag, priorityValidation)
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)
}

func priorityValidation(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	for _, v := range AllPriorities {
		if p == v {
			return true
		}
	}
	return false
}
