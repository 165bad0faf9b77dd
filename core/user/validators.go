package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	userRoleTag  = "userrole"
	userRoleText = "invalid role"

	providerUserTag  = "provideruser"
	providerUserText = "this field is required"
)

// InitValidators registers the user validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(userRoleTag, userRoleValidation)
	core.RegisterCustomTranslation(validate, translator, userRoleTag, userRoleText)

	validate.RegisterStructValidation(providerEventStructValidation, ProviderEvent{})
	core.RegisterCustomTranslation(validate, translator, providerUserTag, providerUserText)
}

// Custom Validators

// userRoleValidation checks that the role is one of AllRoles
func userRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}

// providerEventStructValidation checks that user events carry the user's id and at least one email address.
func providerEventStructValidation(sl validator.StructLevel) {
	evt, ok := sl.Current().Interface().(ProviderEvent)
	if !ok || !evt.IsUserEvent() {
		return
	}
	if evt.Data.ID == "" {
		sl.ReportError(evt.Data.ID, "id", "ID", providerUserTag, "")
	}
	if evt.PrimaryEmail() == "" {
		sl.ReportError(evt.Data.EmailAddresses, "email_addresses", "EmailAddresses", providerUserTag, "")
	}
}
