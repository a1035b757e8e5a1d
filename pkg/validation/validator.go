// Package validation checks request payloads with go-playground/validator and
// reports failures as field-keyed validation errors.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

const msgInvalidInput = "اطلاعات وارد شده معتبر نیست."

var tagMessages = map[string]string{
	"required":       "این فیلد الزامی است.",
	"min":            "مقدار این فیلد کوتاه است.",
	"max":            "مقدار این فیلد بیش از حد مجاز است.",
	"uuid":           "شناسه معتبر نیست.",
	"jalali_date":    "تاریخ شمسی معتبر نیست.",
	"national_code":  "کد ملی معتبر نیست.",
	"mobile":         "شماره موبایل باید ۱۱ رقم و با ۰ شروع شود.",
	"clock_time":     "ساعت معتبر نیست.",
	"role_code":      "نقش کاربر معتبر نیست.",
	"sensitivity":    "درجه اهمیت معتبر نیست.",
	"profile_status": "وضعیت پروفایل معتبر نیست.",
	"nefield":        "این مقدار نباید با فیلد دیگر یکسان باشد.",
}

// Validator wraps a configured validator instance.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the null adapters and custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	registerNullTypes(v)

	if err := registerRules(v); err != nil {
		panic("validation: register rules: " + err.Error())
	}
	return &Validator{validate: v}
}

// Struct validates payload. Failures come back as a validation DomainError
// whose details map each json field name to a message.
func (v *Validator) Struct(payload any) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(msgInvalidInput, map[string]any{"error": err.Error()})
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, exists := details[fe.Field()]; exists {
			continue
		}
		details[fe.Field()] = messageFor(fe.Tag())
	}
	return apperrors.NewValidationError(msgInvalidInput, details)
}

func messageFor(tag string) string {
	if msg, ok := tagMessages[tag]; ok {
		return msg
	}
	return msgInvalidInput
}

func jsonName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

func registerNullTypes(v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.String); ok && val.Valid {
			return val.String
		}
		return nil
	}, null.String{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.Bool); ok && val.Valid {
			return val.Bool
		}
		return nil
	}, null.Bool{})
}
