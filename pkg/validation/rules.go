package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/jalali"
)

var mobilePattern = regexp.MustCompile(`^0\d{10}$`)

func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"jalali_date":    isJalaliDate,
		"national_code":  isNationalCodeField,
		"mobile":         isMobile,
		"clock_time":     isClockTime,
		"role_code":      isRoleCode,
		"sensitivity":    isSensitivity,
		"profile_status": isProfileStatus,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isJalaliDate(fl validator.FieldLevel) bool {
	_, err := jalali.Parse(fl.Field().String())
	return err == nil
}

func isNationalCodeField(fl validator.FieldLevel) bool {
	return IsNationalCode(fl.Field().String())
}

// IsNationalCode checks the ten-digit Iranian national id and its check digit.
func IsNationalCode(code string) bool {
	if len(code) != 10 {
		return false
	}
	for i := 0; i < 10; i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(code[i]-'0') * (10 - i)
	}
	check := int(code[9] - '0')
	r := sum % 11
	if r < 2 {
		return check == r
	}
	return check == 11-r
}

func isMobile(fl validator.FieldLevel) bool {
	return mobilePattern.MatchString(fl.Field().String())
}

func isClockTime(fl validator.FieldLevel) bool {
	_, err := domain.ParseClockTime(fl.Field().String())
	return err == nil
}

func isRoleCode(fl validator.FieldLevel) bool {
	return domain.Role(fl.Field().String()).Valid()
}

func isSensitivity(fl validator.FieldLevel) bool {
	return domain.Sensitivity(fl.Field().String()).Valid()
}

func isProfileStatus(fl validator.FieldLevel) bool {
	return domain.ProfileStatus(fl.Field().String()).Valid()
}
