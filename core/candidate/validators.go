package candidate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/olympia/core"
)

var (
	NowFunc = time.Now // mockable

	levelTag  = "level"
	levelText = "invalid level"

	birthDateLayout = "2006-01-02"
	birthDateTag    = "birthdate"
	birthDateText   = "birth date must be a past date formatted as YYYY-MM-DD"

	e164Tag  = "e164"
	e164Text = "phone number must be in international format, eg. +243810000000"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your personal information"
)

// InitValidators registers the candidate validators; core.InitValidators must have been called.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(levelTag, levelValidation)
	core.RegisterCustomTranslation(validate, translator, levelTag, levelText)

	_ = validate.RegisterValidation(birthDateTag, birthDateValidation)
	core.RegisterCustomTranslation(validate, translator, birthDateTag, birthDateText)

	core.RegisterCustomTranslation(validate, translator, e164Tag, e164Text, true)

	validate.RegisterStructValidation(passwordStructValidation, NewCandidate{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

func levelValidation(fl validator.FieldLevel) bool {
	lvl := fl.Field().String()
	for _, l := range AllLevels {
		if lvl == l {
			return true
		}
	}
	return false
}

func birthDateValidation(fl validator.FieldLevel) bool {
	date, err := time.Parse(birthDateLayout, fl.Field().String())
	if err != nil {
		return false
	}
	return date.Before(NowFunc())
}

// passwordStructValidation applies the password policy to NewCandidate.Password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no personal info similarity
func passwordStructValidation(sl validator.StructLevel) {
	nc, ok := sl.Current().Interface().(NewCandidate)
	if !ok || nc.Password == "" {
		return
	}
	if tag := checkPassword(nc.Password, nc.FirstName, nc.LastName, nc.Email); tag != "" {
		sl.ReportError(nc.Password, "password", "Password", tag, "")
	}
}

// checkPassword returns the tag of the first violated password rule, "" if none.
func checkPassword(pwd string, attrs ...string) string {
	var (
		digitCount                             int
		hasUpper, hasLower, hasDig, hasSpecial bool
	)

	// - minLen: 8
	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range pwd {
		// - no whitespace
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	// - not all numeric
	if digitCount == pwdLen {
		return pwdNotAllNumTag
	}

	// - complexity: 1 upper, 1 lower, 1 digit & 1 special
	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		return pwdComplexityTag
	}

	// - no personal info similarity
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(strings.ToLower(attr), "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}
	return ""
}
