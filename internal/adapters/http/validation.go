package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/kirillkom/docflow/internal/core/domain"
)

const maxJSONBodyBytes = 1 << 20

const passwordSpecials = "@$!%*?&#"

type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	validatorOnce sync.Once
	validatorInst *requestValidator
)

func getValidator() *requestValidator {
	validatorOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerPasswordRule(v, trans, "has_upper", "Password must contain at least one uppercase letter", unicode.IsUpper)
		registerPasswordRule(v, trans, "has_lower", "Password must contain at least one lowercase letter", unicode.IsLower)
		registerPasswordRule(v, trans, "has_digit", "Password must contain at least one number", unicode.IsDigit)
		registerPasswordRule(v, trans, "has_special", "Password must contain at least one special character", func(r rune) bool {
			return strings.ContainsRune(passwordSpecials, r)
		})

		validatorInst = &requestValidator{validate: v, translator: trans}
	})
	return validatorInst
}

func registerPasswordRule(v *validator.Validate, trans ut.Translator, tag, message string, match func(rune) bool) {
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return strings.ContainsFunc(fl.Field().String(), match)
	})
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag)
			return msg
		},
	)
}

// validateStruct returns the first failed rule as an invalid-input error.
func validateStruct(dst any) error {
	err := getValidator().validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return domain.NewError(domain.ErrInvalidInput, verrs[0].Translate(getValidator().translator))
	}
	return domain.WrapError(domain.ErrInvalidInput, "validate request", err)
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errPayloadTooLarge
		case errors.Is(err, io.EOF):
			return domain.NewError(domain.ErrInvalidInput, "Request body is required")
		default:
			return domain.WrapError(domain.ErrInvalidInput, "decode request", fmt.Errorf("invalid json: %w", err))
		}
	}
	return validateStruct(dst)
}
