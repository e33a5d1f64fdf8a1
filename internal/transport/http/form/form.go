// Package form decodes and validates the urlencoded forms posted by the
// account pages.
package form

import (
	"errors"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report the form field name, not the Go field name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}
	if err := registerPasswordBytes(validate, trans); err != nil {
		panic(err)
	}
}

// registerPasswordBytes adds the "pwbytes" tag: a password must fit in
// what bcrypt will hash. Length is counted in bytes, not runes.
func registerPasswordBytes(v *validator.Validate, t ut.Translator) error {
	err := v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= domain.MaxPasswordBytes
	})
	if err != nil {
		return err
	}
	return v.RegisterTranslation("pwbytes", t,
		func(ut ut.Translator) error {
			return ut.Add("pwbytes", "{0} must be at most {1} bytes", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("pwbytes", fe.Field(), strconv.Itoa(domain.MaxPasswordBytes))
			return msg
		},
	)
}

/*
Validate runs the struct tags on a form.
Failures come back as domain.ErrInvalidForm with one translated
message per field in Meta.
*/
func Validate(f any) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrInternal(err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = fe.Translate(trans)
		}
	}
	return domain.ErrInvalidForm(fields)
}

// Notices turns a form error into one warning per field, ordered by field
// name. Other errors yield their usual notice.
func Notices(err error) []domain.Notice {
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != "invalid_form" || len(de.Meta) == 0 {
		return []domain.Notice{domain.NoticeFromError(err)}
	}
	keys := make([]string, 0, len(de.Meta))
	for k := range de.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.Notice, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.Warning(de.Meta[k]))
	}
	return out
}

// parse reads the urlencoded body. A malformed body yields empty values.
func parse(r *http.Request) {
	_ = r.ParseForm()
}

func value(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

// secret keeps passwords byte-exact.
func secret(r *http.Request, key string) string {
	return r.PostFormValue(key)
}
