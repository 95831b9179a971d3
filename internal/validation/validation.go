// Package validation checks configuration structs against their validate
// tags and reports every violation in one error.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/bft-labs/irclone/internal/domain"
)

var (
	vOnce  sync.Once
	vInst  *validator.Validate
	vTrans ut.Translator
)

// instance returns the shared validator with English messages that name
// fields by their key tag.
func instance() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if key := fld.Tag.Get("key"); key != "" {
				return key
			}
			return fld.Name
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vInst, vTrans = v, trans
	})
	return vInst, vTrans
}

// Struct validates s, which must be a struct or a pointer to one. Every
// violation is listed, joined with "; ", and wrapped in
// domain.ErrInvalidConfig.
func Struct(s any) error {
	v, trans := instance()
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(trans))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(msgs, "; "))
}
