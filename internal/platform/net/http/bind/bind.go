// Package bind decodes and validates JSON request bodies into project errors
package bind

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

// DefaultMaxBytes bounds a body, a stored rewrite of a long sitting runs to a few MB
const DefaultMaxBytes = 8 << 20

type validatorSvc struct {
	v     *validator.Validate
	trans ut.Translator
}

var (
	vOnce    sync.Once
	vSvc     validatorSvc
	jsonMore = func(dec *json.Decoder) bool { return dec.More() }
)

// validation returns the shared validator, messages use json names and english text
func validation() validatorSvc {
	vOnce.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = entrans.RegisterDefaultTranslations(v, trans)
		for tag, text := range map[string]string{
			"min": "{0} must be at least {1}",
			"max": "{0} must be at most {1}",
		} {
			shortTranslation(v, trans, tag, text)
		}
		vSvc = validatorSvc{v: v, trans: trans}
	})
	return vSvc
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func shortTranslation(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// JSONOptions controls parsing
type JSONOptions struct {
	MaxBytes       int64 // 0 means DefaultMaxBytes, negative means unbounded
	AllowUnknown   bool
	AllowEmptyBody bool
	SkipValidation bool
}

// ParseJSON decodes one JSON value into T and validates it
// malformed bodies are JSON errors, failed validation names the offending field
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero, dst T
	var o JSONOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.C(r.Context()).Warn().Err(err).Msg("close request body")
		}
	}()

	var body io.Reader = r.Body
	switch {
	case o.MaxBytes == 0:
		body = io.LimitReader(body, DefaultMaxBytes+1)
	case o.MaxBytes > 0:
		body = io.LimitReader(body, o.MaxBytes+1)
	}

	// peek so an empty body reads as such rather than as EOF from the decoder
	var peek [1]byte
	n, _ := io.ReadFull(body, peek[:])
	if n == 0 {
		if o.AllowEmptyBody {
			return dst, nil
		}
		return zero, perr.JSONErrf("empty body")
	}
	counted := &countingReader{r: io.MultiReader(bytes.NewReader(peek[:n]), body)}

	dec := json.NewDecoder(counted)
	if !o.AllowUnknown {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&dst); err != nil {
		if limit := maxBytes(o); limit > 0 && counted.n > limit {
			return zero, perr.JSONErrf("body exceeds %d bytes", limit)
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if jsonMore(dec) {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if o.SkipValidation {
		return dst, nil
	}
	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// Validate runs struct validation and maps the first failure to a validation error
func Validate(v any) error {
	err := validation().v.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Named("bind").Error().Err(inv).Msg("validator misuse")
		return perr.New(perr.ErrorCodeValidation, "validation error")
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// FieldAndMessage returns the path and translated message of the first failure
// paths are relative to the body, as in records[3].speaker
func FieldAndMessage(err error) (field, message string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		if err == nil {
			return "", ""
		}
		return "", err.Error()
	}
	fe := verrs[0]
	field = fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	return field, fe.Translate(validation().trans)
}

func maxBytes(o JSONOptions) int64 {
	if o.MaxBytes == 0 {
		return DefaultMaxBytes
	}
	return o.MaxBytes
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
