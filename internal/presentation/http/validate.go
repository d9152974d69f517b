package httppresentation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks the struct tags of a decoded body and reports every
// failing field as one invalid request error.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("validate body: %w: %w", errs.ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fieldPath(fe), rule))
	}
	return fmt.Errorf("%w: %s", errs.ErrInvalidRequest, strings.Join(msgs, "; "))
}

// fieldPath drops the root struct name: "createOrderRequest.items[0].quantity" -> "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

type pageQuery struct {
	Page int `json:"page" validate:"gte=0"`
	Size int `json:"size" validate:"gte=0,lte=100"`
}

// parsePage reads ?page=&size= (zero based page, size defaults to
// application.DefaultPageSize) into an offset window.
func parsePage(r *http.Request) (application.Page, error) {
	var q pageQuery
	for key, dst := range map[string]*int{"page": &q.Page, "size": &q.Size} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return application.Page{}, fmt.Errorf("%w: %s must be an integer", errs.ErrInvalidRequest, key)
		}
		*dst = n
	}
	if err := validateRequest(q); err != nil {
		return application.Page{}, err
	}
	if q.Size == 0 {
		q.Size = application.DefaultPageSize
	}
	return application.Page{Offset: q.Page * q.Size, Limit: q.Size}.Normalize(), nil
}
