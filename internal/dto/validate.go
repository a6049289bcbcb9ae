package dto

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks the struct's validate tags and returns one detail per failing field.
func Validate(req interface{}) []ErrorDetail {
	err := validatorInstance().Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorDetail{{Field: "", Message: err.Error()}}
	}

	details := make([]ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, ErrorDetail{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Bu alan zorunludur"
	case "email":
		return "Geçerli bir e-posta adresi girin"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("En az %s karakter olmalı", fe.Param())
		}
		return fmt.Sprintf("En az %s olmalı", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("En fazla %s karakter olmalı", fe.Param())
		}
		return fmt.Sprintf("En fazla %s olmalı", fe.Param())
	case "len":
		return fmt.Sprintf("%s karakter olmalı", fe.Param())
	case "oneof":
		return "Geçersiz değer, izin verilenler: " + fe.Param()
	case "alphanum", "username":
		return "Yalnızca harf, rakam ve alt çizgi kullanılabilir"
	case "numeric":
		return "Yalnızca rakam kullanılabilir"
	case "url":
		return "Geçerli bir URL girin"
	case "uuid":
		return "Geçersiz kimlik"
	default:
		return "Geçersiz değer"
	}
}
