// internal/validation/validation.go
package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"helper-admin.kz/internal/auth"
)

var validate *validator.Validate
var roomIDRegex = regexp.MustCompile(`^[A-Za-z0-9_:\-]{1,64}$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("complex_password", validateComplexPassword)
	validate.RegisterValidation("room_id", validateRoomID)

	// Имена полей в ошибках берутся из json-тегов: их видит клиент панели.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func ValidateStruct(data interface{}) url.Values {
	err := validate.Struct(data)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// ValidateVar проверяет одиночное значение (например, параметр пути) по тегу.
func ValidateVar(field string, value interface{}, tag string) url.Values {
	if err := validate.Var(value, tag); err != nil {
		errorsMap := url.Values{}
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range validationErrs {
				errorsMap.Add(field, getErrorMessage(fieldErr))
			}
			return errorsMap
		}
		errorsMap.Add(field, "Ошибка валидации: "+err.Error())
		return errorsMap
	}
	return nil
}

func formatValidationErrors(err error) url.Values {
	errorsMap := url.Values{}
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrs {
			fieldName := fieldErr.Field()
			errorsMap.Add(fieldName, getErrorMessage(fieldErr))
		}
	} else {
		errorsMap.Add("general", "Ошибка валидации: "+err.Error())
	}
	return errorsMap
}

func getErrorMessage(err validator.FieldError) string {
	fieldName := err.Field()
	switch err.Tag() {
	case "required", "required_if":
		return "Это поле обязательно для заполнения."
	case "email":
		return "Введите корректный адрес электронной почты."
	case "max":
		return fmt.Sprintf("Максимальная длина этого поля: %s символов.", err.Param())
	case "min":
		return fmt.Sprintf("Минимальная длина этого поля: %s символов.", err.Param())
	case "oneof":
		return fmt.Sprintf("Выберите одно из допустимых значений: %s.", err.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("Значение вне допустимого диапазона (%s %s).", err.Tag(), err.Param())
	case "url":
		return "Введите корректный URL."
	case "complex_password":
		return "Пароль должен содержать буквы, цифры и символы."
	case "room_id":
		return "Некорректный идентификатор комнаты."
	default:
		return fmt.Sprintf("Некорректное значение для поля %s (тег: %s).", fieldName, err.Tag())
	}
}

func validateComplexPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if password == "" {
		return true
	}
	return auth.IsPasswordComplex(password)
}

func validateRoomID(fl validator.FieldLevel) bool {
	return roomIDRegex.MatchString(fl.Field().String())
}
