package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user-facing message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a low-level error into a code and a message safe to
// show to users. Sensitive details stay out of the response; the raw error
// goes to the log at the call site.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Произошла ошибка сервера",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	// PostgreSQL constraint violations.
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStrLower)
	}
	if strings.Contains(errStrLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "Связанная запись не найдена или используется",
		}
	}
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "Не заполнено обязательное поле",
		}
	}
	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "Значение не проходит проверку",
		}
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Не удалось связаться с внешним сервисом. Попробуйте позже",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: defaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "Этот email уже зарегистрирован",
		}
	}
	if strings.Contains(errLower, "phone") {
		return ErrorInfo{
			Code:    AuthPhoneAlreadyExists,
			Message: "Этот номер телефона уже зарегистрирован",
		}
	}
	if strings.Contains(errLower, "slug") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "Такой адрес страницы уже используется",
		}
	}
	if strings.Contains(errLower, "idx_cart_product") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "Товар уже есть в корзине",
		}
	}
	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "Такая запись уже существует",
	}
}

func notFoundMessage(context string) string {
	switch context {
	case "product":
		return "Товар не найден"
	case "category":
		return "Категория не найдена"
	case "cart":
		return "Корзина не найдена"
	case "order":
		return "Заказ не найден"
	case "customer":
		return "Пользователь не найден"
	default:
		return "Запись не найдена"
	}
}

func defaultErrorMessage(context string) string {
	switch context {
	case "checkout":
		return "Не удалось оформить заказ. Попробуйте позже"
	case "import":
		return "Не удалось обработать файл импорта"
	default:
		return "Произошла ошибка сервера. Попробуйте позже"
	}
}
