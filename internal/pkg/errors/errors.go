package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных
	// (например, фильтр со значением вне допустимого набора).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState используется для операций, недопустимых в текущем состоянии
	// (ответ в завершённой тренировке, повторный ответ на уже сыгранный клю).
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrConflict используется для конфликтов данных (например, email уже занят).
	ErrConflict = errors.New("resource state conflict")
)
