// Package apperr определяет классификацию бизнес-ошибок приложения.
// Каждая операция сервисного слоя возвращает ошибку ровно одного вида,
// хендлеры транслируют вид в HTTP-статус в одном месте.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTransaction
)

// String возвращает машиночитаемый код вида ошибки
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransaction:
		return "transaction"
	}
	return "internal"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation ошибка входных данных, исправляется повторной отправкой
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// Unauthorized вызывающий не аутентифицирован
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// Forbidden вызывающий не владелец слота / не адресат запроса
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

// NotFound сущность с таким id не существует
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Conflict состояние изменилось: слот не swappable, запрос уже обработан,
// проигранная гонка на статусе
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// Transaction сбой на уровне стора (begin/commit), частичных записей нет
func Transaction(msg string, err error) error {
	return &Error{Kind: KindTransaction, Msg: msg, Err: err}
}

// KindOf возвращает вид ошибки, KindInternal для неклассифицированных
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind проверяет что ошибка имеет заданный вид
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
