// Package response единый формат JSON-ответов сервера синхронизации.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response стандартный ответ: Status "OK" или "Error", текст ошибки или данные.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Deleted ответ на удаление документа.
type Deleted struct {
	Status  string `json:"status"`
	Deleted int    `json:"deleted"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// OKWithData успешный ответ с данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error ответ с ошибкой msg.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError собирает ошибки валидатора в одно сообщение.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "min", "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be %s %s", err.Field(), err.ActualTag(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
