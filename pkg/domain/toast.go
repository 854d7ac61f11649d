package domain

import "time"

// ToastLevel is the severity of a transient notification.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastWarning ToastLevel = "warning"
	ToastInfo    ToastLevel = "info"
)

// Toast is a transient user-facing notification.
type Toast struct {
	Level     ToastLevel `json:"level"`
	Message   string     `json:"message"`
	Operation string     `json:"operation,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
