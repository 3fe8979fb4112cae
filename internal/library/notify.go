package library

import (
	"fmt"

	"go.uber.org/zap"
)

// Op names a mutation for notifications.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

var pastTense = map[Op]string{
	OpCreate: "created",
	OpUpdate: "updated",
	OpDelete: "deleted",
}

// Outcome is the result of one mutation.
type Outcome struct {
	Op  Op
	ID  string
	Err error
}

// Message is the user-facing text for the outcome.
func (o Outcome) Message() string {
	if o.Err != nil {
		return fmt.Sprintf("Failed to %s book: %v", o.Op, o.Err)
	}
	return fmt.Sprintf("Book %s successfully", pastTense[o.Op])
}

// Notifier receives every mutation outcome.
type Notifier interface {
	Notify(Outcome)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Outcome)

func (f NotifierFunc) Notify(o Outcome) { f(o) }

// LogNotifier writes outcomes to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(o Outcome) {
	fields := []zap.Field{zap.String("op", string(o.Op)), zap.String("id", o.ID)}
	if o.Err != nil {
		n.Logger.Error(o.Message(), append(fields, zap.Error(o.Err))...)
		return
	}
	n.Logger.Info(o.Message(), fields...)
}
