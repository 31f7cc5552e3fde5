// Package common holds small error helpers shared across packages.
package common

import (
	"errors"
	"fmt"

	"github.com/prestamos-sa/prestamos/logger"
)

func NewErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// Combine joins the non-nil errors; it returns nil when all are nil.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

// Recover logs a recovered panic together with msg and returns it.
// Use it as `defer common.Recover("...")`.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}
