package osi

import "github.com/pkg/errors"

var (
	// ErrInvalidConfiguration reports a training configuration that cannot run,
	// such as an unknown selection method.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrNumericDegenerate reports a score vector that cannot be turned into a
	// sampling distribution.
	ErrNumericDegenerate = errors.New("numeric degenerate")
)

func invalidConfig(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidConfiguration, format, args...)
}

func degenerate(format string, args ...any) error {
	return errors.Wrapf(ErrNumericDegenerate, format, args...)
}
