package lifecycle

import "errors"

var (
	// ErrValidation is returned synchronously, before any network call.
	ErrValidation = errors.New("lifecycle: invalid payload")
	// ErrPaymentFailed: the server reported a terminal failure.
	ErrPaymentFailed = errors.New("lifecycle: payment failed")
	// ErrTimedOut: the confirmation window elapsed with no resolution;
	// the charge state is unknown and support should be contacted.
	ErrTimedOut = errors.New("lifecycle: payment confirmation timed out")
	// ErrCancelled: the attempt was cancelled or superseded while its
	// initiation response was still in flight; the response is discarded.
	ErrCancelled = errors.New("lifecycle: attempt cancelled")
)

func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsPaymentFailed(err error) bool { return errors.Is(err, ErrPaymentFailed) }
func IsTimedOut(err error) bool      { return errors.Is(err, ErrTimedOut) }
func IsCancelled(err error) bool     { return errors.Is(err, ErrCancelled) }
