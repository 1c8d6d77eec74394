package engine

import "errors"

// Class groups engine errors by what went wrong
type Class string

const (
	ClassValidation Class = "validation"
	ClassPermission Class = "permission"
	ClassState      Class = "state"
	ClassResource   Class = "resource"
	ClassArithmetic Class = "arithmetic"
)

// Error is a named engine failure. Compare with errors.Is against the Err* values.
type Error struct {
	Class Class
	Name  string
}

func (e *Error) Error() string {
	return e.Name
}

func newError(class Class, name string) *Error {
	return &Error{Class: class, Name: name}
}

var (
	ErrWrongAmountOfMetadata        = newError(ClassValidation, "WrongAmountOfMetadata")
	ErrDurationMustBeHigherThanZero = newError(ClassValidation, "DurationMustBeHigherThanZero")
	ErrPriceCannotBeReached         = newError(ClassValidation, "PriceCannotBeReached")
	ErrTooManyNftTypes              = newError(ClassValidation, "TooManyNftTypes")
	ErrInvalidQuantity              = newError(ClassValidation, "InvalidQuantity")

	ErrUserNotWhitelisted     = newError(ClassPermission, "UserNotWhitelisted")
	ErrInsufficientPermission = newError(ClassPermission, "InsufficientPermission")

	ErrProjectNotFound       = newError(ClassState, "ProjectNotFound")
	ErrProjectOngoing        = newError(ClassState, "ProjectOngoing")
	ErrProjectNotEnded       = newError(ClassState, "ProjectNotEnded")
	ErrNoOngoingVotingPeriod = newError(ClassState, "NoOngoingVotingPeriod")
	ErrAlreadyVoted          = newError(ClassState, "AlreadyVoted")
	ErrInvalidIndex          = newError(ClassState, "InvalidIndex")
	ErrNftTypeNotFound       = newError(ClassState, "NftTypeNotFound")
	ErrNftNotFound           = newError(ClassState, "NftNotFound")
	ErrNoBondingYet          = newError(ClassState, "NoBondingYet")

	ErrNotEnoughFunds                     = newError(ClassResource, "NotEnoughFunds")
	ErrNotEnoughBondingFundsAvailable     = newError(ClassResource, "NotEnoughBondingFundsAvailable")
	ErrNotEnoughNftsAvailable             = newError(ClassResource, "NotEnoughNftsAvailable")
	ErrProjectCanOnlyHave10PercentBonding = newError(ClassResource, "ProjectCanOnlyHave10PercentBonding")
	ErrTooManyProjects                    = newError(ClassResource, "TooManyProjects")

	ErrConversionError     = newError(ClassArithmetic, "ConversionError")
	ErrArithmeticOverflow  = newError(ClassArithmetic, "ArithmeticOverflow")
	ErrArithmeticUnderflow = newError(ClassArithmetic, "ArithmeticUnderflow")
)

// ClassOf returns the class of the first engine error in err's chain, or ""
// for errors that did not originate in the engine (collaborator failures).
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}
