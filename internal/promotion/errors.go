package promotion

import "errors"

var (
	ErrInvalidTitle        = errors.New("promotion title is required")
	ErrInvalidBudget       = errors.New("budget must be greater than zero")
	ErrInvalidCreditAmount = errors.New("credit amount must be greater than zero")
	ErrPaymentFailed       = errors.New("payment charge failed")
	ErrPromotionNotFound   = errors.New("promotion not found")
)
