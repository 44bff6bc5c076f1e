package service

import "errors"

var (
	ErrPaymentInvalid                = errors.New("payment input invalid")
	ErrPaymentNotFound               = errors.New("payment not found")
	ErrPaymentCreateFailed           = errors.New("payment create failed")
	ErrPaymentFetchFailed            = errors.New("payment fetch failed")
	ErrPaymentUpdateFailed           = errors.New("payment update failed")
	ErrPaymentStatusInvalid          = errors.New("payment status invalid")
	ErrPaymentGatewayRequestFailed   = errors.New("payment gateway request failed")
	ErrPaymentGatewayResponseInvalid = errors.New("payment gateway response invalid")
	ErrPaymentSignatureInvalid       = errors.New("payment signature invalid")
	ErrKeeperAccountInvalid          = errors.New("keeper account input invalid")
	ErrKeeperAccountNotFound         = errors.New("keeper account not found")
)
