package handlers

import (
	"github.com/keeperpay/keeperpay/internal/http/response"
	"github.com/keeperpay/keeperpay/internal/service"
)

var paymentCreateErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, msg: "payment input invalid"},
	{target: service.ErrPaymentGatewayRequestFailed, code: response.CodeBadRequest, msg: "payment gateway request failed"},
	{target: service.ErrPaymentGatewayResponseInvalid, code: response.CodeBadRequest, msg: "payment gateway response invalid"},
	{target: service.ErrPaymentCreateFailed, code: response.CodeInternal, msg: "payment create failed"},
}

var paymentQueryErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, msg: "payment input invalid"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "payment not found"},
	{target: service.ErrPaymentStatusInvalid, code: response.CodeBadRequest, msg: "payment status invalid"},
	{target: service.ErrKeeperAccountInvalid, code: response.CodeBadRequest, msg: "keeper account invalid"},
	{target: service.ErrPaymentFetchFailed, code: response.CodeInternal, msg: "payment fetch failed"},
}

var paymentWebhookErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentSignatureInvalid, code: response.CodeBadRequest, msg: "webhook signature invalid"},
	{target: service.ErrPaymentGatewayResponseInvalid, code: response.CodeBadRequest, msg: "webhook payload invalid"},
	{target: service.ErrPaymentUpdateFailed, code: response.CodeInternal, msg: "payment update failed"},
}

var keeperAccountErrorRules = []mappedHandlerError{
	{target: service.ErrKeeperAccountInvalid, code: response.CodeBadRequest, msg: "keeper account invalid"},
	{target: service.ErrKeeperAccountNotFound, code: response.CodeNotFound, msg: "keeper account not found"},
	{target: service.ErrPaymentGatewayRequestFailed, code: response.CodeBadRequest, msg: "payment gateway request failed"},
	{target: service.ErrPaymentGatewayResponseInvalid, code: response.CodeBadRequest, msg: "payment gateway response invalid"},
}
