package public

import (
	handlershared "github.com/carrierpay/internal/http/handlers/shared"
	"github.com/carrierpay/internal/http/response"
	"github.com/carrierpay/internal/service"

	"github.com/gin-gonic/gin"
)

func respondWithMappedError(c *gin.Context, err error, rules []response.ErrorRule, fallbackCode int, fallbackMsg string) {
	handlershared.RespondAppError(c, response.MatchError(err, rules, fallbackCode, fallbackMsg))
}

var paymentInitiateErrorRules = []response.ErrorRule{
	{Target: service.ErrPaymentInvalid, Code: response.CodeBadRequest, Message: "payment request invalid"},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Message: "order not found"},
	{Target: service.ErrPaymentChannelNotFound, Code: response.CodeNotFound, Message: "payment channel not found"},
	{Target: service.ErrPaymentChannelInactive, Code: response.CodeBadRequest, Message: "payment channel inactive"},
	{Target: service.ErrPaymentProviderNotSupported, Code: response.CodeBadRequest, Message: "payment provider not supported"},
}
