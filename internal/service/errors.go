package service

import "errors"

var (
	ErrNotFound                      = errors.New("not found")
	ErrInvalidCredentials            = errors.New("invalid credentials")
	ErrOrderNotFound                 = errors.New("order not found")
	ErrOrderUpdateFailed             = errors.New("order update failed")
	ErrPaymentInvalid                = errors.New("payment invalid")
	ErrPaymentChannelNotFound        = errors.New("payment channel not found")
	ErrPaymentChannelInactive        = errors.New("payment channel inactive")
	ErrPaymentChannelConfigInvalid   = errors.New("payment channel config invalid")
	ErrPaymentProviderNotSupported   = errors.New("payment provider not supported")
	ErrPaymentGatewayRequestFailed   = errors.New("payment gateway request failed")
	ErrPaymentGatewayResponseInvalid = errors.New("payment gateway response invalid")
	ErrPaymentRejected               = errors.New("payment rejected by gateway")
	ErrPaymentSignatureInvalid       = errors.New("payment signature invalid")
	ErrPaymentUpdateFailed           = errors.New("payment update failed")
	ErrSettingsSecretUnavailable     = errors.New("settings secret unavailable")
	ErrPaymentInternal               = errors.New("payment internal error")
	ErrCaptchaRequired               = errors.New("captcha required")
	ErrCaptchaInvalid                = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid          = errors.New("captcha config invalid")
)
