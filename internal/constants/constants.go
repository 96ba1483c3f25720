package constants

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusCompleted      = "completed"
	OrderStatusCanceled       = "canceled"
)

// 订单行类型常量
const (
	OrderItemTypeProduct  = "product"
	OrderItemTypeShipping = "shipping"
	OrderItemTypePayment  = "payment_fee"
	OrderItemTypeDiscount = "discount"
)

// 支付提供方常量
const (
	PaymentProviderDimoco = "dimoco"
)

// 支付环境常量
const (
	PaymentEnvironmentTest = "test"
	PaymentEnvironmentLive = "live"
)

// 运行模式常量
const (
	ServerModeAll    = "all"
	ServerModeAPI    = "api"
	ServerModeWorker = "worker"
)

// 管理后台 Token 角色
const (
	AdminRole = "admin"
)

// 验证码提供方
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)
