package dimoco

import (
	"bytes"
	"encoding/xml"

	"github.com/shopspring/decimal"
)

// ActionStatus 动作结果状态（action_result/status）
type ActionStatus int

const (
	ActionStatusSuccess          ActionStatus = 0
	ActionStatusFailure          ActionStatus = 1
	ActionStatusRedirect         ActionStatus = 3
	ActionStatusValidationFailed ActionStatus = 4
	ActionStatusPending          ActionStatus = 5
)

// String 状态名称
func (s ActionStatus) String() string {
	switch s {
	case ActionStatusSuccess:
		return "success"
	case ActionStatusFailure:
		return "failure"
	case ActionStatusRedirect:
		return "redirect_required"
	case ActionStatusValidationFailed:
		return "validation_failed"
	case ActionStatusPending:
		return "pending"
	default:
		return "unknown"
	}
}

// TransactionStatus 单笔扣费交易状态，与 ActionStatus 取值空间不同
type TransactionStatus int

const (
	TransactionStatusBilled          TransactionStatus = 4
	TransactionStatusBilledConfirmed TransactionStatus = 5
)

// IsBilled 4 和 5 表示已成功扣费
func (s TransactionStatus) IsBilled() bool {
	return s == TransactionStatusBilled || s == TransactionStatusBilledConfirmed
}

// APIResult 网关响应与 webhook 共用的报文结构
type APIResult struct {
	XMLName           xml.Name           `xml:"result"`
	Action            string             `xml:"action"`
	ActionResult      *ActionResult      `xml:"action_result"`
	AdditionalResults []AdditionalResult `xml:"additional_results>additional_result"`
	CustomParameters  []CustomParameter  `xml:"custom_parameters>custom_parameter"`
	Customer          Customer           `xml:"customer"`
	PaymentParameters PaymentParameters  `xml:"payment_parameters"`
	Reference         string             `xml:"reference"`
	RequestID         string             `xml:"request_id"`
	Transactions      []Transaction      `xml:"transactions>transaction"`
}

// ActionResult 动作结果
type ActionResult struct {
	Code      string       `xml:"code"`
	Detail    string       `xml:"detail"`
	DetailPSP string       `xml:"detail_psp"` // 下游支付方的错误信息
	Redirect  Redirect     `xml:"redirect"`   // 仅 status=3 时存在
	Status    ActionStatus `xml:"status"`
}

// Redirect 跳转信息
type Redirect struct {
	URL string `xml:"url"`
}

// AdditionalResult 附加返回参数
type AdditionalResult struct {
	Key   string `xml:"key"`
	Value string `xml:"value"`
}

// CustomParameter 商户自定义参数（cp_ 前缀，下单时原样回传）
type CustomParameter struct {
	Key   string `xml:"key"`
	Value string `xml:"value"`
}

// Customer 付款用户信息
type Customer struct {
	Country   string `xml:"country"`  // ISO 3166-1 alpha-2
	ID        string `xml:"id"`       // 用户别名
	IPAddress string `xml:"ip"`       // 终端 IP
	Language  string `xml:"language"` // ISO 639-1
	MSISDN    string `xml:"msisdn"`
	Operator  string `xml:"operator"`
}

// PaymentParameters 支付参数
type PaymentParameters struct {
	Channel string `xml:"channel"` // web / wap / sms
	Method  string `xml:"method"`  // OPERATOR / ISP
}

// Transaction 扣费交易
type Transaction struct {
	Amount       Amount            `xml:"amount"`        // 请求金额
	BilledAmount Amount            `xml:"billed_amount"` // 实际扣费金额，可能小于请求金额
	Currency     string            `xml:"currency"`
	ID           string            `xml:"id"`
	SMSMessage   *SMSMessage       `xml:"sms_message"`
	Status       TransactionStatus `xml:"status"`
}

// Amount 报文中的金额，解析前去掉首尾空白，空元素视为 0
type Amount struct {
	decimal.Decimal
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (a *Amount) UnmarshalText(text []byte) error {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		a.Decimal = decimal.Zero
		return nil
	}
	return a.Decimal.UnmarshalText(trimmed)
}

// SMSMessage 扣费短信
type SMSMessage struct {
	ID string `xml:"id"`
}

// CustomParameter 查找自定义参数
func (r *APIResult) CustomParameter(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, p := range r.CustomParameters {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// RedirectURL 返回跳转地址
func (r *APIResult) RedirectURL() string {
	if r == nil || r.ActionResult == nil {
		return ""
	}
	return r.ActionResult.Redirect.URL
}

// Picture 提示页图片参数
type Picture struct {
	URL     string `json:"img"`
	AltText string `json:"alt"`
}

// MerchantArguments prompt_merchant_args 参数
type MerchantArguments struct {
	Logo Picture `json:"logo"`
}

// ProductArguments prompt_product_args 参数
type ProductArguments struct {
	Picture     Picture           `json:"pic"`
	Description map[string]string `json:"desc"` // 语言代码 -> 描述
}
