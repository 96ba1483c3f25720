package dimoco

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultGatewayURL 网关下单地址
	DefaultGatewayURL = "https://services.dimoco.at/smart/payment"
	// ActionStart 发起支付动作
	ActionStart = "start"

	ParamMerchant       = "merchant"
	ParamOrder          = "order"
	ParamAction         = "action"
	ParamRequestID      = "request_id"
	ParamCallbackURL    = "url_callback"
	ParamReturnURL      = "url_return"
	ParamServiceName    = "service_name"
	ParamAmount         = "amount"
	ParamOrderIDs       = "cp_order_ids"
	ParamInvoiceNumber  = "cp_invoice_number"
	ParamShopper        = "shopper"
	ParamMSISDN         = "msisdn"
	ParamLanguage       = "language"
	ParamCountry        = "country"
	ParamPromptMerchant = "prompt_merchant_args"
	ParamPromptProduct  = "prompt_product_args"
	ParamDigest         = "digest"

	// WebhookDataField webhook 表单中的 XML 报文字段
	WebhookDataField = "data"
	// WebhookDigestField webhook 表单中的签名字段
	WebhookDigestField = "digest"

	defaultTimeoutSeconds = 10
)

var (
	ErrConfigInvalid      = errors.New("dimoco config invalid")
	ErrRequestFailed      = errors.New("dimoco request failed")
	ErrResponseInvalid    = errors.New("dimoco response invalid")
	ErrStatusRejected     = errors.New("dimoco status rejected")
	ErrSignatureMissing   = errors.New("dimoco signature missing")
	ErrSignatureInvalid   = errors.New("dimoco signature invalid")
	ErrDuplicateParameter = errors.New("dimoco duplicate parameter")
	ErrOrderIDsMissing    = errors.New("dimoco order ids missing")
	ErrInvoiceMissing     = errors.New("dimoco invoice number missing")
)

var tracer = otel.Tracer("github.com/carrierpay/internal/payment/dimoco")

// Config 已按环境解析的网关配置
type Config struct {
	GatewayURL     string
	MerchantID     string // 商户号
	OrderID        string // 网关侧固定订单号，与本系统订单无关
	ClientSecret   string // 签名密钥
	LogoURL        string // 支付页展示的商户 logo
	ServiceName    string // 支付页展示的服务名称
	WebhookURL     string // 异步通知地址
	SuccessURL     string // 支付完成跳转地址
	FailURL        string // 失败跳转地址
	LogAllRequests bool   // 是否记录完整请求/响应
	AutoFinish     bool   // 支付成功后订单直接完成
	TimeoutSeconds int
}

// String 隐藏密钥的配置描述
func (c Config) String() string {
	return fmt.Sprintf("dimoco.Config{merchant=%s order=%s secret=%s gateway=%s}",
		c.MerchantID, c.OrderID, maskSecret(c.ClientSecret), c.GatewayURL)
}

// ValidateConfig 校验下单必需的凭据
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	var missing []string
	if strings.TrimSpace(cfg.MerchantID) == "" {
		missing = append(missing, "merchant_id")
	}
	if strings.TrimSpace(cfg.OrderID) == "" {
		missing = append(missing, "order_id")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		missing = append(missing, "client_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s is required", ErrConfigInvalid, strings.Join(missing, ", "))
	}
	return nil
}

// ProductPrompt 支付页商品预览
type ProductPrompt struct {
	ImageURL    string
	Description string
}

// CreateInput 发起支付输入
type CreateInput struct {
	RequestID    string // 为空时自动生成
	Amount       decimal.Decimal
	OrderIDs     []uint
	InvoiceNo    string
	ShopperEmail string
	MSISDN       string
	Language     string
	Country      string
	Product      *ProductPrompt
}

// Exchange 一次网关交互的记录，不包含密钥
type Exchange struct {
	URL          string
	RequestForm  string
	ResponseBody string
	HTTPStatus   int
}

// CreateResult 发起支付结果
type CreateResult struct {
	RequestID   string
	Reference   string
	Status      ActionStatus
	Detail      string
	RedirectURL string
	Exchange    Exchange
}

// Pending 网关已受理，结果将通过 webhook 通知
func (r *CreateResult) Pending() bool {
	return r != nil && r.Status == ActionStatusPending
}

// BuildParams 组装发起支付的表单参数（未签名）
func BuildParams(cfg *Config, input CreateInput) (*Params, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.RequestID) == "" {
		return nil, fmt.Errorf("%w: request_id is required", ErrConfigInvalid)
	}
	params := &Params{}
	params.Add(ParamMerchant, cfg.MerchantID)
	params.Add(ParamOrder, cfg.OrderID)
	params.Add(ParamAction, ActionStart)
	params.Add(ParamRequestID, input.RequestID)
	params.Add(ParamCallbackURL, cfg.WebhookURL)
	params.Add(ParamReturnURL, cfg.SuccessURL)
	params.Add(ParamServiceName, cfg.ServiceName)
	params.Add(ParamAmount, FormatAmount(input.Amount))
	params.Add(ParamOrderIDs, JoinOrderIDs(input.OrderIDs))
	params.Add(ParamInvoiceNumber, input.InvoiceNo)
	params.AddOptional(ParamShopper, input.ShopperEmail)
	params.AddOptional(ParamMSISDN, input.MSISDN)
	params.AddOptional(ParamLanguage, input.Language)
	params.AddOptional(ParamCountry, input.Country)

	if strings.TrimSpace(cfg.LogoURL) != "" {
		raw, err := json.Marshal(MerchantArguments{
			Logo: Picture{URL: cfg.LogoURL, AltText: cfg.ServiceName},
		})
		if err != nil {
			return nil, err
		}
		params.Add(ParamPromptMerchant, string(raw))
	}
	if input.Product != nil && strings.TrimSpace(input.Product.ImageURL) != "" {
		raw, err := json.Marshal(ProductArguments{
			Picture:     Picture{URL: input.Product.ImageURL, AltText: input.Product.Description},
			Description: map[string]string{input.Language: input.Product.Description},
		})
		if err != nil {
			return nil, err
		}
		params.Add(ParamPromptProduct, string(raw))
	}
	return params, nil
}

// CreatePayment 发起支付。参数组装完成后返回的结果总是非空，便于记录交互日志。
func CreatePayment(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.RequestID) == "" {
		input.RequestID = uuid.NewString()
	}
	params, err := BuildParams(cfg, input)
	if err != nil {
		return nil, err
	}
	if _, err := SignParams(params, cfg.ClientSecret); err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(cfg.GatewayURL)
	if endpoint == "" {
		endpoint = DefaultGatewayURL
	}
	result := &CreateResult{
		RequestID: input.RequestID,
		Exchange: Exchange{
			URL:         endpoint,
			RequestForm: params.LogLines(),
		},
	}

	ctx, span := tracer.Start(ctx, "dimoco.create_payment")
	defer span.End()
	span.SetAttributes(
		attribute.String("dimoco.request_id", input.RequestID),
		attribute.String("dimoco.invoice_no", input.InvoiceNo),
	)

	status, body, err := postForm(ctx, endpoint, params, timeoutOf(cfg))
	result.Exchange.HTTPStatus = status
	result.Exchange.ResponseBody = string(body)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return result, err
	}

	parsed, err := InterpretStartResponse(status, body)
	if parsed != nil {
		result.Reference = strings.TrimSpace(parsed.Reference)
		if parsed.ActionResult != nil {
			result.Status = parsed.ActionResult.Status
			result.Detail = parsed.ActionResult.Detail
			result.RedirectURL = strings.TrimSpace(parsed.ActionResult.Redirect.URL)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "response rejected")
		return result, err
	}
	span.SetAttributes(attribute.String("dimoco.action_status", result.Status.String()))
	return result, nil
}

// InterpretStartResponse 判定发起支付的网关响应：
// HTTP 200/201/204，且 status 为 3（需跳转，必须带跳转地址）或 5（待定）才算成功。
func InterpretStartResponse(httpStatus int, body []byte) (*APIResult, error) {
	if httpStatus != http.StatusOK && httpStatus != http.StatusCreated && httpStatus != http.StatusNoContent {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, httpStatus)
	}
	parsed, err := ParseResult(body)
	if err != nil {
		return nil, err
	}
	if parsed.ActionResult == nil {
		return parsed, fmt.Errorf("%w: action_result missing", ErrResponseInvalid)
	}
	switch parsed.ActionResult.Status {
	case ActionStatusRedirect:
		if strings.TrimSpace(parsed.ActionResult.Redirect.URL) == "" {
			return parsed, fmt.Errorf("%w: redirect url missing", ErrResponseInvalid)
		}
	case ActionStatusPending:
	default:
		return parsed, fmt.Errorf("%w: status %d: %s", ErrStatusRejected, parsed.ActionResult.Status, parsed.ActionResult.Detail)
	}
	return parsed, nil
}

// FormatAmount 金额格式化，固定两位小数并使用 "." 作为小数点
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// JoinOrderIDs 订单 ID 以逗号拼接
func JoinOrderIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}

// SplitOrderIDs 解析逗号拼接的订单 ID
func SplitOrderIDs(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := strconv.ParseUint(part, 10, 64)
		if err != nil || parsed == 0 {
			return nil, fmt.Errorf("%w: invalid order id %q", ErrOrderIDsMissing, part)
		}
		ids = append(ids, uint(parsed))
	}
	if len(ids) == 0 {
		return nil, ErrOrderIDsMissing
	}
	return ids, nil
}

func postForm(ctx context.Context, endpoint string, params *Params, timeout time.Duration) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Form().Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/xml, text/xml, */*")
	req.Header.Set("User-Agent", "carrierpay/1.0")
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}
	return resp.StatusCode, body, nil
}

func timeoutOf(cfg *Config) time.Duration {
	seconds := cfg.TimeoutSeconds
	if seconds <= 0 {
		seconds = defaultTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
