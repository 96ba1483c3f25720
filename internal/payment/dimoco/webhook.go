package dimoco

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Webhook webhook 表单中的原始报文与签名
type Webhook struct {
	Data   string
	Digest string
}

// ExtractWebhook 读取 data 与 digest 字段，任一缺失即视为鉴权失败
func ExtractWebhook(form map[string][]string) (*Webhook, error) {
	data := firstValue(form, WebhookDataField)
	digest := strings.TrimSpace(firstValue(form, WebhookDigestField))
	if strings.TrimSpace(data) == "" {
		return nil, fmt.Errorf("%w: data field missing", ErrSignatureMissing)
	}
	if digest == "" {
		return nil, fmt.Errorf("%w: digest field missing", ErrSignatureMissing)
	}
	return &Webhook{Data: data, Digest: digest}, nil
}

// VerifyWebhook 对原始报文校验签名
func VerifyWebhook(cfg *Config, wh *Webhook) error {
	if cfg == nil || strings.TrimSpace(cfg.ClientSecret) == "" {
		return fmt.Errorf("%w: client_secret is required", ErrConfigInvalid)
	}
	if wh == nil {
		return ErrSignatureMissing
	}
	if !Verify(wh.Data, wh.Digest, cfg.ClientSecret) {
		return ErrSignatureInvalid
	}
	return nil
}

// ParseWebhook 先验签再解析，未通过验签的报文不会被解析
func ParseWebhook(cfg *Config, form map[string][]string) (*APIResult, *Webhook, error) {
	wh, err := ExtractWebhook(form)
	if err != nil {
		return nil, nil, err
	}
	if err := VerifyWebhook(cfg, wh); err != nil {
		return nil, wh, err
	}
	result, err := ParseResult([]byte(wh.Data))
	if err != nil {
		return nil, wh, err
	}
	if result.ActionResult == nil {
		return nil, wh, fmt.Errorf("%w: action_result missing", ErrResponseInvalid)
	}
	return result, wh, nil
}

// InvoiceNumber 读取 cp_invoice_number 自定义参数
func InvoiceNumber(result *APIResult) (string, error) {
	value, ok := result.CustomParameter(ParamInvoiceNumber)
	if !ok || strings.TrimSpace(value) == "" {
		return "", ErrInvoiceMissing
	}
	return strings.TrimSpace(value), nil
}

// OrderIDs 读取 cp_order_ids 自定义参数
func OrderIDs(result *APIResult) ([]uint, error) {
	value, ok := result.CustomParameter(ParamOrderIDs)
	if !ok || strings.TrimSpace(value) == "" {
		return nil, ErrOrderIDsMissing
	}
	return SplitOrderIDs(value)
}

// Verdict 对账结论
type Verdict struct {
	Accepted bool
	Detail   string
	Billed   decimal.Decimal
	Expected decimal.Decimal
}

// BilledTotal 汇总已扣费交易（状态 4/5）的实际扣费金额
func BilledTotal(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		if !tx.Status.IsBilled() {
			continue
		}
		total = total.Add(tx.BilledAmount.Decimal)
	}
	return total
}

// Reconcile 判定 webhook 是否代表完整付款。
// 非成功状态直接拒绝且不检查交易；成功时要求实际扣费总额不低于订单应付总额。
// Detail 始终取网关返回的 detail。
func Reconcile(result *APIResult, expected decimal.Decimal) Verdict {
	if result == nil || result.ActionResult == nil {
		return Verdict{Expected: expected}
	}
	verdict := Verdict{
		Detail:   result.ActionResult.Detail,
		Expected: expected,
		Billed:   decimal.Zero,
	}
	if result.ActionResult.Status != ActionStatusSuccess {
		return verdict
	}
	verdict.Billed = BilledTotal(result.Transactions)
	verdict.Accepted = verdict.Billed.GreaterThanOrEqual(expected)
	return verdict
}

func firstValue(form map[string][]string, key string) string {
	if values, ok := form[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}
