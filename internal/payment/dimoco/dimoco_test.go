package dimoco

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func testConfig(gatewayURL string) *Config {
	return &Config{
		GatewayURL:   gatewayURL,
		MerchantID:   "merchant-1",
		OrderID:      "static-order-9",
		ClientSecret: "s3cr3t",
		ServiceName:  "Shop",
		WebhookURL:   "https://shop.example.com/api/v1/payments/dimoco/webhook/1",
		SuccessURL:   "https://shop.example.com/pay/done",
		FailURL:      "https://shop.example.com/pay/failed",
	}
}

func TestCanonicalPayloadSortedByName(t *testing.T) {
	a := &Params{}
	a.Add("order", "2")
	a.Add("amount", "49.99")
	a.Add("merchant", "1")

	b := &Params{}
	b.Add("merchant", "1")
	b.Add("order", "2")
	b.Add("amount", "49.99")

	got, err := CanonicalPayload(a)
	if err != nil {
		t.Fatalf("canonical payload failed: %v", err)
	}
	if got != "49.9912" {
		t.Fatalf("unexpected payload: %s", got)
	}
	other, err := CanonicalPayload(b)
	if err != nil {
		t.Fatalf("canonical payload failed: %v", err)
	}
	if got != other {
		t.Fatalf("insertion order changed payload: %s vs %s", got, other)
	}
}

func TestCanonicalPayloadExcludesDigestAndPathParams(t *testing.T) {
	params := &Params{}
	params.Add("b", "2")
	params.Add("a", "1")
	params.AddPath("id", "99")
	params.Add(ParamDigest, "ffff")

	got, err := CanonicalPayload(params)
	if err != nil {
		t.Fatalf("canonical payload failed: %v", err)
	}
	if got != "12" {
		t.Fatalf("unexpected payload: %s", got)
	}
	if _, ok := params.Form()["id"]; ok {
		t.Fatalf("path param must not be sent as form field")
	}
}

func TestCanonicalPayloadDuplicateName(t *testing.T) {
	params := &Params{}
	params.Add("a", "1")
	params.Add("a", "2")
	if _, err := CanonicalPayload(params); !errors.Is(err, ErrDuplicateParameter) {
		t.Fatalf("expected duplicate parameter error, got %v", err)
	}
}

func TestSignAndVerify(t *testing.T) {
	payloads := []string{"", "abc", "<result><action>start</action></result>", "ünïcödé"}
	for _, payload := range payloads {
		digest := Sign(payload, "secret")
		if digest != strings.ToLower(digest) || len(digest) != 64 {
			t.Fatalf("digest must be 64 lowercase hex chars: %s", digest)
		}
		if !Verify(payload, digest, "secret") {
			t.Fatalf("verify failed for %q", payload)
		}
		if !Verify(payload, strings.ToUpper(digest), "secret") {
			t.Fatalf("verify must be case insensitive for %q", payload)
		}
		if Verify(payload, digest, "other") {
			t.Fatalf("verify must fail with another secret")
		}
	}
}

func TestVerifyFailsOnFlippedByte(t *testing.T) {
	body := "<result><action_result><status>0</status></action_result></result>"
	digest := Sign(body, "secret")
	for i := 0; i < len(body); i++ {
		tampered := []byte(body)
		tampered[i] ^= 0x01
		if Verify(string(tampered), digest, "secret") {
			t.Fatalf("verify passed with byte %d flipped", i)
		}
	}
	if Verify(body, "not-hex", "secret") {
		t.Fatalf("verify must reject non hex digest")
	}
	if Verify(body, "", "secret") {
		t.Fatalf("verify must reject empty digest")
	}
}

func TestSignParamsAppendsDigestLast(t *testing.T) {
	params := &Params{}
	params.Add("b", "2")
	params.Add("a", "1")
	digest, err := SignParams(params, "secret")
	if err != nil {
		t.Fatalf("sign params failed: %v", err)
	}
	if digest != Sign("12", "secret") {
		t.Fatalf("digest not computed over canonical payload")
	}
	items := params.Items()
	if items[len(items)-1].Name != ParamDigest {
		t.Fatalf("digest must be appended last")
	}
	payload, _ := CanonicalPayload(params)
	if payload != "12" {
		t.Fatalf("digest must not be part of its own input: %s", payload)
	}
}

func TestValidateConfigMissingCredentials(t *testing.T) {
	err := ValidateConfig(&Config{MerchantID: "m"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "order_id") || !strings.Contains(err.Error(), "client_secret") {
		t.Fatalf("expected missing fields in error: %v", err)
	}
	if strings.Contains(testConfig("").String(), "s3cr3t") {
		t.Fatalf("config string must not expose secret")
	}
}

func TestBuildParamsPrompts(t *testing.T) {
	cfg := testConfig("")
	cfg.LogoURL = "https://shop.example.com/logo.png"
	params, err := BuildParams(cfg, CreateInput{
		RequestID: "req-1",
		Amount:    decimal.RequireFromString("1234.5"),
		OrderIDs:  []uint{3, 4},
		InvoiceNo: "INV-1",
		Language:  "de",
		Product:   &ProductPrompt{ImageURL: "https://shop.example.com/p.png", Description: "Ringtone"},
	})
	if err != nil {
		t.Fatalf("build params failed: %v", err)
	}
	if amount, _ := params.Get(ParamAmount); amount != "1234.50" {
		t.Fatalf("unexpected amount: %s", amount)
	}
	if ids, _ := params.Get(ParamOrderIDs); ids != "3,4" {
		t.Fatalf("unexpected order ids: %s", ids)
	}
	if _, ok := params.Get(ParamShopper); ok {
		t.Fatalf("empty shopper must be omitted")
	}
	rawMerchant, ok := params.Get(ParamPromptMerchant)
	if !ok {
		t.Fatalf("merchant prompt missing")
	}
	var merchant MerchantArguments
	if err := json.Unmarshal([]byte(rawMerchant), &merchant); err != nil {
		t.Fatalf("merchant prompt invalid json: %v", err)
	}
	if merchant.Logo.URL != cfg.LogoURL || merchant.Logo.AltText != "Shop" {
		t.Fatalf("unexpected merchant prompt: %+v", merchant)
	}
	rawProduct, ok := params.Get(ParamPromptProduct)
	if !ok {
		t.Fatalf("product prompt missing")
	}
	var product ProductArguments
	if err := json.Unmarshal([]byte(rawProduct), &product); err != nil {
		t.Fatalf("product prompt invalid json: %v", err)
	}
	if product.Description["de"] != "Ringtone" || product.Picture.URL != "https://shop.example.com/p.png" {
		t.Fatalf("unexpected product prompt: %+v", product)
	}
}

func TestCreatePaymentPendingEndToEnd(t *testing.T) {
	var received url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received, _ = url.ParseQuery(string(body))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<result><action_result><status>5</status><detail>pending</detail></action_result><reference>ref-77</reference><request_id>x</request_id></result>`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	result, err := CreatePayment(context.Background(), cfg, CreateInput{
		Amount:    decimal.RequireFromString("49.99"),
		OrderIDs:  []uint{12},
		InvoiceNo: "INV-12",
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if !result.Pending() || result.Reference != "ref-77" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if received.Get(ParamAmount) != "49.99" {
		t.Fatalf("unexpected amount sent: %s", received.Get(ParamAmount))
	}
	if received.Get(ParamRequestID) != result.RequestID || result.RequestID == "" {
		t.Fatalf("request id mismatch: %s vs %s", received.Get(ParamRequestID), result.RequestID)
	}

	check := &Params{}
	for name, values := range received {
		if name == ParamDigest {
			continue
		}
		check.Add(name, values[0])
	}
	payload, err := CanonicalPayload(check)
	if err != nil {
		t.Fatalf("canonical payload failed: %v", err)
	}
	if received.Get(ParamDigest) != Sign(payload, cfg.ClientSecret) {
		t.Fatalf("digest does not match sorted payload")
	}
	if strings.Contains(result.Exchange.RequestForm, cfg.ClientSecret) {
		t.Fatalf("exchange log must not contain client secret")
	}
}

func TestInterpretStartResponse(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"redirect with url", 200, `<result><action_result><status>3</status><redirect><url>https://pay</url></redirect></action_result></result>`, nil},
		{"redirect without url", 200, `<result><action_result><status>3</status></action_result></result>`, ErrResponseInvalid},
		{"failure status", 200, `<result><action_result><status>1</status><detail>nope</detail></action_result></result>`, ErrStatusRejected},
		{"validation failed", 201, `<result><action_result><status>4</status></action_result></result>`, ErrStatusRejected},
		{"pending", 201, `<result><action_result><status>5</status></action_result></result>`, nil},
		{"http error", 500, `<result><action_result><status>5</status></action_result></result>`, ErrRequestFailed},
		{"garbage", 200, `not xml`, ErrResponseInvalid},
		{"missing action result", 200, `<result><reference>r</reference></result>`, ErrResponseInvalid},
		{"no content", 204, ``, ErrResponseInvalid},
	}
	for _, tc := range cases {
		_, err := InterpretStartResponse(tc.status, []byte(tc.body))
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestCreatePaymentTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	result, err := CreatePayment(context.Background(), testConfig(server.URL), CreateInput{
		Amount:    decimal.NewFromInt(1),
		OrderIDs:  []uint{1},
		InvoiceNo: "INV-1",
	})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failed, got %v", err)
	}
	if result == nil || result.Exchange.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("exchange must be recorded on failure: %+v", result)
	}
}

func TestParseResultToleratesMissingSections(t *testing.T) {
	result, err := ParseResult([]byte(`<result><action_result><status>0</status></action_result></result>`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Transactions == nil || result.CustomParameters == nil || result.AdditionalResults == nil {
		t.Fatalf("missing sections must decode as empty collections")
	}
	if _, err := ParseResult([]byte("<result>")); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected response invalid, got %v", err)
	}
}

func webhookBody(status int, transactions string) string {
	return `<result><action>start</action>` +
		`<action_result><status>` + strconv.Itoa(status) + `</status><detail>gateway detail</detail></action_result>` +
		`<custom_parameters>` +
		`<custom_parameter><key>cp_order_ids</key><value>12,13</value></custom_parameter>` +
		`<custom_parameter><key>cp_invoice_number</key><value>INV-12</value></custom_parameter>` +
		`</custom_parameters>` +
		`<reference>ref-77</reference>` +
		`<transactions>` + transactions + `</transactions></result>`
}

func TestParseWebhookVerifiesBeforeDecoding(t *testing.T) {
	cfg := testConfig("")
	body := "definitely <not> xml"
	form := map[string][]string{
		WebhookDataField:   {body},
		WebhookDigestField: {Sign(body+"x", cfg.ClientSecret)},
	}
	if _, _, err := ParseWebhook(cfg, form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid before decode, got %v", err)
	}

	form[WebhookDigestField] = []string{Sign(body, cfg.ClientSecret)}
	if _, _, err := ParseWebhook(cfg, form); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected decode error after valid signature, got %v", err)
	}

	if _, _, err := ParseWebhook(cfg, map[string][]string{WebhookDataField: {body}}); !errors.Is(err, ErrSignatureMissing) {
		t.Fatalf("expected signature missing, got %v", err)
	}
}

func TestParseWebhookCorrelation(t *testing.T) {
	cfg := testConfig("")
	body := webhookBody(0, `<transaction><amount>49.99</amount><billed_amount>49.99</billed_amount><currency>EUR</currency><id>t1</id><sms_message><id>sms-1</id></sms_message><status>4</status></transaction>`)
	form := map[string][]string{
		WebhookDataField:   {body},
		WebhookDigestField: {strings.ToUpper(Sign(body, cfg.ClientSecret))},
	}
	result, _, err := ParseWebhook(cfg, form)
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	ids, err := OrderIDs(result)
	if err != nil || len(ids) != 2 || ids[0] != 12 || ids[1] != 13 {
		t.Fatalf("unexpected order ids: %v %v", ids, err)
	}
	invoice, err := InvoiceNumber(result)
	if err != nil || invoice != "INV-12" {
		t.Fatalf("unexpected invoice: %s %v", invoice, err)
	}
	if result.Transactions[0].SMSMessage == nil || result.Transactions[0].SMSMessage.ID != "sms-1" {
		t.Fatalf("sms message not decoded")
	}
	verdict := Reconcile(result, decimal.RequireFromString("49.99"))
	if !verdict.Accepted || verdict.Detail != "gateway detail" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestReconcileAmounts(t *testing.T) {
	full, err := ParseResult([]byte(webhookBody(0,
		`<transaction><billed_amount>60.00</billed_amount><status>5</status></transaction>`+
			`<transaction><billed_amount>40.00</billed_amount><status>4</status></transaction>`+
			`<transaction><billed_amount>500.00</billed_amount><status>1</status></transaction>`)))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	verdict := Reconcile(full, decimal.RequireFromString("100.00"))
	if !verdict.Accepted {
		t.Fatalf("expected accepted verdict: %+v", verdict)
	}
	if !verdict.Billed.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("unbilled transactions must be ignored: %s", verdict.Billed)
	}

	partial, err := ParseResult([]byte(webhookBody(0, `<transaction><billed_amount>99.99</billed_amount><status>5</status></transaction>`)))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if Reconcile(partial, decimal.RequireFromString("100.00")).Accepted {
		t.Fatalf("partial billing must be rejected")
	}
}

func TestParseResultTrimsAmountWhitespace(t *testing.T) {
	result, err := ParseResult([]byte(webhookBody(0,
		"<transaction>\n  <amount>\n 49.99\n</amount>\n  <billed_amount>\n 49.99\n</billed_amount>\n  <status> 4 </status>\n</transaction>"+
			`<transaction><billed_amount></billed_amount><status>5</status></transaction>`)))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !result.Transactions[0].Amount.Equal(decimal.RequireFromString("49.99")) {
		t.Fatalf("unexpected amount: %s", result.Transactions[0].Amount)
	}
	if !result.Transactions[1].BilledAmount.IsZero() {
		t.Fatalf("empty billed amount must decode as zero: %s", result.Transactions[1].BilledAmount)
	}
	if !Reconcile(result, decimal.RequireFromString("49.99")).Accepted {
		t.Fatalf("indented amounts must still reconcile")
	}
}

func TestReconcileFailureStatusSkipsTransactions(t *testing.T) {
	result, err := ParseResult([]byte(webhookBody(1, `<transaction><billed_amount>100.00</billed_amount><status>5</status></transaction>`)))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	verdict := Reconcile(result, decimal.RequireFromString("1.00"))
	if verdict.Accepted {
		t.Fatalf("failure status must be rejected regardless of transactions")
	}
	if verdict.Detail != "gateway detail" || !verdict.Billed.IsZero() {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestOrderIDsMissing(t *testing.T) {
	result, err := ParseResult([]byte(`<result><action_result><status>0</status></action_result></result>`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, err := OrderIDs(result); !errors.Is(err, ErrOrderIDsMissing) {
		t.Fatalf("expected order ids missing, got %v", err)
	}
	if _, err := SplitOrderIDs("1,abc"); !errors.Is(err, ErrOrderIDsMissing) {
		t.Fatalf("expected invalid order id error, got %v", err)
	}
}

func TestChannelConfigEnvironmentSelection(t *testing.T) {
	cfg, err := ParseChannelConfig(map[string]interface{}{
		"fail_url": " https://shop.example.com/failed ",
		"test":     map[string]interface{}{"merchant_id": "test-m"},
		"live":     map[string]interface{}{"merchant_id": "live-m"},
	})
	if err != nil {
		t.Fatalf("parse channel config failed: %v", err)
	}
	if cfg.GatewayURL != DefaultGatewayURL || cfg.FailURL != "https://shop.example.com/failed" {
		t.Fatalf("unexpected normalized config: %+v", cfg)
	}
	if cfg.Credentials("development").MerchantID != "test-m" {
		t.Fatalf("development must map to test credentials")
	}
	if cfg.Credentials("live").MerchantID != "live-m" {
		t.Fatalf("live must map to live credentials")
	}
}
