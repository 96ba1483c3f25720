package dimoco

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// ParseResult 解析网关响应或 webhook 报文
func ParseResult(body []byte) (*APIResult, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrResponseInvalid)
	}
	var result APIResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if result.AdditionalResults == nil {
		result.AdditionalResults = []AdditionalResult{}
	}
	if result.CustomParameters == nil {
		result.CustomParameters = []CustomParameter{}
	}
	if result.Transactions == nil {
		result.Transactions = []Transaction{}
	}
	return &result, nil
}
