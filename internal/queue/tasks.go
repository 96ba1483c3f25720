package queue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TaskDimocoOutcome 落库回调对账结论
	TaskDimocoOutcome = "payment:dimoco_outcome"
)

// DimocoOutcomePayload 回调对账结论任务载荷
type DimocoOutcomePayload struct {
	ChannelID    uint   `json:"channel_id"`
	EventKey     string `json:"event_key"`
	Reference    string `json:"reference"`
	InvoiceNo    string `json:"invoice_no"`
	OrderIDs     []uint `json:"order_ids"`
	Accepted     bool   `json:"accepted"`
	AutoFinish   bool   `json:"auto_finish"`
	Detail       string `json:"detail"`
	BilledAmount string `json:"billed_amount"`
}

// NewDimocoOutcomeTask 创建对账结论任务
func NewDimocoOutcomeTask(payload DimocoOutcomePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDimocoOutcome, body), nil
}

// ParseDimocoOutcomePayload 解析任务载荷
func ParseDimocoOutcomePayload(body []byte) (DimocoOutcomePayload, error) {
	var payload DimocoOutcomePayload
	err := json.Unmarshal(body, &payload)
	return payload, err
}
