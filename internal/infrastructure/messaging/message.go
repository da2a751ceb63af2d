// Package messaging 提供基于 Redis Stream 的交互事件发布
package messaging

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"edu-ai-api/internal/domain/entity"
)

// Stream 流名称
type Stream string

// StreamAIInteractions 已落库的交互记录，供分析侧消费
const StreamAIInteractions Stream = "stream:ai:interactions"

const (
	eventTypeInteraction = "ai_interaction"
	eventSchemaVersion   = 1
)

// InteractionEvent 写入流的事件。
// 记录本身放在 Payload，常用过滤字段平铺在外层，消费端无需解析载荷即可筛选。
type InteractionEvent struct {
	Version         int                    `json:"v"`
	Type            string                 `json:"type"`
	RecordID        string                 `json:"record_id"`
	UserID          string                 `json:"user_id,omitempty"`
	InteractionType entity.InteractionType `json:"interaction_type"`
	Succeeded       bool                   `json:"succeeded"`
	Source          string                 `json:"source"`
	Payload         json.RawMessage        `json:"payload"`
	PublishedAt     time.Time              `json:"published_at"`
}

func newInteractionEvent(record *entity.InteractionRecord, source string, now time.Time) (*InteractionEvent, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interaction record: %w", err)
	}
	return &InteractionEvent{
		Version:         eventSchemaVersion,
		Type:            eventTypeInteraction,
		RecordID:        record.ID,
		UserID:          record.UserID,
		InteractionType: record.InteractionType,
		Succeeded:       record.Succeeded,
		Source:          source,
		Payload:         payload,
		PublishedAt:     now.UTC(),
	}, nil
}

// Values 转成 XADD 字段；data 保存完整事件
func (e *InteractionEvent) Values() (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return map[string]any{
		"type":             e.Type,
		"interaction_type": string(e.InteractionType),
		"succeeded":        strconv.FormatBool(e.Succeeded),
		"data":             string(data),
	}, nil
}

// DecodeInteractionEvent 从流字段还原事件
func DecodeInteractionEvent(values map[string]any) (*InteractionEvent, *entity.InteractionRecord, error) {
	raw, ok := values["data"].(string)
	if !ok {
		return nil, nil, fmt.Errorf("stream entry has no data field")
	}
	var evt InteractionEvent
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		return nil, nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if evt.Version != eventSchemaVersion {
		return nil, nil, fmt.Errorf("unsupported event version %d", evt.Version)
	}
	var record entity.InteractionRecord
	if err := json.Unmarshal(evt.Payload, &record); err != nil {
		return nil, nil, fmt.Errorf("failed to decode interaction record: %w", err)
	}
	return &evt, &record, nil
}
