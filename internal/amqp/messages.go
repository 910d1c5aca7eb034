package amqp

import (
	"encoding/json"
	"time"
)

// IngestMessage carries one raw text payload (bank SMS, receipt OCR) from a
// gateway to the worker. The worker runs extraction and files the pending
// transaction; the message itself stays small.
type IngestMessage struct {
	UserID    string    `json:"user_id"`
	RawText   string    `json:"raw_text"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewIngestMessage(userID, rawText, source string) *IngestMessage {
	return &IngestMessage{
		UserID:    userID,
		RawText:   rawText,
		Source:    source,
		Timestamp: time.Now(),
	}
}

func (m *IngestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func IngestMessageFromJSON(data []byte) (*IngestMessage, error) {
	var msg IngestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
