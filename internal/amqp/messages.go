package amqp

import (
	"encoding/json"
	"time"

	"btwbuddy/internal/update"
)

// UpdateStatusMessage mirrors an updater status event for external
// notification consumers.
type UpdateStatusMessage struct {
	Status    update.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewUpdateStatusMessage(s update.Status) *UpdateStatusMessage {
	return &UpdateStatusMessage{
		Status:    s,
		Timestamp: time.Now(),
	}
}

func (m *UpdateStatusMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func UpdateStatusMessageFromJSON(data []byte) (*UpdateStatusMessage, error) {
	var msg UpdateStatusMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ExportCompletedMessage announces a finished monthly export and the files
// it produced.
type ExportCompletedMessage struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Files     []string  `json:"files"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportCompletedMessage(year, month int, files []string) *ExportCompletedMessage {
	return &ExportCompletedMessage{
		Year:      year,
		Month:     month,
		Files:     files,
		Timestamp: time.Now(),
	}
}

func (m *ExportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportCompletedMessageFromJSON(data []byte) (*ExportCompletedMessage, error) {
	var msg ExportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
