package amqp

import (
	"encoding/json"
	"time"

	"energydash/internal/core"
)

// CommitMessage announces a committed snapshot. It carries no records; the
// consumer reads the snapshot from the database.
type CommitMessage struct {
	CommitID    int64     `json:"commit_id"`
	RecordCount int       `json:"record_count"`
	CommittedAt time.Time `json:"committed_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCommitMessage builds a message for info, stamped now.
func NewCommitMessage(info core.CommitInfo) *CommitMessage {
	return &CommitMessage{
		CommitID:    info.ID,
		RecordCount: info.RecordCount,
		CommittedAt: info.CommittedAt,
		Timestamp:   time.Now(),
	}
}

// CommitInfo converts the message back to the domain type.
func (m *CommitMessage) CommitInfo() core.CommitInfo {
	return core.CommitInfo{ID: m.CommitID, CommittedAt: m.CommittedAt, RecordCount: m.RecordCount}
}

// ToJSON converts the message to JSON bytes
func (m *CommitMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CommitMessageFromJSON creates a message from JSON bytes
func CommitMessageFromJSON(data []byte) (*CommitMessage, error) {
	var msg CommitMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
