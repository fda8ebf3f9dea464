package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// storedPayload is the persisted JSON shape of a message.
type storedPayload struct {
	Type             string         `json:"type"`
	Content          string         `json:"content"`
	AdditionalKwargs map[string]any `json:"additional_kwargs,omitempty"`
}

// EncodeMessage serializes a message into its stored payload form.
// An empty or unrecognized role is persisted as human.
func EncodeMessage(m Message) ([]byte, error) {
	role := m.Role
	if role != RoleAI {
		role = RoleHuman
	}
	out, err := json.Marshal(storedPayload{
		Type:             string(role),
		Content:          m.Content,
		AdditionalKwargs: m.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

// DecodeMessage reconstructs a message from a stored payload. Some
// writers persist the payload JSON-encoded twice (a JSON string
// holding the object); both forms are accepted. Unknown type tags
// decode as human.
func DecodeMessage(payload []byte) (Message, error) {
	data := bytes.TrimSpace(payload)
	if len(data) == 0 {
		return Message{}, fmt.Errorf("decode message: empty payload")
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return Message{}, fmt.Errorf("decode message wrapper: %w", err)
		}
		data = []byte(inner)
	}
	var p storedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	role := RoleHuman
	if p.Type == string(RoleAI) {
		role = RoleAI
	}
	return Message{Role: role, Content: p.Content, Metadata: p.AdditionalKwargs}, nil
}
