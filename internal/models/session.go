package models

import "time"

// TurnRecordKind enumerates the variants a TurnRecord may take.
type TurnRecordKind string

const (
	RecordUserText      TurnRecordKind = "user_text"
	RecordAssistantText TurnRecordKind = "assistant_text"
	RecordToolCall      TurnRecordKind = "tool_call"
	RecordToolResult    TurnRecordKind = "tool_result"
)

// TurnRecord is one entry in a Session's append-only history.
//
// Exactly one of the payload fields is meaningful, selected by Kind:
//   - RecordUserText / RecordAssistantText: Text
//   - RecordToolCall: ToolName, Arguments, CallID
//   - RecordToolResult: CallID, Status, Content
type TurnRecord struct {
	Kind      TurnRecordKind    `json:"kind"`
	Text      string            `json:"text,omitempty"`
	ToolName  string            `json:"toolName,omitempty"`
	Arguments string            `json:"arguments,omitempty"`
	CallID    string            `json:"callId,omitempty"`
	Status    ToolResultStatus  `json:"status,omitempty"`
	Content   string            `json:"content,omitempty"`
	Media     []MediaAttachment `json:"media,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewUserTextRecord builds a user-text TurnRecord, attaching media only
// when present (media is stripped from persisted form by the session store).
func NewUserTextRecord(text string, media []MediaAttachment) TurnRecord {
	return TurnRecord{Kind: RecordUserText, Text: text, Media: media, CreatedAt: time.Now()}
}

// NewAssistantTextRecord builds an assistant-text TurnRecord.
func NewAssistantTextRecord(text string) TurnRecord {
	return TurnRecord{Kind: RecordAssistantText, Text: text, CreatedAt: time.Now()}
}

// NewToolCallRecord builds a tool-call-request TurnRecord.
func NewToolCallRecord(callID, toolName, arguments string) TurnRecord {
	return TurnRecord{Kind: RecordToolCall, CallID: callID, ToolName: toolName, Arguments: arguments, CreatedAt: time.Now()}
}

// NewToolResultRecord builds a tool-call-result TurnRecord.
func NewToolResultRecord(callID string, status ToolResultStatus, content string) TurnRecord {
	return TurnRecord{Kind: RecordToolResult, CallID: callID, Status: status, Content: content, CreatedAt: time.Now()}
}

// Session is the full append-only turn history for one ownerKey.
type Session struct {
	OwnerKey    string       `json:"ownerKey"`
	Records     []TurnRecord `json:"records"`
	CreatedAtMs int64        `json:"createdAtMs"`
	LastUsedMs  int64        `json:"lastUsedAtMs"`
}

// PersistedRecord strips non-persistent fields (media base64 data) before
// a record is written to durable storage.
func PersistedRecord(r TurnRecord) TurnRecord {
	if len(r.Media) == 0 {
		return r
	}
	stripped := make([]MediaAttachment, len(r.Media))
	for i, m := range r.Media {
		stripped[i] = MediaAttachment{Type: m.Type, MimeType: m.MimeType, URL: m.URL}
	}
	r.Media = stripped
	return r
}

// ValidateToolCallPairing checks the session invariant that every tool-call
// request is followed, before end of turn, by exactly one result with a
// matching callId.
func ValidateToolCallPairing(records []TurnRecord) error {
	pending := map[string]bool{}
	for _, r := range records {
		switch r.Kind {
		case RecordToolCall:
			pending[r.CallID] = true
		case RecordToolResult:
			if !pending[r.CallID] {
				return errUnmatchedToolResult(r.CallID)
			}
			delete(pending, r.CallID)
		}
	}
	if len(pending) > 0 {
		for id := range pending {
			return errUnresolvedToolCall(id)
		}
	}
	return nil
}
