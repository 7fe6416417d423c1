package ledger

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// WebhookEvent is a settlement-relevant notification pushed by the external
// ledger's webhook integration (spec §4.6, §6 "POST /api/ledger/webhook").
type WebhookEvent struct {
	Type          string
	Signature     string
	Slot          uint64
	ArenaAddress  string
	Confirmed     bool
}

// ParseWebhook extracts the fields the coordinator cares about from a raw
// webhook body without requiring the full payload schema, using gjson's
// path lookups so unrecognised extra fields are ignored rather than
// rejected.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid webhook JSON")
	}
	parsed := gjson.ParseBytes(body)

	evt := &WebhookEvent{
		Type:         parsed.Get("type").String(),
		Signature:    parsed.Get("signature").String(),
		Slot:         parsed.Get("slot").Uint(),
		ArenaAddress: parsed.Get("account").String(),
		Confirmed:    parsed.Get("confirmed").Bool(),
	}
	if evt.Type == "" {
		return nil, fmt.Errorf("webhook missing type field")
	}
	return evt, nil
}
