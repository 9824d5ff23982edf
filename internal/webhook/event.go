package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

// Kind is the closed set of gateway events this service understands. Anything else
// decodes to KindUnknown and is acknowledged without action.
type Kind int

const (
	KindUnknown Kind = iota
	KindChargeSuccess
	KindTransferSuccess
	KindTransferFailed
	KindTransferReversed
)

var kindNames = map[string]Kind{
	"charge.success":    KindChargeSuccess,
	"transfer.success":  KindTransferSuccess,
	"transfer.failed":   KindTransferFailed,
	"transfer.reversed": KindTransferReversed,
}

func ParseKind(name string) Kind {
	if k, ok := kindNames[name]; ok {
		return k
	}
	return KindUnknown
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// Metadata is the checkout context echoed back by the gateway.
type Metadata struct {
	Type    string `json:"type"`
	BuyerID string `json:"buyerId"`
}

type Data struct {
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"` // minor units
	Status    string   `json:"status"`
	Currency  string   `json:"currency"`
	Metadata  Metadata `json:"-"`
}

type Event struct {
	Name string
	Kind Kind
	Data Data
}

type envelope struct {
	Event string `json:"event"`
	Data  struct {
		Data
		RawMetadata json.RawMessage `json:"metadata"`
	} `json:"data"`
}

// Parse decodes an authenticated body into an Event.
func Parse(body []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedEvent)
	}
	ev := &Event{Name: env.Event, Kind: ParseKind(env.Event), Data: env.Data.Data}
	ev.Data.Metadata = parseMetadata(env.Data.RawMetadata)
	if ev.Kind != KindUnknown && ev.Data.Reference == "" {
		return nil, fmt.Errorf("%w: missing reference", ErrMalformedEvent)
	}
	return ev, nil
}

// parseMetadata accepts the object form and the JSON-in-a-string form gateways send.
func parseMetadata(raw json.RawMessage) Metadata {
	var m Metadata
	if len(raw) == 0 {
		return m
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return m
		}
		raw = json.RawMessage(s)
	}
	var loose map[string]interface{}
	if json.Unmarshal(raw, &loose) != nil {
		return m
	}
	if v, ok := loose["type"].(string); ok {
		m.Type = v
	}
	switch v := loose["buyerId"].(type) {
	case string:
		m.BuyerID = v
	case float64:
		m.BuyerID = strconv.FormatInt(int64(v), 10)
	}
	return m
}
