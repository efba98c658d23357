package events

import (
	"encoding/json"
	"fmt"
)

// Message is one event received from the bus.
type Message struct {
	Topic string
	Data  []byte
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

// Decode unmarshals a message into the event type published on its topic.
// The result is a pointer, e.g. *EventIngested.
func Decode(m Message) (any, error) {
	var v any
	switch m.Topic {
	case TopicEventIngested:
		v = &EventIngested{}
	case TopicEventDuplicate:
		v = &EventDuplicate{}
	case TopicBatchProcessed:
		v = &BatchProcessed{}
	case TopicCursorAdvanced:
		v = &CursorAdvanced{}
	default:
		return nil, fmt.Errorf("unknown topic %q", m.Topic)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", m.Topic, err)
	}
	return v, nil
}
