package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/soltixdb/eventseries/internal/models"
)

// LoadJSON decodes a JSON array of events, a single event, or newline-delimited
// events. Blank input yields an empty slice.
func LoadJSON(r io.Reader) ([]models.RawEvent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	data = bytes.TrimSpace(data)
	events := make([]models.RawEvent, 0)
	if len(data) == 0 {
		return events, nil
	}

	if data[0] == '[' {
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("failed to decode event array: %w", err)
		}
		return events, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var ev models.RawEvent
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", len(events)+1, err)
		}
		events = append(events, ev)
	}
}
