package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"voxcmd/pkg/model"
)

func encodeFields(f model.Fields) ([]byte, error) {
	if f == nil {
		f = model.Fields{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	return data, nil
}

// decodeFields restores integral numbers as int so a command read back from
// the table equals the one that was stored.
func decodeFields(data []byte) (model.Fields, error) {
	out := model.Fields{}
	if len(data) == 0 {
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}

	for k, v := range raw {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				out[k] = int(i)
				continue
			}
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid number in field %s: %w", k, err)
			}
			out[k] = f
			continue
		}
		out[k] = v
	}
	return out, nil
}
