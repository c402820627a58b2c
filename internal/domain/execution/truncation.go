package execution

import (
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"
)

// DefaultMaxDataSize is the default limit for a rule's data bag (1MB).
const DefaultMaxDataSize = 1 * 1024 * 1024

const truncatedMarker = "\n... [TRUNCATED] ..."

// DataMeta records that a result's data bag was truncated.
type DataMeta struct {
	Reason       string `json:"reason,omitempty" yaml:"reason,omitempty"`
	OriginalSize int    `json:"original_size_bytes" yaml:"original_size_bytes"`
	TruncatedAt  int    `json:"truncated_at_bytes" yaml:"truncated_at_bytes"`
	Truncated    bool   `json:"truncated" yaml:"truncated"`
}

// TruncationStrategy defines how rule data is reduced when it exceeds limits.
type TruncationStrategy interface {
	Truncate(data map[string]any, limit int) (map[string]any, *DataMeta, error)
}

// GreedyTruncator shrinks the largest top-level values first until the
// serialized bag fits. Strings over half the limit are cut; other values
// over half the limit are replaced by a placeholder.
type GreedyTruncator struct{}

// Truncate returns data unchanged when it fits, otherwise a truncated copy.
func (t *GreedyTruncator) Truncate(data map[string]any, limit int) (map[string]any, *DataMeta, error) {
	if limit <= 0 || len(data) == 0 {
		return data, nil, nil
	}

	serialized, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to measure rule data size: %w", err)
	}
	originalSize := len(serialized)
	if originalSize <= limit {
		return data, nil, nil
	}

	// The round trip doubles as a deep copy.
	var out map[string]any
	if err := json.Unmarshal(serialized, &out); err != nil {
		return nil, nil, fmt.Errorf("failed to copy rule data: %w", err)
	}

	sizes := make(map[string]int, len(out))
	keys := make([]string, 0, len(out))
	for k, v := range out {
		sizes[k] = encodedSize(v)
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if sizes[keys[i]] != sizes[keys[j]] {
			return sizes[keys[i]] > sizes[keys[j]]
		}
		return keys[i] < keys[j]
	})

	size := originalSize
	budget := limit / 2
	for _, key := range keys {
		if size <= limit {
			break
		}
		smaller, ok := shrink(out[key], sizes[key], budget)
		if !ok {
			continue
		}
		out[key] = smaller
		size += encodedSize(smaller) - sizes[key]
	}

	return out, &DataMeta{
		Truncated:    true,
		OriginalSize: originalSize,
		TruncatedAt:  limit,
		Reason:       fmt.Sprintf("rule data exceeded %d bytes limit (greedy strategy)", limit),
	}, nil
}

// shrink returns a smaller stand-in for v, or false when v is within budget.
func shrink(v any, size, budget int) (any, bool) {
	if size <= budget {
		return nil, false
	}
	if s, ok := v.(string); ok {
		cut := budget
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + truncatedMarker, true
	}
	return map[string]string{
		"_truncated": "value exceeded size limit",
		"_type":      fmt.Sprintf("%T", v),
	}, true
}

func encodedSize(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b)
}
