package healthstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// likePrefix escapes LIKE wildcards in prefix and appends %; pair with ESCAPE '\'.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func marshalMetadata(md map[string]string) (interface{}, error) {
	if len(md) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(raw string) (map[string]string, error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var md map[string]string
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return md, nil
}

func orderClause(order SortOrder) string {
	if order == SortStartAscending {
		return "ORDER BY start_time ASC"
	}
	return "ORDER BY end_time DESC"
}
