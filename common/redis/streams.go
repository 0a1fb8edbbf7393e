package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// PublishToStream XADDs values, stringifying scalars and JSON-encoding the rest.
// maxLen > 0 caps the stream length approximately.
func PublishToStream(ctx context.Context, client *redis.Client, stream string, maxLen int64, values map[string]interface{}) (string, error) {
	streamValues := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			streamValues[k] = val
		case []byte:
			streamValues[k] = string(val)
		case int:
			streamValues[k] = strconv.Itoa(val)
		case int64:
			streamValues[k] = strconv.FormatInt(val, 10)
		case float64:
			streamValues[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			streamValues[k] = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("failed to marshal stream field %s: %w", k, err)
			}
			streamValues[k] = string(b)
		}
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: streamValues,
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	return client.XAdd(ctx, args).Result()
}

// PublishJSONToStream publishes data under the "data" field with a unix "timestamp".
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, maxLen int64, eventType string, data interface{}) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return PublishToStream(ctx, client, stream, maxLen, map[string]interface{}{
		"type":      eventType,
		"data":      string(b),
		"timestamp": time.Now().Unix(),
	})
}
