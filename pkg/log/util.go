package log

import (
	"fmt"

	"go.uber.org/zap"
)

// toFields turns alternating keys and values into zap fields. A bare error
// in key position becomes the "error" field; a dangling key is kept under
// "arg#<index>" and a non-string key under "invalid_key_<n>".
func toFields(kv ...any) []zap.Field {
	if len(kv) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(kv)/2+1)
	for i := 0; i < len(kv); {
		if err, ok := kv[i].(error); ok {
			fields = append(fields, zap.Error(err))
			i++
			continue
		}
		if i+1 == len(kv) {
			fields = append(fields, zap.Any(fmt.Sprintf("arg#%d", i), kv[i]))
			break
		}

		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("invalid_key_%d", i/2+1)
			fields = append(fields, zap.Any(key, []any{kv[i], kv[i+1]}))
			i += 2
			continue
		}
		fields = append(fields, field(key, kv[i+1]))
		i += 2
	}
	return fields
}

// field keeps response bodies readable; zap.Any would base64 them.
func field(key string, v any) zap.Field {
	if b, ok := v.([]byte); ok {
		return zap.ByteString(key, b)
	}
	return zap.Any(key, v)
}
