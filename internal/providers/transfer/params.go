package transfer

import (
	"fmt"

	"github.com/dorogoy/zipline-mcp-sub003/internal/types"
)

// Success creates successful result
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure creates failed result
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}

// GetString extracts string parameter
func GetString(params map[string]interface{}, key string, required bool) (string, error) {
	val, ok := params[key]
	if !ok || val == nil {
		if required {
			return "", fmt.Errorf("%s parameter required", key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be string", key)
	}

	if required && str == "" {
		return "", fmt.Errorf("%s parameter required", key)
	}
	return str, nil
}

// GetNumber extracts numeric parameter. JSON decoding yields float64.
func GetNumber(params map[string]interface{}, key string, defaultVal float64) float64 {
	val, ok := params[key]
	if !ok {
		return defaultVal
	}

	switch n := val.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return defaultVal
}
