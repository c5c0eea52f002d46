package client

import (
	"fmt"
	"net/url"
)

// BuildQuery encodes params as a query string with a leading "?", skipping
// nil and empty-string values. It returns "" when nothing remains.
func BuildQuery(params map[string]any) string {
	values := url.Values{}
	for k, v := range params {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
			values.Set(k, val)
		case *string:
			if val == nil || *val == "" {
				continue
			}
			values.Set(k, *val)
		default:
			values.Set(k, fmt.Sprint(val))
		}
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
