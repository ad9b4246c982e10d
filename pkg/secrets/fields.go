package secrets

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// DefaultHeaders returns the HTTP headers whose values are masked.
func DefaultHeaders() []string {
	return []string{
		"Authorization",
		"Proxy-Authorization",
		"Cookie",
		"Set-Cookie",
		"X-Api-Key",
		"X-Auth-Token",
		"X-Access-Token",
		"X-Csrf-Token",
	}
}

// DefaultFields returns the form and JSON field names whose values are masked.
func DefaultFields() []string {
	return []string{
		"client_secret",
		"password",
		"access_token",
		"refresh_token",
		"id_token",
	}
}

// IsSecretHeader reports whether name is one of DefaultHeaders.
func IsSecretHeader(name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for _, h := range DefaultHeaders() {
		if http.CanonicalHeaderKey(h) == canonical {
			return true
		}
	}
	return false
}

// IsSecretField reports whether name is one of DefaultFields.
func IsSecretField(name string) bool {
	for _, f := range DefaultFields() {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// MaskHeaders returns a copy of headers with secret values masked.
func MaskHeaders(headers http.Header, config *Masking) http.Header {
	result := make(http.Header, len(headers))

	for key, values := range headers {
		if !IsSecretHeader(key) {
			result[key] = append([]string(nil), values...)
			continue
		}
		masked := make([]string, len(values))
		for i, v := range values {
			if strings.EqualFold(key, "Authorization") || strings.EqualFold(key, "Proxy-Authorization") {
				masked[i] = MaskAuthorization(v, config)
			} else {
				masked[i] = MaskValue(v, config)
			}
		}
		result[key] = masked
	}

	return result
}

// MaskForm masks secret fields of a URL-encoded form body. Bodies that do
// not parse as a form are returned fully masked.
func MaskForm(body string, config *Masking) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return MaskValue(body, &Masking{Style: StyleFull})
	}

	parts := strings.Split(body, "&")
	for i, part := range parts {
		name, _, found := strings.Cut(part, "=")
		if !found || !IsSecretField(name) {
			continue
		}
		parts[i] = name + "=" + MaskValue(values.Get(name), config)
	}
	return strings.Join(parts, "&")
}

// MaskJSON masks top-level and nested secret fields of a JSON document.
// Documents that cannot be decoded are returned unchanged.
func MaskJSON(body []byte, config *Masking) []byte {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	masked, err := json.Marshal(maskJSONValue(data, config))
	if err != nil {
		return body
	}
	return masked
}

func maskJSONValue(data interface{}, config *Masking) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		for key, value := range v {
			if s, ok := value.(string); ok && IsSecretField(key) {
				v[key] = MaskValue(s, config)
				continue
			}
			v[key] = maskJSONValue(value, config)
		}
		return v
	case []interface{}:
		for i, value := range v {
			v[i] = maskJSONValue(value, config)
		}
		return v
	default:
		return v
	}
}
