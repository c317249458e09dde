package keap

import (
	"bytes"
	"encoding/json"
	"strings"
)

type contactPayload struct {
	Email          string `json:"email"`
	EmailAddresses []struct {
		Email string `json:"email"`
		Field string `json:"field"`
	} `json:"email_addresses"`
	CustomFields []struct {
		ID      int             `json:"id"`
		Content json.RawMessage `json:"content"`
	} `json:"custom_fields"`
}

// PrimaryEmail extracts the contact's primary email from a detail payload.
// EMAIL1 wins, then the first non-empty address, then the top-level email.
// Undecodable payloads yield "".
func PrimaryEmail(raw json.RawMessage) string {
	var p contactPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ""
	}

	first := ""
	for _, a := range p.EmailAddresses {
		email := strings.TrimSpace(a.Email)
		if email == "" {
			continue
		}
		if a.Field == "EMAIL1" {
			return email
		}
		if first == "" {
			first = email
		}
	}
	if first != "" {
		return first
	}
	return strings.TrimSpace(p.Email)
}

// CustomFields flattens the custom_fields array into id -> content. String
// content is unquoted, anything else is kept as compact JSON and null
// becomes "".
func CustomFields(raw json.RawMessage) map[int]string {
	var p contactPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return map[int]string{}
	}

	fields := make(map[int]string, len(p.CustomFields))
	for _, f := range p.CustomFields {
		fields[f.ID] = contentString(f.Content)
	}
	return fields
}

func contentString(content json.RawMessage) string {
	if len(content) == 0 || string(content) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, content); err != nil {
		return string(content)
	}
	return buf.String()
}
