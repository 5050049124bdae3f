// This file parses request bodies that arrive either as JSON or as
// form-encoded data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"teddy/internal/core"
)

// maxBodyBytes bounds every request body read by the API.
const maxBodyBytes = 64 << 10

var errBadBody = errors.New("malformed request body")

// RequestBodyParser reads a body once and exposes its fields regardless of
// whether it was sent as JSON or as a form.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	err      error
}

// NewRequestBodyParser reads and parses r's body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if p.err == nil {
		p.err = p.parse()
	}
	return p
}

func (p *RequestBodyParser) parse() error {
	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			return fmt.Errorf("%w: %v", errBadBody, err)
		}
		return nil
	}
	if trimmed[0] == '[' {
		return fmt.Errorf("%w: expected an object", errBadBody)
	}
	var err error
	if p.formData, err = url.ParseQuery(trimmed); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// Err returns the read or parse error, if any.
func (p *RequestBodyParser) Err() error { return p.err }

// Get returns the trimmed, sanitised value of key.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// ParseDraft builds a transaction draft from p. A missing date means today
// in loc. The draft is not validated here.
func ParseDraft(p *RequestBodyParser, now time.Time, loc *time.Location) (core.Draft, error) {
	if err := p.Err(); err != nil {
		return core.Draft{}, err
	}

	raw := p.Get("amount")
	if raw == "" {
		return core.Draft{}, fmt.Errorf("%w: amount is required", core.ErrInvalidAmount)
	}
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return core.Draft{}, err
	}

	date := now.In(loc)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	if v := p.Get("date"); v != "" {
		if date, err = core.ParseDateIn(v, loc); err != nil {
			return core.Draft{}, err
		}
	}

	return core.Draft{
		Amount:      amount,
		Category:    core.Category(p.Get("category")),
		Date:        date,
		Description: p.Get("description"),
	}, nil
}

// ParseChatRequest extracts an advisor request from p.
func ParseChatRequest(p *RequestBodyParser) (conversationID, message string, err error) {
	if err := p.Err(); err != nil {
		return "", "", err
	}
	return p.Get("conversation_id"), p.Get("message"), nil
}
