// Package schema turns raw model output into validated stage payloads.
// Parsing is tolerant about the wrapping (code fences, prose around the
// JSON, provider envelope noise) and strict about the payload itself.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"blueprint/pkg/config"
)

// Validatable is implemented by stage payloads that check their own
// structural invariants after decoding.
type Validatable interface {
	Validate() error
}

// ParseError carries what went wrong and the text that caused it, so a
// repair prompt can quote both back to the model.
type ParseError struct {
	Reason string
	// Snippet is a bounded excerpt of the offending output.
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

const snippetLimit = 400

func newParseError(reason, raw string, err error) *ParseError {
	snippet := raw
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit] + "..."
	}
	return &ParseError{Reason: reason, Snippet: snippet, Err: err}
}

// ExtractJSON locates the JSON document inside model output. It prefers a
// fenced code block, then falls back to the first balanced object.
func ExtractJSON(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", newParseError("response contains no content", content, nil)
	}

	if fenced, ok := extractFenced(trimmed); ok {
		trimmed = fenced
	}

	start := strings.IndexByte(trimmed, '{')
	if start < 0 {
		return "", newParseError("response contains no JSON object", trimmed, nil)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(trimmed); i++ {
		c := trimmed[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return trimmed[start : i+1], nil
			}
		}
	}
	return "", newParseError("JSON object is unterminated", trimmed, nil)
}

func extractFenced(content string) (string, bool) {
	idx := strings.Index(content, "```")
	if idx < 0 {
		return "", false
	}
	rest := content[idx+3:]
	// Drop the language tag on the opening fence.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// Parse extracts, normalizes, and strictly decodes model output into out,
// then runs the payload's own validation. Providers flagged with
// StripUnknownEnvelopeFields get unknown top-level keys dropped before the
// strict decode; everything else fails on unknown fields.
//
// out must be a non-nil pointer. On any error out is left untouched, so a
// failed attempt cannot leak fields into a later repair attempt's result.
func Parse(content string, out Validatable, quirks config.Quirks) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("parse target must be a non-nil pointer, got %T", out)
	}

	raw, err := ExtractJSON(content)
	if err != nil {
		return err
	}

	payload := []byte(raw)
	if quirks.StripUnknownEnvelopeFields {
		payload, err = stripUnknownTopLevel(payload, out)
		if err != nil {
			return newParseError("response is not a JSON object", raw, err)
		}
	}

	// Decode into a fresh value of the same type; the accepted result then
	// corresponds to exactly one raw response.
	fresh := reflect.New(target.Type().Elem())
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(fresh.Interface()); err != nil {
		return newParseError("response does not match the expected structure", raw, err)
	}

	if err := fresh.Interface().(Validatable).Validate(); err != nil {
		return newParseError("response failed validation", raw, err)
	}

	target.Elem().Set(fresh.Elem())
	return nil
}

// stripUnknownTopLevel removes top-level keys the target struct does not
// declare. Some providers wrap responses in extra bookkeeping fields and
// those must not fail the strict decode.
func stripUnknownTopLevel(payload []byte, out any) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	known := knownJSONKeys(reflect.TypeOf(out))
	for key := range doc {
		if !known[key] {
			delete(doc, key)
		}
	}
	return json.Marshal(doc)
}

func knownJSONKeys(t reflect.Type) map[string]bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	keys := make(map[string]bool)
	if t.Kind() != reflect.Struct {
		return keys
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		switch name {
		case "-":
			continue
		case "":
			name = field.Name
		}
		keys[name] = true
	}
	return keys
}

// RepairPrompt builds the follow-up message sent after a failed parse. It
// quotes the error and the offending excerpt and restates the contract.
func RepairPrompt(parseErr error) string {
	var sb strings.Builder
	sb.WriteString("Your previous response could not be used.\n\n")

	if pe, ok := parseErr.(*ParseError); ok {
		fmt.Fprintf(&sb, "Problem: %s\n", pe.Error())
		if pe.Snippet != "" {
			fmt.Fprintf(&sb, "\nOffending output (excerpt):\n%s\n", pe.Snippet)
		}
	} else {
		fmt.Fprintf(&sb, "Problem: %v\n", parseErr)
	}

	sb.WriteString("\nRespond again with ONLY a single JSON object that matches the structure ")
	sb.WriteString("described in the original instructions. Do not include markdown fences, ")
	sb.WriteString("commentary, or any fields that were not requested.")
	return sb.String()
}
