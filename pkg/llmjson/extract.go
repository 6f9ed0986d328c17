// Package llmjson pulls structured data out of free-text model replies.
//
// Models asked for "only a JSON object" still wrap it in prose or code fences
// often enough that callers cannot json.Unmarshal the raw reply. ExtractObject
// scans for the first balanced, brace-delimited substring that parses as a
// JSON object and ignores everything around it.
package llmjson

import (
	"encoding/json"
	"errors"
)

// ErrNoObject is returned when the text holds no parseable JSON object.
var ErrNoObject = errors.New("no json object found in text")

// ExtractObject returns the first balanced {...} substring of text that is a
// valid JSON object. Braces inside JSON string literals do not count toward
// balance. Candidates that balance but fail to parse are skipped and the scan
// resumes at the next opening brace.
func ExtractObject(text string) (string, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end := matchBrace(text, start)
		if end < 0 {
			continue
		}
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", ErrNoObject
}

// Decode extracts the first JSON object from text and unmarshals it into out.
func Decode(text string, out any) error {
	raw, err := ExtractObject(text)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

// matchBrace returns the index of the brace closing text[start], or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
