// Package sanitize removes answer keys from question payloads before they leave the server.
package sanitize

import "strings"

var answerKeyNames = map[string]struct{}{
	"correctanswer":  {},
	"correctanswers": {},
	"answerkey":      {},
	"correctoption":  {},
	"correctoptions": {},
	"correctindex":   {},
	"iscorrect":      {},
}

// IsAnswerKey reports whether a field name names the correct answer.
func IsAnswerKey(field string) bool {
	_, ok := answerKeyNames[normalize(field)]
	return ok
}

func normalize(field string) string {
	var b strings.Builder
	b.Grow(len(field))
	for _, r := range strings.ToLower(field) {
		switch r {
		case '_', '-', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StripAnswerKeys returns a deep copy of a decoded JSON value with every answer
// key removed at any depth. Inputs are never mutated.
func StripAnswerKeys(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, child := range node {
			if IsAnswerKey(k) {
				continue
			}
			out[k] = StripAnswerKeys(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, child := range node {
			out[i] = StripAnswerKeys(child)
		}
		return out
	default:
		return v
	}
}

// ContainsAnswerKey walks a decoded JSON value looking for any answer key.
func ContainsAnswerKey(v interface{}) bool {
	switch node := v.(type) {
	case map[string]interface{}:
		for k, child := range node {
			if IsAnswerKey(k) || ContainsAnswerKey(child) {
				return true
			}
		}
	case []interface{}:
		for _, child := range node {
			if ContainsAnswerKey(child) {
				return true
			}
		}
	}
	return false
}
