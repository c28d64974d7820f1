package agent

import "strings"

// extractProgram finds the PTC-Lisp program in an LLM response: either a
// fenced code block tagged clojure/lisp, or a raw s-expression starting
// with `(`.
func extractProgram(text string) (string, bool) {
	if fenced, ok := extractFencedBlock(text); ok {
		return fenced, true
	}
	if idx := strings.IndexByte(text, '('); idx >= 0 {
		return strings.TrimSpace(text[idx:]), true
	}
	return "", false
}

func extractFencedBlock(text string) (string, bool) {
	const fence = "```"
	start := strings.Index(text, fence)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", false
	}
	tag := strings.TrimSpace(rest[:nl])
	if tag != "clojure" && tag != "lisp" {
		return "", false
	}
	body := rest[nl+1:]
	end := strings.Index(body, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}
