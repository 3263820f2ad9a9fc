// Package extract recovers a scene graph candidate from raw generative model
// output, tolerating prose and Markdown fences around the JSON payload.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/text3d/hub/internal/model"
)

// ErrExtractionFailed is wrapped by every error returned from Candidate.
var ErrExtractionFailed = errors.New("extraction failed")

// Candidate parses raw model text into a candidate. The whole text is tried
// first; failing that, the span from the first '{' to the last '}' is parsed.
// No semantic checks are made.
func Candidate(raw string) (model.SceneGraphCandidate, error) {
	text := stripFence(strings.TrimSpace(raw))
	if text == "" {
		return model.SceneGraphCandidate{}, fmt.Errorf("%w: empty text", ErrExtractionFailed)
	}

	if cand, err := parse(text); err == nil {
		return cand, nil
	}

	block, ok := embeddedBlock(text)
	if !ok {
		return model.SceneGraphCandidate{}, fmt.Errorf("%w: no structured block found", ErrExtractionFailed)
	}
	cand, err := parse(block)
	if err != nil {
		return model.SceneGraphCandidate{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return cand, nil
}

func parse(text string) (model.SceneGraphCandidate, error) {
	var cand model.SceneGraphCandidate
	if err := json.Unmarshal([]byte(text), &cand); err != nil {
		return model.SceneGraphCandidate{}, err
	}
	return cand, nil
}

func embeddedBlock(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// stripFence removes a ```json ... ``` wrapper when it encloses the text.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// drop the info string (e.g. "json")
		if info := strings.TrimSpace(body[:nl]); !strings.ContainsAny(info, "{[") {
			body = body[nl+1:]
		}
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
