package ata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Finding is one checklist observation extracted from the audio
type Finding struct {
	Item        string     `json:"item"`
	Compliant   *bool      `json:"compliant"`
	Observation string     `json:"observation"`
	ItemID      *uuid.UUID `json:"item_id,omitempty"`
}

// SuggestedAction is a corrective action mentioned during the inspection
type SuggestedAction struct {
	What string `json:"what"`
	Why  string `json:"why"`
	Who  string `json:"who"`
	When string `json:"when"`
}

// Result is the structured model output
type Result struct {
	Transcript   string            `json:"transcript"`
	Summary      string            `json:"summary"`
	Participants []string          `json:"participants"`
	Decisions    []string          `json:"decisions"`
	Findings     []Finding         `json:"findings"`
	Actions      []SuggestedAction `json:"actions"`
}

// ErrNoJSON is returned when the model output contains no JSON object
var ErrNoJSON = errors.New("model output contains no JSON object")

type rawResult struct {
	Transcript   string            `json:"transcript"`
	Summary      string            `json:"summary"`
	Participants []json.RawMessage `json:"participants"`
	Decisions    []json.RawMessage `json:"decisions"`
	Findings     []struct {
		Item        string          `json:"item"`
		Compliant   json.RawMessage `json:"compliant"`
		Observation string          `json:"observation"`
	} `json:"findings"`
	Actions []SuggestedAction `json:"actions"`
}

// ParseResult cleans freeform model output and decodes it.
// Markdown fences and any prose around the outermost object are dropped.
func ParseResult(output string) (*Result, error) {
	body, err := ExtractJSON(output)
	if err != nil {
		return nil, err
	}
	var raw rawResult
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	res := &Result{
		Transcript: strings.TrimSpace(raw.Transcript),
		Summary:    strings.TrimSpace(raw.Summary),
	}
	for _, p := range raw.Participants {
		if s := flexibleString(p); s != "" {
			res.Participants = append(res.Participants, s)
		}
	}
	for _, d := range raw.Decisions {
		if s := flexibleString(d); s != "" {
			res.Decisions = append(res.Decisions, s)
		}
	}
	for _, f := range raw.Findings {
		item := strings.TrimSpace(f.Item)
		if item == "" {
			continue
		}
		res.Findings = append(res.Findings, Finding{
			Item:        item,
			Compliant:   ParseCompliance(f.Compliant),
			Observation: strings.TrimSpace(f.Observation),
		})
	}
	for _, a := range raw.Actions {
		a.What = strings.TrimSpace(a.What)
		if a.What == "" {
			continue
		}
		res.Actions = append(res.Actions, a)
	}
	return res, nil
}

// ExtractJSON returns the outermost {...} span of s
func ExtractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// ParseCompliance accepts a JSON bool or a Portuguese/English yes/no string.
// Unknown values and null yield nil (not evaluated).
func ParseCompliance(raw json.RawMessage) *bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	yes, no := true, false
	switch Normalize(s) {
	case "sim", "s", "yes", "true", "conforme", "ok", "adequado":
		return &yes
	case "nao", "n", "no", "false", "nao conforme", "inconforme", "inadequado", "irregular":
		return &no
	}
	return nil
}

// flexibleString accepts "name" or {"name": ..., "role": ...}
func flexibleString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	var main string
	for _, k := range []string{"name", "nome", "text", "description", "descricao"} {
		if v, ok := obj[k].(string); ok && strings.TrimSpace(v) != "" {
			main = strings.TrimSpace(v)
			break
		}
	}
	if main == "" {
		return ""
	}
	for _, k := range []string{"role", "cargo", "funcao"} {
		if v, ok := obj[k].(string); ok && strings.TrimSpace(v) != "" {
			return main + " (" + strings.TrimSpace(v) + ")"
		}
	}
	return main
}
