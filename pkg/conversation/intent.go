package conversation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Classified is the tagged result of intent classification. Slots are empty
// strings when the message carries no explicit service/area.
type Classified struct {
	Intent  string `json:"intent"`
	Service string `json:"service,omitempty"`
	Area    string `json:"area,omitempty"`
}

// Classifier turns a free-text message into a Classified intent using the
// policy keyword maps. It is deterministic so a replayed message always
// classifies the same way.
type Classifier struct {
	policy Policy
}

func NewClassifier(policy Policy) *Classifier {
	return &Classifier{policy: policy}
}

// Classify scans the message against the policy vocabulary. Longest keywords
// win so "nose job" beats "nose". Reset utterances are matched first because
// they must work from any stage.
func (c *Classifier) Classify(message string, resetKeywords []string) Classified {
	lower := strings.ToLower(message)

	for _, kw := range resetKeywords {
		if containsPhrase(lower, strings.ToLower(kw)) {
			return Classified{Intent: IntentReset}
		}
	}

	out := Classified{Intent: IntentChitchat}

	if svc, ok := matchLongest(lower, c.policy.ServiceKeywords); ok {
		out.Service = svc
		out.Intent = IntentServiceInquiry
	}
	if area, ok := matchLongest(lower, c.policy.AreaKeywords); ok {
		if c.policy.ValidAreas[area] {
			out.Area = area
			if out.Intent == IntentChitchat {
				out.Intent = IntentServiceInquiry
			}
		}
	}
	if intent, ok := matchLongest(lower, c.policy.IntentKeywords); ok {
		// Slot keywords refine the topic; intent keywords decide the action.
		out.Intent = intent
	}

	return out
}

func matchLongest(lower string, keywords map[string]string) (string, bool) {
	keys := make([]string, 0, len(keywords))
	for k := range keywords {
		keys = append(keys, k)
	}
	// Longest first, then lexical for determinism
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if containsPhrase(lower, k) {
			return keywords[k], true
		}
	}
	return "", false
}

// containsPhrase matches the keyword on word boundaries only: "pain" must
// not fire inside "painting", nor "hi" inside "which". Multi-word keywords
// match as a whole phrase.
func containsPhrase(lower, phrase string) bool {
	if phrase == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(lower[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isWordChar(lower[start-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}
		from = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// ParseClassification strictly parses a model-produced NLU payload into the
// closed intent vocabulary. Unknown intents degrade to chitchat, unknown
// slot values are dropped; the caller never sees raw model output.
func (c *Classifier) ParseClassification(payload []byte) (Classified, error) {
	var raw struct {
		Intent  string `json:"intent"`
		Service string `json:"service"`
		Area    string `json:"area"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Classified{}, fmt.Errorf("parse nlu payload: %w", err)
	}

	out := Classified{Intent: strings.ToLower(strings.TrimSpace(raw.Intent))}
	if !ValidIntents[out.Intent] {
		out.Intent = IntentChitchat
	}

	service := strings.ToLower(strings.TrimSpace(raw.Service))
	if service != "" {
		// Only accept services the policy knows about
		for _, known := range c.policy.ServiceKeywords {
			if known == service {
				out.Service = service
				break
			}
		}
	}

	area := strings.ToLower(strings.TrimSpace(raw.Area))
	if area != "" && c.policy.ValidAreas[area] {
		out.Area = area
	}

	return out, nil
}
