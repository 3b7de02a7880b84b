package generation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"clinic-assistant-be/internal/constant"
	"clinic-assistant-be/pkg/conversation"
	"clinic-assistant-be/pkg/retrieval"
)

// Context is the frozen evidence block for one generation. It is built once
// by the orchestrator, serialized into the job payload, and never touched
// again: the worker renders exactly what was frozen, nothing more.
type Context struct {
	Mode              string   `json:"mode"`
	Stage             string   `json:"stage"`
	Tone              string   `json:"tone"`
	Service           string   `json:"service"`
	Area              string   `json:"area"`
	Facts             []string `json:"facts"`
	Findings          []string `json:"findings"`
	Risks             string   `json:"risks"`
	Contraindications string   `json:"contraindications"`
	Disclaimer        string   `json:"disclaimer"`
	RecentMessages    []string `json:"recent_messages"`
}

// Builder assembles frozen contexts under a hard character budget.
type Builder struct {
	maxChars int
}

func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = 4000
	}
	return &Builder{maxChars: maxChars}
}

// Build flattens retrieval hits and analytics findings into the context.
// Risk and disclaimer lines are always present: when no hit carries them
// the defaults are used.
func (b *Builder) Build(state *conversation.State, assessment *retrieval.Assessment, findings []string) *Context {
	c := &Context{
		Mode:              retrieval.ModeAbstain,
		Stage:             state.Stage,
		Tone:              state.Tone,
		Service:           state.Service,
		Area:              state.Area,
		Risks:             constant.DefaultRisksNote,
		Contraindications: constant.DefaultContraindications,
		Disclaimer:        constant.ReplyDefaultDisclaimer,
		RecentMessages:    append([]string(nil), state.RecentMessages...),
	}

	if assessment != nil {
		c.Mode = assessment.Mode
		for _, hit := range assessment.Hits {
			c.Facts = append(c.Facts, factLines(hit)...)
			if risks, ok := hit.Metadata["risks"].(string); ok && risks != "" {
				c.Risks = risks
			}
			if contra, ok := hit.Metadata["contraindications"].(string); ok && contra != "" {
				c.Contraindications = contra
			}
		}
	}
	c.Findings = append(c.Findings, findings...)

	b.enforceBudget(c)
	return c
}

// factLines renders one hit as quotable "field: value" lines. Values pass
// through verbatim so the numeric validator can match them later.
func factLines(hit retrieval.Hit) []string {
	var lines []string
	for _, field := range []string{"service", "area", "price_satang", "duration", "description"} {
		v, ok := hit.Metadata[field]
		if !ok || v == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %v", field, v))
	}
	if len(lines) == 0 && hit.Document != "" {
		lines = append(lines, hit.Document)
	}
	return lines
}

// enforceBudget trims the flexible sections until the rendered block fits.
// Facts are trimmed last: they are what the reply is allowed to say. When a
// single oversized entry survives every trim, the hard cut below shortens it
// in place so the render can never exceed the budget.
func (b *Builder) enforceBudget(c *Context) {
	for len(c.Render()) > b.maxChars && len(c.RecentMessages) > 1 {
		c.RecentMessages = c.RecentMessages[1:]
	}
	for len(c.Render()) > b.maxChars && len(c.Findings) > 0 {
		c.Findings = c.Findings[:len(c.Findings)-1]
	}
	for len(c.Render()) > b.maxChars && len(c.Facts) > 1 {
		c.Facts = c.Facts[:len(c.Facts)-1]
	}

	if len(c.Render()) <= b.maxChars {
		return
	}
	c.RecentMessages = nil
	if over := len(c.Render()) - b.maxChars; over > 0 && len(c.Facts) > 0 {
		c.Facts[0] = cutTail(c.Facts[0], over)
		if c.Facts[0] == "" {
			c.Facts = nil
		}
	}
	if over := len(c.Render()) - b.maxChars; over > 0 {
		c.Risks = cutTail(c.Risks, over)
	}
	if over := len(c.Render()) - b.maxChars; over > 0 {
		c.Contraindications = cutTail(c.Contraindications, over)
	}
}

// cutTail drops n trailing bytes without splitting a UTF-8 sequence.
func cutTail(s string, n int) string {
	if n >= len(s) {
		return ""
	}
	s = s[:len(s)-n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// Render produces the CONTEXT block the model sees.
func (c *Context) Render() string {
	var sb strings.Builder
	sb.WriteString("CONTEXT\n")
	sb.WriteString("mode: " + c.Mode + "\n")
	sb.WriteString("stage: " + c.Stage + "\n")
	sb.WriteString("tone: " + c.Tone + "\n")
	if c.Service != "" {
		sb.WriteString("service: " + c.Service + "\n")
	}
	if c.Area != "" {
		sb.WriteString("area: " + c.Area + "\n")
	}
	if len(c.Facts) > 0 {
		sb.WriteString("facts:\n")
		for _, f := range c.Facts {
			sb.WriteString("- " + f + "\n")
		}
	}
	if len(c.Findings) > 0 {
		sb.WriteString("notes:\n")
		for _, f := range c.Findings {
			sb.WriteString("- " + f + "\n")
		}
	}
	sb.WriteString("risks: " + c.Risks + "\n")
	sb.WriteString("contraindications: " + c.Contraindications + "\n")
	sb.WriteString("disclaimer: " + c.Disclaimer + "\n")
	if len(c.RecentMessages) > 0 {
		sb.WriteString("recent:\n")
		for _, m := range c.RecentMessages {
			sb.WriteString("- " + m + "\n")
		}
	}
	return sb.String()
}

var numberPattern = regexp.MustCompile(`\d[\d,.]*`)

// Numbers lists every numeric token present in the rendered context. The
// validator uses this as the allow list for numbers in the reply.
func (c *Context) Numbers() map[string]bool {
	numbers := make(map[string]bool)
	for _, tok := range numberPattern.FindAllString(c.Render(), -1) {
		numbers[normalizeNumber(tok)] = true
	}
	return numbers
}

// normalizeNumber strips formatting so "25,000" and "25000" compare equal.
func normalizeNumber(tok string) string {
	tok = strings.ReplaceAll(tok, ",", "")
	return strings.TrimRight(tok, ".")
}

// EnsureDisclaimer appends the mandatory disclaimer to a draft that quotes
// figures from the context. Conversational drafts pass through unchanged.
func (c *Context) EnsureDisclaimer(reply string) string {
	if c.Disclaimer == "" || strings.Contains(reply, c.Disclaimer) {
		return reply
	}
	for _, tok := range numberPattern.FindAllString(reply, -1) {
		if !isConversationalNumber(normalizeNumber(tok)) {
			return reply + "\n\n" + c.Disclaimer
		}
	}
	return reply
}
