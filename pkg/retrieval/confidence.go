package retrieval

// Response modes, in descending order of what the system is allowed to say.
const (
	ModeFull       = "full"
	ModeRestricted = "restricted"
	ModeAbstain    = "abstain"
)

// Hit is one vector-search result hydrated with knowledge metadata.
type Hit struct {
	ID       string
	Score    float64 // cosine similarity in [0,1]
	Metadata map[string]interface{}
	Document string
}

// requiredFields are the knowledge fields a customer answer is built from.
// Completeness is the filled fraction of these on each matched record.
var requiredFields = []string{"service", "price_satang", "duration", "risks", "description"}

// Thresholds define the mode cut points. Defaults match policy but stay
// configurable; abstain is everything below Restricted.
type Thresholds struct {
	Full       float64
	Restricted float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Full: 0.85, Restricted: 0.70}
}

// Assessment is the per-query confidence outcome. Recomputed on every query,
// never cached across turns.
type Assessment struct {
	Confidence float64
	Mode       string
	Hits       []Hit
}

// ConfidenceEngine blends similarity, record completeness and curated quality
// into one score: 0.5*avgSimilarity + 0.25*completeness + 0.25*quality.
type ConfidenceEngine struct {
	thresholds Thresholds
}

func NewConfidenceEngine(thresholds Thresholds) *ConfidenceEngine {
	return &ConfidenceEngine{thresholds: thresholds}
}

func (e *ConfidenceEngine) Assess(hits []Hit) Assessment {
	if len(hits) == 0 {
		return Assessment{Confidence: 0, Mode: ModeAbstain}
	}

	var simSum, completenessSum, qualitySum float64
	for _, h := range hits {
		simSum += clamp01(h.Score)
		completenessSum += fieldCompleteness(h.Metadata)
		qualitySum += qualityScore(h.Metadata)
	}
	n := float64(len(hits))

	confidence := 0.5*(simSum/n) + 0.25*(completenessSum/n) + 0.25*(qualitySum/n)

	return Assessment{
		Confidence: confidence,
		Mode:       e.mode(confidence),
		Hits:       hits,
	}
}

func (e *ConfidenceEngine) mode(confidence float64) string {
	switch {
	case confidence >= e.thresholds.Full:
		return ModeFull
	case confidence >= e.thresholds.Restricted:
		return ModeRestricted
	default:
		return ModeAbstain
	}
}

func fieldCompleteness(metadata map[string]interface{}) float64 {
	if len(metadata) == 0 {
		return 0
	}
	filled := 0
	for _, field := range requiredFields {
		v, ok := metadata[field]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		filled++
	}
	return float64(filled) / float64(len(requiredFields))
}

// qualityScore reads the curation score precomputed on the knowledge item.
// Scores stored on a 0-100 scale are normalized down.
func qualityScore(metadata map[string]interface{}) float64 {
	raw, ok := metadata["quality_score"]
	if !ok {
		return 0
	}
	var score float64
	switch v := raw.(type) {
	case float64:
		score = v
	case float32:
		score = float64(v)
	case int:
		score = float64(v)
	case int64:
		score = float64(v)
	default:
		return 0
	}
	if score > 1 {
		score = score / 100
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
