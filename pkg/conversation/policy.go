package conversation

import "strings"

// Policy is the slot vocabulary and keyword data the machine and classifier
// run on. Keyword lists are deployment data, not algorithm: clinics swap them
// per market without touching the transition rules.
type Policy struct {
	// FixedAreaServices maps a service category to its implied area. The
	// machine auto-fills these and must never elicit the area from the user.
	FixedAreaServices map[string]string

	ValidAreas map[string]bool

	// NoContextIntents are ignored mid-conversation so a noisy classification
	// cannot wipe dialogue context.
	NoContextIntents map[string]bool

	ServiceKeywords map[string]string // keyword -> service
	AreaKeywords    map[string]string // keyword -> area
	IntentKeywords  map[string]string // keyword -> intent

	// SurgicalServices must not disclose pricing before a consultation.
	SurgicalServices map[string]bool

	ShortToneRunes   int
	ExplainToneRunes int
}

// DefaultPolicy returns the built-in English vocabulary. Production
// deployments load a localized policy from configuration.
func DefaultPolicy() Policy {
	return Policy{
		FixedAreaServices: map[string]string{
			"rhinoplasty":    "nose",
			"blepharoplasty": "eyes",
		},
		ValidAreas: map[string]bool{
			"nose": true, "eyes": true, "face": true, "forehead": true,
			"cheeks": true, "chin": true, "lips": true, "neck": true,
			"arms": true, "legs": true, "abdomen": true,
		},
		NoContextIntents: map[string]bool{
			IntentChitchat: true,
			IntentGreeting: true,
		},
		// Keywords are matched on word boundaries, so inflected forms need
		// their own entry.
		ServiceKeywords: map[string]string{
			"nose job":      "rhinoplasty",
			"nose jobs":     "rhinoplasty",
			"rhinoplasty":   "rhinoplasty",
			"eyelid":        "blepharoplasty",
			"eyelids":       "blepharoplasty",
			"double eyelid": "blepharoplasty",
			"botox":         "botox",
			"filler":        "filler",
			"fillers":       "filler",
			"laser":         "laser",
			"facial":        "facial",
			"facials":       "facial",
			"surgery":       "surgery",
		},
		AreaKeywords: map[string]string{
			"nose": "nose", "eye": "eyes", "eyes": "eyes", "face": "face",
			"forehead": "forehead", "cheek": "cheeks", "cheeks": "cheeks",
			"chin": "chin", "lip": "lips", "lips": "lips", "neck": "neck",
		},
		IntentKeywords: map[string]string{
			"price":        IntentPriceInquiry,
			"prices":       IntentPriceInquiry,
			"cost":         IntentPriceInquiry,
			"costs":        IntentPriceInquiry,
			"how much":     IntentPriceInquiry,
			"book":         IntentBookingRequest,
			"booking":      IntentBookingRequest,
			"appointment":  IntentBookingRequest,
			"schedule":     IntentBookingRequest,
			"after care":   IntentPostcare,
			"aftercare":    IntentPostcare,
			"swelling":     IntentPostcare,
			"side effect":  IntentMedicalConcern,
			"side effects": IntentMedicalConcern,
			"allergic":     IntentMedicalConcern,
			"pregnant":     IntentMedicalConcern,
			"pain":         IntentMedicalConcern,
			"painful":      IntentMedicalConcern,
			"staff":        IntentHandoffRequest,
			"human":        IntentHandoffRequest,
			"admin":        IntentHandoffRequest,
			"hello":        IntentGreeting,
			"hi":           IntentGreeting,
		},
		SurgicalServices: map[string]bool{
			"rhinoplasty":    true,
			"blepharoplasty": true,
			"surgery":        true,
		},
		ShortToneRunes:   20,
		ExplainToneRunes: 120,
	}
}

// FixedArea returns the implied area for a service, if any.
func (p Policy) FixedArea(service string) (string, bool) {
	area, ok := p.FixedAreaServices[service]
	return area, ok
}

// IsSurgical reports whether the service is under the consultation-first
// pricing lock.
func (p Policy) IsSurgical(service string) bool {
	return p.SurgicalServices[strings.ToLower(service)]
}
