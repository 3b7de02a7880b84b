package constant

// Turn roles mirror the provider chat roles.
const (
	TurnRoleUser   = "user"
	TurnRoleModel  = "model"
	TurnRoleSystem = "system"
)

// Channels the orchestrator accepts.
const (
	ChannelLine    = "line"
	ChannelWeb     = "web"
	ChannelDefault = ChannelWeb
)

// Deterministic reply templates. Guards and the orchestrator use these when
// the model must not (or need not) speak. Copy is intentionally neutral; the
// localized copy lives in deployment data, these are the safe defaults.
const (
	ReplyAcknowledge = "Got it! Let me know if you would like more detail or want to book a consultation."

	ReplyGreeting = "Hello! Welcome to our clinic. Which treatment would you like to hear about today?"

	ReplyFiller = "We're on it! Is there anything else about this treatment you would like to know?"

	ReplyPreferenceNoted = "Noted, we'll keep that preference in mind for your treatment plan."

	ReplyKnowledgeFallback = "I want to make sure you get accurate information on this, so let me have our clinic staff confirm the details for you."

	ReplyConsultFirst = "For this procedure our doctor needs to assess you first, so pricing is quoted at the consultation. Would you like me to arrange one?"

	ReplyConservative = "Thank you for your message! Our staff will get back to you with the details shortly."

	ReplyTryLater = "We're experiencing high demand right now. Please try again in a few minutes."

	ReplyBudgetExceeded = "Our assistant is taking a short break. Our staff will follow up with you directly."

	ReplyAskService = "Which treatment are you interested in? We offer rhinoplasty, eyelid surgery, botox, fillers and laser treatments."

	ReplyAskArea = "Which area would you like to treat?"

	ReplyMedicalHandoff = "That's an important medical question. I've flagged it for our doctor, who will answer you personally."

	ReplyDefaultDisclaimer = "Results vary from person to person; a doctor's consultation is required before any procedure."
)

// Mandatory knowledge-context defaults. The generation context always carries
// risk and disclaimer fields even when the source document omits them.
const (
	DefaultRisksNote         = "All procedures carry some risk of swelling, bruising or infection."
	DefaultContraindications = "Not suitable during pregnancy, active skin infection, or uncontrolled chronic illness."
)
