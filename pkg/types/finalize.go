package types

// FinalizeMode gates whether the finalizer model runs for a given turn.
type FinalizeMode string

const (
	FinalizeOff           FinalizeMode = "off"
	FinalizeCalendarOnly  FinalizeMode = "calendarOnly"
	FinalizeSmalltalkOnly FinalizeMode = "smalltalkOnly"
	FinalizeAlways        FinalizeMode = "always"
)

// FinalizerTier identifies which fallback tier produced the final text.
type FinalizerTier string

const (
	TierQuality FinalizerTier = "quality"
	TierFast    FinalizerTier = "fast"
	TierDraft   FinalizerTier = "draft"
)

// GuardResult is the outcome of one no-new-facts check. Ephemeral: computed
// once per finalizer attempt and used only to decide retry/fallback.
type GuardResult struct {
	Passed           bool     `json:"passed"`
	Violations       []string `json:"violations,omitempty"`
	AllowedNumbers   []string `json:"allowedNumbers,omitempty"`
	AllowedTimes     []string `json:"allowedTimes,omitempty"`
	AllowedDates     []string `json:"allowedDates,omitempty"`
	CandidateNumbers []string `json:"candidateNumbers,omitempty"`
	CandidateTimes   []string `json:"candidateTimes,omitempty"`
	CandidateDates   []string `json:"candidateDates,omitempty"`
}

// FinalResult is the output of the finalizer for one turn.
type FinalResult struct {
	Text          string        `json:"text"`
	UsedFinalizer bool          `json:"usedFinalizer"`
	Tier          FinalizerTier `json:"tier"`
	GuardViolated bool          `json:"guardViolated"`
	GuardRetried  bool          `json:"guardRetried"`
	Guard         *GuardResult  `json:"guard,omitempty"`
}
