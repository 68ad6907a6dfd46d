package model

type IntensityPoint struct {
	Date      string    `json:"date"`
	Intensity int       `json:"intensity"`
	Context   string    `json:"context"`
	Sender    Direction `json:"sender"`
}

type ReferenceAnalysis struct {
	Category           Category         `json:"category"`
	TotalMentions      int              `json:"total_mentions"`
	BySender           map[string]int   `json:"by_sender"`
	ByContext          map[string]int   `json:"by_context"`
	IntensityOverTime  []IntensityPoint `json:"intensity_over_time"`
	ConcerningPatterns []TagHit         `json:"concerning_patterns"`
}
