package model

type Category string

const (
	CategoryEmotional            Category = "emotional"
	CategoryConflict             Category = "conflict"
	CategoryRelationshipDynamic  Category = "relationship_dynamic"
	CategoryCommunicationPattern Category = "communication_pattern"
	CategoryPersonReference      Category = "person_reference"
	CategoryExReference          Category = "ex_reference"
)

type Valence string

const (
	ValencePositive Valence = "positive"
	ValenceNegative Valence = "negative"
)

// Tag is a scored annotation derived from exactly one message.
// Score is zero for presence-only tags (relationship dynamics, message length).
type Tag struct {
	MessageID int64    `json:"message_id"`
	Category  Category `json:"category"`
	Type      string   `json:"type"`
	Score     int      `json:"score,omitempty"`
	Context   string   `json:"context,omitempty"`
	Valence   Valence  `json:"valence,omitempty"`
	Value     string   `json:"value,omitempty"`
	Length    int      `json:"length,omitempty"`
}

type TagQuery struct {
	Category     Category `json:"category"`
	Type         string   `json:"type"`
	Sender       string   `json:"sender"`
	MinIntensity int      `json:"min_intensity"`
	Limit        int      `json:"limit"`
}

type TagHit struct {
	Tag     Tag     `json:"tag"`
	Message Message `json:"message"`
}
