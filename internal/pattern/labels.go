package pattern

type Emotion string

const (
	EmotionLove       Emotion = "love"
	EmotionAffection  Emotion = "affection"
	EmotionAnger      Emotion = "anger"
	EmotionSadness    Emotion = "sadness"
	EmotionAnxiety    Emotion = "anxiety"
	EmotionExcitement Emotion = "excitement"
)

type ConflictPhase string

const (
	ConflictDirect     ConflictPhase = "direct_conflict"
	ConflictApology    ConflictPhase = "apology"
	ConflictDefense    ConflictPhase = "defense"
	ConflictEscalation ConflictPhase = "escalation"
	ConflictResolution ConflictPhase = "resolution"
)

type Dynamic string

const (
	DynamicPursuit    Dynamic = "pursuit"
	DynamicDistancing Dynamic = "distancing"
)

type PersonContext string

const (
	PersonComparisonThreat   PersonContext = "comparison_threat"
	PersonJealousyInsecurity PersonContext = "jealousy_insecurity"
	PersonSocialPersonal     PersonContext = "social_personal"
	PersonSupportAdvice      PersonContext = "support_advice"
	PersonWorkRelated        PersonContext = "work_related"
	PersonGeneralMention     PersonContext = "general_mention"
)

type ExContext string

const (
	ExVisitationConcern   ExContext = "visitation_concern"
	ExComparisonReference ExContext = "comparison_reference"
	ExRelationshipHistory ExContext = "relationship_history"
	ExGeneralReference    ExContext = "general_ex_reference"
)

type LengthBucket string

const (
	LengthShort  LengthBucket = "short"
	LengthMedium LengthBucket = "medium"
	LengthLong   LengthBucket = "long"
)

const (
	TypePersonMention       = "person_mention"
	TypeRelationshipHistory = "relationship_history"
	TypeMessageLength       = "message_length"
)

const (
	MinScore = 1
	MaxScore = 10
)
