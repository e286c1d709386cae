package models

import "time"

// Speaker identifies which side of a conversation produced a turn.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Turn is a single message exchanged within a conversation. Turns are
// immutable once written.
type Turn struct {
	ID             string    `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Speaker        Speaker   `json:"speaker"`
	Text           string    `json:"text"`
	DisplayName    string    `json:"display_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CacheEntry maps a normalized question to a previously generated answer.
// AnswerText is the raw model output, directive included, so a later cache
// hit can still trigger media dispatch. Entries are insert-only; freshness
// is decided at read time against CreatedAt.
type CacheEntry struct {
	Question   string    `json:"question"`
	AnswerText string    `json:"answer_text"`
	CreatedAt  time.Time `json:"created_at"`
}

// MediaEntry is one entry of the static media catalog: a symbolic tag the
// model may emit, the image URL(s) behind it, and a caption.
type MediaEntry struct {
	Tag     string   `yaml:"tag" json:"tag"`
	URLs    []string `yaml:"urls" json:"urls"`
	Caption string   `yaml:"caption" json:"caption"`
}
