package meme

import (
	"time"

	"github.com/google/uuid"
)

// Record is one generated meme as kept in history. The image itself is not
// stored; it is re-rendered from ImageURL, the texts and Style on demand.
type Record struct {
	ID         string    `json:"id" bson:"_id"`
	ImageURL   string    `json:"image_url" bson:"image_url"`
	TopText    string    `json:"top_text" bson:"top_text"`
	BottomText string    `json:"bottom_text" bson:"bottom_text"`
	Topic      string    `json:"topic" bson:"topic"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	Style      *Style    `json:"style,omitempty" bson:"style,omitempty"`
}

// NewRecord creates a record with a fresh ID and the current time.
func NewRecord(imageURL, top, bottom, topic string, style *Style) Record {
	return Record{
		ID:         uuid.NewString(),
		ImageURL:   imageURL,
		TopText:    top,
		BottomText: bottom,
		Topic:      topic,
		Timestamp:  time.Now().UTC(),
		Style:      style,
	}
}

// EffectiveStyle returns the record's style, or DefaultStyle if none was
// saved.
func (r Record) EffectiveStyle() Style {
	if r.Style == nil {
		return DefaultStyle()
	}
	return r.Style.WithDefaults()
}
