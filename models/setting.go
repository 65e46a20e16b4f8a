package models

import "time"

// SettingTextProvider selects the default text backend.
const SettingTextProvider = "TEXT_PROVIDER"

// Setting is a key/value pair.
// Collection: settings
type Setting struct {
	Key       string    `bson:"key" json:"key"`
	Value     string    `bson:"value" json:"value"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
