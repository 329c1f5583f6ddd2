package clientdata

import "time"

// TTL constants, added to time.Now() when storing.
const (
	// Translations of UI strings and listings rarely change once produced.
	TTLTranslation = 30 * 24 * time.Hour
)
