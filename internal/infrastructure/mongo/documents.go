package mongo

import "time"

// KVDocument is the on-disk shape of one key. Payload keeps the canonical JSON text so
// documents of any shape (objects, arrays, bare strings) round-trip unchanged.
type KVDocument struct {
	Key       string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updatedAt"`
}
