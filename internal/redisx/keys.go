package redisx

import "time"

const (
	// Session credential per device: session:{device_id}:{token|role} -> value
	KeySession = "session:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup = 48 * time.Hour
)
