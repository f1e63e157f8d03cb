package person

import "time"

// Person is a named income recipient. IDs are assigned by the store and never reused.
type Person struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
