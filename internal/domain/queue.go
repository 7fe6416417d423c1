package domain

import "time"

// QueueExpiry is how long a queue entry remains eligible for pairing after
// being enqueued (spec §3, "expiry time (5 minutes after enqueue)").
const QueueExpiry = 5 * time.Minute

// QueueEntry is a pending request by an agent to be matched.
type QueueEntry struct {
	AgentKey    string
	Discipline  Discipline
	Rating      int
	EnqueuedAt  time.Time
	ExpiresAt   time.Time
}

// NewQueueEntry builds an entry with its expiry fixed at enqueue time.
func NewQueueEntry(agentKey string, discipline Discipline, rating int, now time.Time) QueueEntry {
	return QueueEntry{
		AgentKey:   agentKey,
		Discipline: discipline,
		Rating:     rating,
		EnqueuedAt: now,
		ExpiresAt:  now.Add(QueueExpiry),
	}
}

// Expired reports whether the entry's expiry has passed as of now.
func (q QueueEntry) Expired(now time.Time) bool {
	return !q.ExpiresAt.After(now)
}

// MaxRatingGap is the largest absolute rating difference the pairing loop
// will match (spec §4.8 step 2).
const MaxRatingGap = 200

// RatingGap returns the absolute rating difference between two entries.
func RatingGap(a, b QueueEntry) int {
	d := a.Rating - b.Rating
	if d < 0 {
		return -d
	}
	return d
}
