// Package moderation tracks mute and ban state per identity.
//
// A Store is not safe for concurrent use; the room engine owns it.
package moderation

import "time"

// Record is the moderation state of one identity.
type Record struct {
	MutedUntil time.Time
	Banned     bool
}

// Store holds moderation records, created lazily on the first action that
// targets an identity and never removed.
type Store struct {
	records map[string]*Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

func (s *Store) record(id string) *Record {
	r, ok := s.records[id]
	if !ok {
		r = &Record{}
		s.records[id] = r
	}
	return r
}

// IsBanned reports whether id is banned.
func (s *Store) IsBanned(id string) bool {
	r, ok := s.records[id]
	return ok && r.Banned
}

// IsMuted reports whether id is muted at now. A past expiry means not muted.
func (s *Store) IsMuted(id string, now time.Time) bool {
	r, ok := s.records[id]
	return ok && now.Before(r.MutedUntil)
}

// MutedUntil returns the mute expiry for id, or the zero time.
func (s *Store) MutedUntil(id string) time.Time {
	if r, ok := s.records[id]; ok {
		return r.MutedUntil
	}
	return time.Time{}
}

// Mute sets the mute expiry, overwriting any previous one.
func (s *Store) Mute(id string, until time.Time) {
	s.record(id).MutedUntil = until
}

// Ban marks id as banned. Returns false if it already was.
func (s *Store) Ban(id string) bool {
	r := s.record(id)
	if r.Banned {
		return false
	}
	r.Banned = true
	return true
}

// Unban clears the ban flag. Returns false if id was not banned.
func (s *Store) Unban(id string) bool {
	r, ok := s.records[id]
	if !ok || !r.Banned {
		return false
	}
	r.Banned = false
	return true
}

// Banned returns the banned identities.
func (s *Store) Banned() []string {
	out := make([]string, 0)
	for id, r := range s.records {
		if r.Banned {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of records ever created.
func (s *Store) Len() int { return len(s.records) }
