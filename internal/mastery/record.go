package mastery

import (
	"errors"
	"maps"
	"slices"
	"time"
)

// ErrStaleCache is returned when a mastery record is committed against a
// cache that another writer has advanced since it was read.
var ErrStaleCache = errors.New("mastery cache is stale")

// Record is the cached mastery estimate for one (learner, node) pair.
// Level is the value as of LastReviewedAt; decay is applied on read.
type Record struct {
	NodeID         string
	Level          float64
	LastReviewedAt time.Time
	AttemptCount   int
	EverMastered   bool
}

// Seen reports whether the learner has attempted the node at all.
func (r Record) Seen() bool {
	return r.AttemptCount > 0
}

// Snapshot is the folded mastery state of one learner. LastSequence is the
// sequence number of the last event folded in.
type Snapshot struct {
	Records      map[string]Record
	LastSequence int64
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Records: make(map[string]Record)}
}

// Record returns the node's record, or an unseen zero record.
func (s *Snapshot) Record(nodeID string) Record {
	if s != nil {
		if rec, ok := s.Records[nodeID]; ok {
			return rec
		}
	}
	return Record{NodeID: nodeID}
}

// Set stores rec under its node id.
func (s *Snapshot) Set(rec Record) {
	if s.Records == nil {
		s.Records = make(map[string]Record)
	}
	s.Records[rec.NodeID] = rec
}

// NodeIDs returns the ids with a record, sorted.
func (s *Snapshot) NodeIDs() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.Records))
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return NewSnapshot()
	}
	return &Snapshot{Records: maps.Clone(s.Records), LastSequence: s.LastSequence}
}
