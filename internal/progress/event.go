package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// Stage names a milestone of an acquisition run.
type Stage string

// Run and archive stages.
const (
	StageRunStart       Stage = "RUN_START"
	StageRunDone        Stage = "RUN_DONE"
	StageRunHalted      Stage = "RUN_HALTED"
	StageArchiveStart   Stage = "ARCHIVE_START"
	StageArchiveDone    Stage = "ARCHIVE_DONE"
	StageArchiveFailed  Stage = "ARCHIVE_FAILED"
	StageArchiveBlocked Stage = "ARCHIVE_BLOCKED"
)

// Event is one milestone. Archive stages carry the archive index and URL.
type Event struct {
	// RunID is the 16-byte form of the run UUID.
	RunID [16]byte
	TS    time.Time
	Stage Stage
	Index int
	URL   string
	// Bytes is the downloaded archive size.
	Bytes int64
	// Files counts archive entries, Tenders counts accepted records.
	Files   int
	Tenders int
	Kind    tender.ErrorKind
	Dur     time.Duration
	Note    string
}

// Validate rejects events sinks cannot attribute.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunHalted:
	case StageArchiveStart, StageArchiveDone, StageArchiveFailed, StageArchiveBlocked:
		if e.URL == "" {
			return fmt.Errorf("%s requires archive url", e.Stage)
		}
		if e.Index < 0 {
			return errors.New("archive index must be >= 0")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// IsArchive reports whether the event describes a single archive.
func (e Event) IsArchive() bool {
	switch e.Stage {
	case StageArchiveStart, StageArchiveDone, StageArchiveFailed, StageArchiveBlocked:
		return true
	}
	return false
}

// RunUUID returns the run id as a uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// ParseRunID converts a textual run id into the event form.
func ParseRunID(id string) ([16]byte, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return [16]byte{}, fmt.Errorf("parse run id: %w", err)
	}
	return [16]byte(parsed), nil
}
