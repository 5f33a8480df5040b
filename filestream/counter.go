package filestream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"
)

// counterFile is a file-based atomic counter. Every mutation opens the
// tracking file, takes an exclusive advisory lock on it, reads the current
// value (zero when the file is empty or absent), writes the new value and
// releases the lock. The lock is the cross-process mutual-exclusion point
// for id issuance; in-process mutexes in Stream only reduce redundant
// contention among goroutines of one process.
type counterFile struct {
	path string
}

// withLocked runs fn with the tracking file open and exclusively locked.
func (c counterFile) withLocked(fn func(f *os.File) error) error {
	f, err := os.OpenFile(c.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open counter %s: %w", c.path, err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock counter %s: %w", c.path, err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn(f)
}

func readCounterValue(f *os.File) (int64, error) {
	raw, err := os.ReadFile(f.Name())
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", f.Name(), err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, nil
	}
	value, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter %s: %w", f.Name(), err)
	}
	return value, nil
}

func writeCounterValue(f *os.File, value int64) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate counter %s: %w", f.Name(), err)
	}
	if _, err := f.WriteAt([]byte(strconv.FormatInt(value, 10)), 0); err != nil {
		return fmt.Errorf("write counter %s: %w", f.Name(), err)
	}
	return f.Sync()
}

// Next atomically increments the counter and returns the new value.
func (c counterFile) Next() (int64, error) {
	var next int64
	err := c.withLocked(func(f *os.File) error {
		current, err := readCounterValue(f)
		if err != nil {
			return err
		}
		next = current + 1
		return writeCounterValue(f, next)
	})
	return next, err
}

// Raise lifts the counter's high-water mark to at least min, so later
// auto-generated ids never collide with an explicitly supplied one.
func (c counterFile) Raise(min int64) error {
	return c.withLocked(func(f *os.File) error {
		current, err := readCounterValue(f)
		if err != nil {
			return err
		}
		if current >= min {
			return nil
		}
		return writeCounterValue(f, min)
	})
}

// Current reads the counter without incrementing it.
func (c counterFile) Current() (int64, error) {
	var value int64
	err := c.withLocked(func(f *os.File) error {
		current, err := readCounterValue(f)
		value = current
		return err
	})
	return value, err
}

// IssuanceEvent is the audit entry stored per unique long issued. The
// unique-long tracking file holds the serialized list of these rather than
// a bare value.
type IssuanceEvent struct {
	Value        int64     `json:"value"`
	Details      string    `json:"details"`
	EventID      string    `json:"eventId"`
	TimestampUTC time.Time `json:"timestampUtc"`
}

// uniqueLongFile is the unique-long counter: the same exclusive-lock
// protocol as counterFile, but the payload is the issuance event list.
type uniqueLongFile struct {
	path string
}

func (u uniqueLongFile) withLocked(fn func(f *os.File) error) error {
	return counterFile{path: u.path}.withLocked(fn)
}

func (u uniqueLongFile) readEvents() ([]IssuanceEvent, error) {
	raw, err := os.ReadFile(u.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read unique long tracking %s: %w", u.path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var events []IssuanceEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("parse unique long tracking %s: %w", u.path, err)
	}
	return events, nil
}

// Next issues the next unique long, appending an issuance event under the
// exclusive lock.
func (u uniqueLongFile) Next(details, eventID string, timestampUTC time.Time) (int64, error) {
	var value int64
	err := u.withLocked(func(f *os.File) error {
		events, err := u.readEvents()
		if err != nil {
			return err
		}
		value = 1
		if n := len(events); n > 0 {
			value = events[n-1].Value + 1
		}
		events = append(events, IssuanceEvent{
			Value:        value,
			Details:      details,
			EventID:      eventID,
			TimestampUTC: timestampUTC,
		})
		raw, err := json.Marshal(events)
		if err != nil {
			return fmt.Errorf("marshal unique long tracking: %w", err)
		}
		if err := f.Truncate(0); err != nil {
			return fmt.Errorf("truncate unique long tracking %s: %w", u.path, err)
		}
		if _, err := f.WriteAt(raw, 0); err != nil {
			return fmt.Errorf("write unique long tracking %s: %w", u.path, err)
		}
		return f.Sync()
	})
	return value, err
}

// Events returns the issuance audit trail.
func (u uniqueLongFile) Events() ([]IssuanceEvent, error) {
	var events []IssuanceEvent
	err := u.withLocked(func(f *os.File) error {
		var readErr error
		events, readErr = u.readEvents()
		return readErr
	})
	return events, err
}
