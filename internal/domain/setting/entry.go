package setting

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEntryNotFound = errors.New("setting entry not found")
	ErrMalformedKey  = errors.New("malformed setting key")
)

// Entry is one operator-editable value stored under group.key. Revision
// counts effective changes so a reload can tell stale reads apart.
type Entry struct {
	id        uint
	group     string
	key       string
	value     string
	revision  int
	createdAt time.Time
	updatedAt time.Time
}

func NewEntry(group, key, value string) (*Entry, error) {
	if err := CheckKey(group, key); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Entry{
		group:     group,
		key:       key,
		value:     value,
		revision:  1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// RestoreEntry rebuilds an Entry read back from storage.
func RestoreEntry(id uint, group, key, value string, revision int, createdAt, updatedAt time.Time) *Entry {
	return &Entry{
		id:        id,
		group:     group,
		key:       key,
		value:     value,
		revision:  revision,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (e *Entry) ID() uint             { return e.id }
func (e *Entry) Group() string        { return e.group }
func (e *Entry) Key() string          { return e.key }
func (e *Entry) Value() string        { return e.value }
func (e *Entry) Revision() int        { return e.revision }
func (e *Entry) CreatedAt() time.Time { return e.createdAt }
func (e *Entry) UpdatedAt() time.Time { return e.updatedAt }

// Path is the dotted group.key form used in logs and the CLI.
func (e *Entry) Path() string { return e.group + "." + e.key }

// AssignID records the storage identity after the first save.
func (e *Entry) AssignID(id uint) {
	if e.id == 0 {
		e.id = id
	}
}

// IsSet reports whether the entry overrides the static default. An empty
// value falls through to the default layer.
func (e *Entry) IsSet() bool {
	return e.value != ""
}

// Bool parses flag-style entries; an unset entry reads as false.
func (e *Entry) Bool() (bool, error) {
	if !e.IsSet() {
		return false, nil
	}
	return strconv.ParseBool(e.value)
}

// Replace stores a new value. It returns false and leaves the revision alone
// when the value is unchanged.
func (e *Entry) Replace(value string) bool {
	if value == e.value {
		return false
	}
	e.value = value
	e.revision++
	e.updatedAt = time.Now().UTC()
	return true
}

// CheckKey rejects empty parts and whitespace, which the CLI would otherwise
// split into separate arguments.
func CheckKey(group, key string) error {
	switch {
	case group == "":
		return fmt.Errorf("%w: group is required", ErrMalformedKey)
	case key == "":
		return fmt.Errorf("%w: key is required", ErrMalformedKey)
	case strings.ContainsAny(group+key, " \t\r\n"):
		return fmt.Errorf("%w: whitespace in %s.%s", ErrMalformedKey, group, key)
	case strings.Contains(group, "."):
		return fmt.Errorf("%w: group %q contains a dot", ErrMalformedKey, group)
	}
	return nil
}
