package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	ExcludeActorUser = "user"
	ExcludeActorAI   = "ai"
)

// excludeFileLocks serializes read-modify-write cycles per exclude file path.
var excludeFileLocks sync.Map

func lockExcludeFile(path string) func() {
	mu, _ := excludeFileLocks.LoadOrStore(filepath.Clean(path), &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// ExcludedPeople is the on-disk list of names that must never be returned
// from a match.
type ExcludedPeople struct {
	Items []*ExcludedPerson
}

type ExcludedPerson struct {
	Name       string
	Actor      string    `json:",omitempty"`
	Reason     string    `json:",omitempty"`
	ExcludedAt time.Time
}

// GetExcludedFromFile reads the exclude file at path. A missing or empty
// file yields an empty list.
func GetExcludedFromFile(path string) (*ExcludedPeople, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ExcludedPeople{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedPeople{}, nil
	}

	var excluded ExcludedPeople
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// NewExcluded builds exclude entries for the given records.
func NewExcluded(records []Record, actor, reason string) *ExcludedPeople {
	excluded := &ExcludedPeople{}
	for _, rec := range records {
		excluded.Items = append(excluded.Items, &ExcludedPerson{
			Name:       rec.Name,
			Actor:      actor,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

func (e *ExcludedPeople) Append(s *ExcludedPeople) {
	e.Items = append(e.Items, s.Items...)
}

// Names returns the excluded names, trimmed, in file order.
func (e *ExcludedPeople) Names() []string {
	names := make([]string, 0, len(e.Items))
	for _, person := range e.Items {
		if name := strings.TrimSpace(person.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ToFile replaces the file at path. The new content is written to a sibling
// temporary file and renamed into place, so readers never see a partial list.
func (e *ExcludedPeople) ToFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// AppendToExcludeFile adds people to the exclude file at path. Concurrent
// appends to the same path within the process never lose entries.
func AppendToExcludeFile(path string, people *ExcludedPeople) error {
	unlock := lockExcludeFile(path)
	defer unlock()

	excluded, err := GetExcludedFromFile(path)
	if err != nil {
		return fmt.Errorf("load excluded people: %w", err)
	}

	excluded.Append(people)

	if err := excluded.ToFile(path); err != nil {
		return fmt.Errorf("write excluded people: %w", err)
	}
	return nil
}
