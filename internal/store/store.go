// Package store owns the JSON files under the add-on data directory:
// the people and group configuration, the in-progress work counters and
// the daily report history.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
)

var (
	ErrDefaultGroup   = errors.New("store: the default group cannot be deleted")
	ErrPersonNotFound = errors.New("store: person not found")
	ErrEmptyName      = errors.New("store: name is required")
)

// ConfigStore reads and writes employees.json and groups.json. The engine
// only reads; the CRUD collaborator writes. There is no locking: the last
// writer wins, which is acceptable for human-paced edits.
type ConfigStore struct {
	peoplePath string
	groupsPath string
}

func NewConfigStore(peoplePath, groupsPath string) *ConfigStore {
	return &ConfigStore{peoplePath: peoplePath, groupsPath: groupsPath}
}

// People returns the configured people with names trimmed. A missing file
// is an empty configuration.
func (s *ConfigStore) People() ([]domain.Person, error) {
	var out []domain.Person
	if err := readJSON(s.peoplePath, &out); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read people: %w", err)
	}
	for i := range out {
		out[i].Name = strings.TrimSpace(out[i].Name)
	}
	return out, nil
}

// Groups returns the group list, seeding the file with ["Default"] when it
// does not exist. Default is always present in the result.
func (s *ConfigStore) Groups() ([]string, error) {
	var out []string
	err := readJSON(s.groupsPath, &out)
	if errors.Is(err, os.ErrNotExist) {
		out = []string{domain.DefaultGroup}
		if err := writeJSON(s.groupsPath, out); err != nil {
			return nil, fmt.Errorf("failed to seed groups: %w", err)
		}
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read groups: %w", err)
	}
	for _, g := range out {
		if g == domain.DefaultGroup {
			return out, nil
		}
	}
	return append([]string{domain.DefaultGroup}, out...), nil
}

// SavePerson inserts or replaces the person with the same name.
func (s *ConfigStore) SavePerson(p domain.Person) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrEmptyName
	}
	people, err := s.People()
	if err != nil {
		return err
	}
	kept := people[:0]
	for _, existing := range people {
		if existing.Name != p.Name {
			kept = append(kept, existing)
		}
	}
	return s.writePeople(append(kept, p))
}

// DeletePerson removes the named person. The derived entities are left to
// the reconciler.
func (s *ConfigStore) DeletePerson(name string) error {
	people, err := s.People()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	kept := people[:0]
	for _, p := range people {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(people) {
		return ErrPersonNotFound
	}
	return s.writePeople(kept)
}

// AddGroup appends a group if it is not already known.
func (s *ConfigStore) AddGroup(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	groups, err := s.Groups()
	if err != nil {
		return err
	}
	for _, g := range groups {
		if g == name {
			return nil
		}
	}
	return writeJSON(s.groupsPath, append(groups, name))
}

// DeleteGroup removes a group and moves its members to Default.
func (s *ConfigStore) DeleteGroup(name string) error {
	if name == domain.DefaultGroup {
		return ErrDefaultGroup
	}
	groups, err := s.Groups()
	if err != nil {
		return err
	}
	kept := groups[:0]
	for _, g := range groups {
		if g != name {
			kept = append(kept, g)
		}
	}
	if err := writeJSON(s.groupsPath, kept); err != nil {
		return fmt.Errorf("failed to write groups: %w", err)
	}

	people, err := s.People()
	if err != nil {
		return err
	}
	changed := false
	for i := range people {
		if people[i].Group == name {
			people[i].Group = domain.DefaultGroup
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.writePeople(people)
}

func (s *ConfigStore) writePeople(people []domain.Person) error {
	if people == nil {
		people = []domain.Person{}
	}
	if err := writeJSON(s.peoplePath, people); err != nil {
		return fmt.Errorf("failed to write people: %w", err)
	}
	return nil
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces path atomically so a crash never leaves half a file.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
