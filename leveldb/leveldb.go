// Package leveldb maps world file names to the episode and location shown in presence.
package leveldb

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	yaml "gopkg.in/yaml.v3"
)

const DefaultFile = "LevelDatabase.yaml"

const (
	TypeStory       = "Story"
	TypeDemo        = "Demo"
	TypeMultiplayer = "Multiplayer"
	TypeTest        = "Test"
	TypeCustom      = "Custom"

	UnknownEpisode = "Unknown"
)

type Entry struct {
	Key         string   `yaml:"key"`
	Episode     int      `yaml:"episode"`
	EpisodeName string   `yaml:"episode_name"`
	Location    string   `yaml:"location"`
	Type        string   `yaml:"type"`
	Aliases     []string `yaml:"aliases,flow,omitempty"`
}

type document struct {
	Levels []Entry `yaml:"levels"`
}

// Database keeps entries in file order; alias matching walks them in that order.
type Database struct {
	entries []Entry
	byKey   map[string]int
}

func New(entries []Entry) *Database {
	db := &Database{
		entries: make([]Entry, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		e.Key = strings.TrimSpace(e.Key)
		if e.Key == "" {
			continue
		}
		aliases := e.Aliases[:0:0]
		for _, a := range e.Aliases {
			if a = strings.TrimSpace(a); a != "" {
				aliases = append(aliases, a)
			}
		}
		e.Aliases = aliases

		k := strings.ToLower(e.Key)
		if i, ok := db.byKey[k]; ok {
			db.entries[i] = e
			continue
		}
		db.byKey[k] = len(db.entries)
		db.entries = append(db.entries, e)
	}
	return db
}

func (db *Database) Len() int { return len(db.entries) }

func (db *Database) Entries() []Entry {
	out := make([]Entry, len(db.entries))
	copy(out, db.entries)
	return out
}

// Lookup finds level by exact key, then by the first alias contained in it,
// ignoring case for both. Unknown levels get a custom entry named after the
// file stem.
func (db *Database) Lookup(level string) Entry {
	if i, ok := db.byKey[strings.ToLower(level)]; ok {
		return db.entries[i]
	}

	lower := strings.ToLower(level)
	for _, e := range db.entries {
		for _, alias := range e.Aliases {
			if strings.Contains(lower, strings.ToLower(alias)) {
				return e
			}
		}
	}

	return Entry{
		Key:         level,
		Episode:     0,
		EpisodeName: UnknownEpisode,
		Location:    Stem(level),
		Type:        TypeCustom,
	}
}

// Stem strips any directory and the final extension from a level file name.
func Stem(level string) string {
	if i := strings.LastIndexAny(level, `/\`); i >= 0 {
		level = level[i+1:]
	}
	if i := strings.LastIndexByte(level, '.'); i > 0 {
		level = level[:i]
	}
	return level
}

func Parse(data []byte) (*Database, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse level database: %w", err)
	}
	return New(doc.Levels), nil
}

func (db *Database) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# F.E.A.R level database\n")
	buf.WriteString("# episode 0 marks demo, multiplayer and test maps\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document{Levels: db.entries}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Write(path string, db *Database) error {
	data, err := db.Marshal()
	if err != nil {
		return fmt.Errorf("encode level database: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write level database: %w", err)
	}
	return nil
}

var log = logger.NewLogger(coloransi.Color(coloransi.ColorOrange, coloransi.ColorPurple, "leveldb"))

// Load reads path, writing the default database there when it does not exist.
// A file that cannot be parsed falls back to the defaults and the error is
// returned alongside them.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		db := Default()
		if err := Write(path, db); err != nil {
			return db, err
		}
		log.Infoln("Created level database", path, "with", db.Len(), "entries")
		return db, nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read level database: %w", err)
	}

	db, err := Parse(data)
	if err != nil {
		log.Warn("Level database ", path, " unusable, using defaults: ", err)
		return Default(), err
	}
	log.Infoln("Loaded level database", path, "with", db.Len(), "entries")
	return db, nil
}
