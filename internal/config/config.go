// Package config loads and validates the household definition: rooms with
// their rotation lists and recurring tasks, indefinite tasks, the global
// user list, and the display location for weather.
//
// Rooms, tasks within a room, and indefinite tasks keep the order they are
// declared in the YAML document. Seeding walks tasks in that order, and the
// displays enumerate in that order, so the decoder works on yaml.Node pairs
// instead of Go maps.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kestrelhouse/chorewheel/internal/period"
)

// Location is the household's coordinates, used only for the weather lookup.
type Location struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// TaskDef is one recurring task inside a room. In YAML it is either a bare
// period string ("Dishes: 1d") or a mapping with optional stagger and
// rotation override:
//
//	Mop:
//	  period: 1w
//	  stagger: 2d
//	  users: [Ben]
type TaskDef struct {
	Name    string
	Period  string
	Stagger string   // extra offset applied once, at initial seeding
	Users   []string // overrides the room rotation list when non-empty
}

// Room is a named room with its rotation list and tasks, in declaration
// order.
type Room struct {
	Name  string
	Users []string
	Tasks []TaskDef
}

// IndefiniteDef defines a repetition-counted task.
type IndefiniteDef struct {
	Name        string
	Users       []string
	Repetitions int
}

// Config is the validated household definition. The engine trusts a Config
// that passed Validate and performs no further checking.
type Config struct {
	Location        Location
	Users           []string
	Rooms           []Room
	IndefiniteTasks []IndefiniteDef
}

type rawConfig struct {
	Location        Location  `yaml:"location"`
	Users           []string  `yaml:"users"`
	Rooms           yaml.Node `yaml:"rooms"`
	IndefiniteTasks yaml.Node `yaml:"indefinite_tasks"`
}

// Load reads and parses the household YAML document at path. Parsing and
// validation are separate steps; callers run Validate before handing the
// config to the engine.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a household YAML document.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Location: raw.Location,
		Users:    raw.Users,
	}

	if err := eachMappingPair(&raw.Rooms, func(name string, value *yaml.Node) error {
		room, err := decodeRoom(name, value)
		if err != nil {
			return err
		}
		cfg.Rooms = append(cfg.Rooms, room)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := eachMappingPair(&raw.IndefiniteTasks, func(name string, value *yaml.Node) error {
		var body struct {
			Users       []string `yaml:"users"`
			Repetitions int      `yaml:"repetitions"`
		}
		if err := value.Decode(&body); err != nil {
			return fmt.Errorf("indefinite task %q: %w", name, err)
		}
		cfg.IndefiniteTasks = append(cfg.IndefiniteTasks, IndefiniteDef{
			Name:        name,
			Users:       body.Users,
			Repetitions: body.Repetitions,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	return cfg, nil
}

// eachMappingPair walks the key/value pairs of a YAML mapping node in
// document order. A zero (absent) node is an empty mapping.
func eachMappingPair(n *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("parse config: expected mapping at line %d", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func decodeRoom(name string, n *yaml.Node) (Room, error) {
	var raw struct {
		Users []string  `yaml:"users"`
		Tasks yaml.Node `yaml:"tasks"`
	}
	if err := n.Decode(&raw); err != nil {
		return Room{}, fmt.Errorf("room %q: %w", name, err)
	}

	room := Room{Name: name, Users: raw.Users}
	if err := eachMappingPair(&raw.Tasks, func(taskName string, value *yaml.Node) error {
		def, err := decodeTaskDef(taskName, value)
		if err != nil {
			return fmt.Errorf("room %q: %w", name, err)
		}
		room.Tasks = append(room.Tasks, def)
		return nil
	}); err != nil {
		return Room{}, err
	}
	return room, nil
}

func decodeTaskDef(name string, n *yaml.Node) (TaskDef, error) {
	def := TaskDef{Name: name}
	switch n.Kind {
	case yaml.ScalarNode:
		if err := n.Decode(&def.Period); err != nil {
			return TaskDef{}, fmt.Errorf("task %q: %w", name, err)
		}
	case yaml.MappingNode:
		var body struct {
			Period  string   `yaml:"period"`
			Stagger string   `yaml:"stagger"`
			Users   []string `yaml:"users"`
		}
		if err := n.Decode(&body); err != nil {
			return TaskDef{}, fmt.Errorf("task %q: %w", name, err)
		}
		def.Period = body.Period
		def.Stagger = body.Stagger
		def.Users = body.Users
	default:
		return TaskDef{}, fmt.Errorf("task %q: expected period string or mapping", name)
	}
	return def, nil
}

// Validate checks the household definition for the mistakes the engine is
// not prepared to tolerate: empty rotation lists, users missing from the
// global list, duplicate names, and periods that do not parse.
func (c *Config) Validate() error {
	if len(c.Users) == 0 {
		return fmt.Errorf("config: users list is empty")
	}
	known := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		if u == "" {
			return fmt.Errorf("config: empty user name in users list")
		}
		known[u] = true
	}

	roomNames := make(map[string]bool, len(c.Rooms))
	for _, room := range c.Rooms {
		if roomNames[room.Name] {
			return fmt.Errorf("config: duplicate room %q", room.Name)
		}
		roomNames[room.Name] = true

		if len(room.Users) == 0 {
			return fmt.Errorf("config: room %q has no users", room.Name)
		}
		for _, u := range room.Users {
			if !known[u] {
				return fmt.Errorf("config: room %q user %q is not in the global users list", room.Name, u)
			}
		}

		taskNames := make(map[string]bool, len(room.Tasks))
		for _, def := range room.Tasks {
			if taskNames[def.Name] {
				return fmt.Errorf("config: room %q has duplicate task %q", room.Name, def.Name)
			}
			taskNames[def.Name] = true

			if _, err := period.Parse(def.Period); err != nil {
				return fmt.Errorf("config: room %q task %q: %w", room.Name, def.Name, err)
			}
			if def.Stagger != "" {
				if _, err := period.Parse(def.Stagger); err != nil {
					return fmt.Errorf("config: room %q task %q stagger: %w", room.Name, def.Name, err)
				}
			}
			for _, u := range def.Users {
				if !known[u] {
					return fmt.Errorf("config: room %q task %q user %q is not in the global users list", room.Name, def.Name, u)
				}
			}
		}
	}

	indefNames := make(map[string]bool, len(c.IndefiniteTasks))
	for _, def := range c.IndefiniteTasks {
		if indefNames[def.Name] {
			return fmt.Errorf("config: duplicate indefinite task %q", def.Name)
		}
		indefNames[def.Name] = true

		if len(def.Users) == 0 {
			return fmt.Errorf("config: indefinite task %q has no users", def.Name)
		}
		for _, u := range def.Users {
			if !known[u] {
				return fmt.Errorf("config: indefinite task %q user %q is not in the global users list", def.Name, u)
			}
		}
		if def.Repetitions < 1 {
			return fmt.Errorf("config: indefinite task %q repetitions must be at least 1", def.Name)
		}
	}

	return nil
}

// Room returns the named room.
func (c *Config) Room(name string) (Room, bool) {
	for _, r := range c.Rooms {
		if r.Name == name {
			return r, true
		}
	}
	return Room{}, false
}

// Task returns the named task definition within the room.
func (r Room) Task(name string) (TaskDef, bool) {
	for _, def := range r.Tasks {
		if def.Name == name {
			return def, true
		}
	}
	return TaskDef{}, false
}

// Indefinite returns the named indefinite task definition.
func (c *Config) Indefinite(name string) (IndefiniteDef, bool) {
	for _, def := range c.IndefiniteTasks {
		if def.Name == name {
			return def, true
		}
	}
	return IndefiniteDef{}, false
}
