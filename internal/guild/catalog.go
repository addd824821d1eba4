package guild

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"raidstats/internal/aggregate"
)

var validate = validator.New()

// Choice is a labelled numeric id offered to users, e.g. zone 1011 "BT/MH".
type Choice struct {
	ID   int    `yaml:"id" validate:"required,gt=0"`
	Name string `yaml:"name" validate:"required"`
}

// Config is the on-disk shape of the guild catalog file.
type Config struct {
	Guild struct {
		ID    int `yaml:"id" validate:"required,gt=0"`
		TagID int `yaml:"tag_id" validate:"gte=0"`
	} `yaml:"guild"`
	Zones      []Choice            `yaml:"zones" validate:"required,min=1,dive"`
	Encounters []Choice            `yaml:"encounters" validate:"dive"`
	Aliases    map[string][]string `yaml:"aliases"`
}

// Catalog answers label lookups for zones and encounters and carries the
// guild's alias map. It is read-only after construction.
type Catalog struct {
	guildID    int
	tagID      int
	zones      map[int]string
	encounters map[int]string
	aliases    aggregate.AliasMap
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guild config: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML strictly, so misspelled keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode guild config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate guild config: %w", err)
	}
	return New(cfg)
}

// New builds a catalog from an already decoded Config.
func New(cfg Config) (*Catalog, error) {
	c := &Catalog{
		guildID:    cfg.Guild.ID,
		tagID:      cfg.Guild.TagID,
		zones:      make(map[int]string, len(cfg.Zones)),
		encounters: make(map[int]string, len(cfg.Encounters)),
		aliases:    aggregate.AliasMap(cfg.Aliases),
	}
	for _, z := range cfg.Zones {
		if _, dup := c.zones[z.ID]; dup {
			return nil, fmt.Errorf("zone %d listed twice", z.ID)
		}
		c.zones[z.ID] = z.Name
	}
	for _, e := range cfg.Encounters {
		if _, dup := c.encounters[e.ID]; dup {
			return nil, fmt.Errorf("encounter %d listed twice", e.ID)
		}
		c.encounters[e.ID] = e.Name
	}
	if c.aliases == nil {
		c.aliases = aggregate.AliasMap{}
	}
	if err := c.aliases.Validate(); err != nil {
		return nil, fmt.Errorf("validate aliases: %w", err)
	}
	return c, nil
}

// GuildID is the analytics service's guild id.
func (c *Catalog) GuildID() int { return c.guildID }

// TagID is the guild tag used to restrict reports; 0 means no tag.
func (c *Catalog) TagID() int { return c.tagID }

// ZoneName returns the label for a zone id.
func (c *Catalog) ZoneName(id int) (string, bool) {
	name, ok := c.zones[id]
	return name, ok
}

// EncounterName returns the label for an encounter id.
func (c *Catalog) EncounterName(id int) (string, bool) {
	name, ok := c.encounters[id]
	return name, ok
}

// Aliases returns the configured alias map.
func (c *Catalog) Aliases() aggregate.AliasMap {
	return c.aliases
}

// WithAliases returns a copy of the catalog using a different alias map,
// e.g. one loaded from the database.
func (c *Catalog) WithAliases(aliases aggregate.AliasMap) (*Catalog, error) {
	if err := aliases.Validate(); err != nil {
		return nil, fmt.Errorf("validate aliases: %w", err)
	}
	cp := *c
	cp.aliases = aliases
	return &cp, nil
}
