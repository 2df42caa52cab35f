// Package importer loads seed files describing users, plots, charges and
// announcements, and converts them into domain objects.
package importer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedSchema is the top-level structure of a seed file.
type SeedSchema struct {
	Users         []UserImport         `json:"users" yaml:"users"`
	Plots         []PlotImport         `json:"plots" yaml:"plots"`
	Charges       []ChargeImport       `json:"charges,omitempty" yaml:"charges"`
	Announcements []AnnouncementImport `json:"announcements,omitempty" yaml:"announcements"`
	Documents     []DocumentImport     `json:"documents,omitempty" yaml:"documents"`
}

// UserImport is one account. Ref links it to plot owners.
type UserImport struct {
	Ref        string `json:"ref" yaml:"ref"`
	FullName   string `json:"full_name" yaml:"full_name"`
	Phone      string `json:"phone" yaml:"phone"`
	Email      string `json:"email,omitempty" yaml:"email"`
	Password   string `json:"password" yaml:"password"`
	Role       string `json:"role,omitempty" yaml:"role"`
	Membership string `json:"membership,omitempty" yaml:"membership"`
}

type OwnerImport struct {
	UserRef string `json:"user_ref" yaml:"user_ref"`
	Primary bool   `json:"primary,omitempty" yaml:"primary"`
}

type PlotImport struct {
	Number          string        `json:"number" yaml:"number"`
	Street          string        `json:"street,omitempty" yaml:"street"`
	AreaSqm         string        `json:"area_sqm,omitempty" yaml:"area_sqm"`
	CadastralNumber string        `json:"cadastral_number,omitempty" yaml:"cadastral_number"`
	Owners          []OwnerImport `json:"owners,omitempty" yaml:"owners"`
}

// ChargeImport accrues an amount on one plot, or on every plot when Plot
// is "all".
type ChargeImport struct {
	Plot        string `json:"plot" yaml:"plot"`
	Kind        string `json:"kind" yaml:"kind"`
	Period      string `json:"period" yaml:"period"`
	Amount      string `json:"amount" yaml:"amount"`
	Description string `json:"description,omitempty" yaml:"description"`
}

type AnnouncementImport struct {
	Title    string `json:"title" yaml:"title"`
	Body     string `json:"body" yaml:"body"`
	Audience string `json:"audience,omitempty" yaml:"audience"`
}

type DocumentImport struct {
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	Category    string `json:"category,omitempty" yaml:"category"`
	MembersOnly bool   `json:"members_only,omitempty" yaml:"members_only"`
}

//go:embed demo.yaml
var demoSeed []byte

// DemoSchema is the built-in demo data used by `snt seed` without a file.
func DemoSchema() (*SeedSchema, error) {
	return ParseSeedSchema(demoSeed, "yaml")
}

// LoadSeedSchema reads a seed file. .yaml and .yml files are decoded as
// YAML, everything else as JSON.
func LoadSeedSchema(path string) (*SeedSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return ParseSeedSchema(data, format)
}

func ParseSeedSchema(data []byte, format string) (*SeedSchema, error) {
	var schema SeedSchema
	var err error
	if format == "yaml" {
		err = yaml.Unmarshal(data, &schema)
	} else {
		err = json.Unmarshal(data, &schema)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &schema, nil
}
