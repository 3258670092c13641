// Package content holds the portfolio's static sections. The default content
// is embedded; a YAML file with the same shape can replace it at startup.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Tharun-Kumar-228/portfolio/internal/profilestats"
)

//go:embed portfolio.yaml
var defaultPortfolio []byte

var ErrInvalidContent = errors.New("invalid portfolio content")

type Portfolio struct {
	Hero           Hero            `yaml:"hero"`
	About          About           `yaml:"about"`
	Skills         []SkillGroup    `yaml:"skills"`
	Projects       []Project       `yaml:"projects"`
	Certifications []Certification `yaml:"certifications"`
	Achievements   []Achievement   `yaml:"achievements"`
	Education      []Education     `yaml:"education"`
	CodingProfiles []CodingProfile `yaml:"coding_profiles"`
	Resume         Resume          `yaml:"resume"`
	Contact        Contact         `yaml:"contact"`
}

type Hero struct {
	Name    string   `yaml:"name"`
	Role    string   `yaml:"role"`
	Tagline string   `yaml:"tagline"`
	Roles   []string `yaml:"roles"`
}

type About struct {
	Summary  string `yaml:"summary"`
	Location string `yaml:"location"`
	Email    string `yaml:"email"`
	Image    string `yaml:"image"`
}

type SkillGroup struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}

type Project struct {
	Name            string   `yaml:"name"`
	Category        string   `yaml:"category"`
	Status          string   `yaml:"status"`
	DeploymentLevel string   `yaml:"deployment_level"`
	Description     string   `yaml:"description"`
	TechStack       []string `yaml:"tech_stack"`
	GitHubURL       string   `yaml:"github_url"`
	LiveURL         string   `yaml:"live_url"`
}

type Certification struct {
	Title        string `yaml:"title"`
	Organization string `yaml:"organization"`
	Date         string `yaml:"date"`
	Image        string `yaml:"image"`
	Proof        string `yaml:"proof"`
}

type Achievement struct {
	Title       string `yaml:"title"`
	Year        string `yaml:"year"`
	Position    string `yaml:"position"`
	Image       string `yaml:"image"`
	Description string `yaml:"description"`
}

type Education struct {
	Degree      string   `yaml:"degree"`
	Institution string   `yaml:"institution"`
	StartDate   string   `yaml:"start_date"`
	EndDate     string   `yaml:"end_date"`
	Score       string   `yaml:"score"`
	Highlights  []string `yaml:"highlights"`
}

// CodingProfile is a coding or social account shown on the profiles board.
type CodingProfile struct {
	ID            string                        `yaml:"id"`
	Name          string                        `yaml:"name"`
	URL           string                        `yaml:"url"`
	Color         string                        `yaml:"color"`
	Platform      profilestats.PlatformKind     `yaml:"platform"`
	Handle        string                        `yaml:"handle"`
	FallbackStats []profilestats.StatisticEntry `yaml:"fallback_stats"`
}

type Resume struct {
	URL     string `yaml:"url"`
	Updated string `yaml:"updated"`
}

type Contact struct {
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Location string `yaml:"location"`
	Links    []Link `yaml:"links"`
}

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// LoadDefault parses the embedded portfolio.
func LoadDefault() (*Portfolio, error) {
	return Parse(defaultPortfolio)
}

// Load reads a portfolio file, or the embedded default when path is empty.
func Load(path string) (*Portfolio, error) {
	if path == "" {
		return LoadDefault()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Portfolio) Validate() error {
	if p.Hero.Name == "" {
		return fmt.Errorf("%w: hero name is required", ErrInvalidContent)
	}
	seen := make(map[string]struct{}, len(p.CodingProfiles))
	for _, d := range p.Descriptors() {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidContent, err)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("%w: duplicate coding profile id %q", ErrInvalidContent, d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// Descriptors converts the coding profiles into aggregator input.
func (p *Portfolio) Descriptors() []profilestats.ProfileDescriptor {
	out := make([]profilestats.ProfileDescriptor, 0, len(p.CodingProfiles))
	for _, cp := range p.CodingProfiles {
		kind := cp.Platform
		if kind == "" {
			kind = profilestats.PlatformManual
		}
		out = append(out, profilestats.ProfileDescriptor{
			ID:                 cp.ID,
			PlatformKind:       kind,
			Handle:             cp.Handle,
			FallbackStatistics: cp.FallbackStats,
		})
	}
	return out
}

// ContactEmail is the address messages are sent to unless overridden.
func (p *Portfolio) ContactEmail() string {
	if p.Contact.Email != "" {
		return p.Contact.Email
	}
	return p.About.Email
}
