package topo

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SynonymGroup lists terms that name the same kind of space. Name is the
// canonical label used for classification.
type SynonymGroup struct {
	Name  string   `yaml:"name" json:"name"`
	Terms []string `yaml:"terms" json:"terms"`
}

// SpaceTypeRule maps canonical labels to a space type.
type SpaceTypeRule struct {
	Type   SpaceType `yaml:"type" json:"type"`
	Labels []string  `yaml:"labels" json:"labels"`
}

// CategoryKeywords holds the category-name substrings that identify node and
// structure kinds.
type CategoryKeywords struct {
	Living        []string `yaml:"living" json:"living"`
	Bedroom       []string `yaml:"bedroom" json:"bedroom"`
	KitchenDining []string `yaml:"kitchenDining" json:"kitchenDining"`
	Kitchen       []string `yaml:"kitchen" json:"kitchen"`
	Bathroom      []string `yaml:"bathroom" json:"bathroom"`
	Balcony       []string `yaml:"balcony" json:"balcony"`
	Door          []string `yaml:"door" json:"door"`
	Window        []string `yaml:"window" json:"window"`
	Wall          []string `yaml:"wall" json:"wall"`
}

// Thresholds are the geometric tuning constants, in image pixels.
type Thresholds struct {
	MinFragmentArea      float64 `yaml:"minFragmentArea" json:"minFragmentArea"`           // smallest accepted split fragment (px²)
	WallBuffer           float64 `yaml:"wallBuffer" json:"wallBuffer"`                     // buffer around a wall when splitting a space
	StructureWallBuffer  float64 `yaml:"structureWallBuffer" json:"structureWallBuffer"`   // buffer around walls when splitting a door/window
	AdjacencyDistance    float64 `yaml:"adjacencyDistance" json:"adjacencyDistance"`       // max gap for two spaces to count as adjacent
	DividerExtensionMult float64 `yaml:"dividerExtensionMult" json:"dividerExtensionMult"` // divider length as a multiple of the space bbox size
}

// Config is the immutable table set used by every component. Build one with
// DefaultConfig or LoadConfig and do not modify it after handing it to a
// Builder.
type Config struct {
	SynonymGroups  []SynonymGroup   `yaml:"synonymGroups" json:"synonymGroups"`
	OutsideSpaces  []string         `yaml:"outsideSpaces" json:"outsideSpaces"`
	SpaceTypeRules []SpaceTypeRule  `yaml:"spaceTypeRules" json:"spaceTypeRules"`
	Categories     CategoryKeywords `yaml:"categories" json:"categories"`
	Thresholds     Thresholds       `yaml:"thresholds" json:"thresholds"`
}

// Validation errors.
var (
	ErrNoSynonymGroups  = errors.New("at least one synonym group is required")
	ErrNoSpaceTypeRules = errors.New("at least one space type rule is required")
	ErrBadThreshold     = errors.New("threshold out of range")
)

// DefaultConfig returns the compiled-in tables.
func DefaultConfig() *Config {
	return &Config{
		SynonymGroups: []SynonymGroup{
			{Name: "거실", Terms: []string{"거실", "리빙룸", "living"}},
			{Name: "침실", Terms: []string{"침실", "안방", "bedroom", "masterroom"}},
			{Name: "주방및식당", Terms: []string{"주방및식당", "주방식당", "식당및주방", "다이닝키친", "kitchen&dining"}},
			{Name: "주방", Terms: []string{"주방", "부엌", "키친", "kitchen"}},
			{Name: "식당", Terms: []string{"식당", "다이닝", "dining"}},
			{Name: "욕실", Terms: []string{"욕실", "화장실", "샤워실", "파우더룸", "bath", "toilet"}},
			{Name: "현관", Terms: []string{"현관", "entrance"}},
			{Name: "발코니", Terms: []string{"발코니", "베란다", "테라스", "balcony", "terrace"}},
			{Name: "드레스룸", Terms: []string{"드레스룸", "옷방", "워크인", "dressroom"}},
			{Name: "다용도실", Terms: []string{"다용도실", "세탁실", "보일러실", "utility"}},
			{Name: "팬트리", Terms: []string{"팬트리", "창고", "수납", "pantry"}},
			{Name: "알파룸", Terms: []string{"알파룸", "서재", "취미실", "alpha"}},
			{Name: "복도", Terms: []string{"복도", "홀", "hall"}},
			{Name: "실외기실", Terms: []string{"실외기실", "실외기", "ac room"}},
			{Name: "기타", Terms: []string{"기타", "other", "etc"}},
		},
		OutsideSpaces: []string{"발코니", "베란다", "테라스", "실외기", "balcony", "terrace"},
		SpaceTypeRules: []SpaceTypeRule{
			{Type: SpaceOther, Labels: []string{"기타"}},
			{Type: SpaceSpecialized, Labels: []string{"알파룸", "팬트리"}},
			{Type: SpaceWet, Labels: []string{"욕실", "다용도실"}},
			{Type: SpaceCommon, Labels: []string{"거실", "주방및식당", "주방", "식당", "현관", "복도"}},
			{Type: SpacePrivate, Labels: []string{"침실", "드레스룸"}},
			{Type: SpaceOutside, Labels: []string{"발코니", "실외기실"}},
		},
		Categories: CategoryKeywords{
			Living:        []string{"거실", "living"},
			Bedroom:       []string{"침실", "bedroom"},
			KitchenDining: []string{"주방및식당", "주방/식당", "kitchen_dining", "kitchen&dining"},
			Kitchen:       []string{"주방", "식당", "kitchen", "dining"},
			Bathroom:      []string{"화장실", "욕실", "bath"},
			Balcony:       []string{"발코니", "balcony"},
			Door:          []string{"출입", "door", "entrance"},
			Window:        []string{"창호", "창문", "window", "opening"},
			Wall:          []string{"벽", "wall"},
		},
		Thresholds: Thresholds{
			MinFragmentArea:      1000,
			WallBuffer:           2,
			StructureWallBuffer:  1,
			AdjacencyDistance:    5,
			DividerExtensionMult: 2,
		},
	}
}

// Validate checks that the tables can drive the pipeline.
func (c *Config) Validate() error {
	if len(c.SynonymGroups) == 0 {
		return ErrNoSynonymGroups
	}
	for i, g := range c.SynonymGroups {
		if g.Name == "" {
			return fmt.Errorf("synonymGroups[%d].name is required", i)
		}
		if len(g.Terms) == 0 {
			return fmt.Errorf("synonymGroups[%d] (%s) has no terms", i, g.Name)
		}
	}
	if len(c.SpaceTypeRules) == 0 {
		return ErrNoSpaceTypeRules
	}
	for i, r := range c.SpaceTypeRules {
		switch r.Type {
		case SpaceOther, SpaceSpecialized, SpaceWet, SpaceCommon, SpacePrivate, SpaceOutside:
		default:
			return fmt.Errorf("spaceTypeRules[%d]: unknown type %q", i, r.Type)
		}
	}

	t := c.Thresholds
	if t.MinFragmentArea < 0 {
		return fmt.Errorf("thresholds.minFragmentArea %v: %w", t.MinFragmentArea, ErrBadThreshold)
	}
	if t.WallBuffer < 0 || t.StructureWallBuffer < 0 {
		return fmt.Errorf("thresholds wall buffers must be >= 0: %w", ErrBadThreshold)
	}
	if t.AdjacencyDistance < 0 {
		return fmt.Errorf("thresholds.adjacencyDistance %v: %w", t.AdjacencyDistance, ErrBadThreshold)
	}
	if t.DividerExtensionMult < 1 {
		return fmt.Errorf("thresholds.dividerExtensionMult %v must be >= 1: %w", t.DividerExtensionMult, ErrBadThreshold)
	}
	return nil
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML config data over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
