package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mkern/mailcull/internal/retention"
)

// ruleDoc is the on-disk shape of a rule.
type ruleDoc struct {
	ID            int      `yaml:"id"`
	Retention     string   `yaml:"retention"`
	GenerateLabel bool     `yaml:"generate_label"`
	Labels        []string `yaml:"labels,omitempty"`
	Action        string   `yaml:"action"`
}

type setDoc struct {
	Rules []ruleDoc `yaml:"rules"`
}

// Store persists a rule set as YAML at a fixed path.
type Store struct {
	Path string
}

// DefaultRulesPath returns the conventional rules file location under the
// user's home directory.
func DefaultRulesPath() string {
	return os.ExpandEnv("$HOME/.mailcull/rules.yaml")
}

// Load reads the rule set from disk. A missing file yields an empty set so
// first runs work without setup.
func (s Store) Load() (*Set, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return NewSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", s.Path, err)
	}

	var doc setDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode rules %s: %w", s.Path, err)
	}

	set := NewSet()
	for _, rd := range doc.Rules {
		age, err := retention.ParseAge(rd.Retention)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", rd.ID, err)
		}
		action, err := ParseAction(rd.Action)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", rd.ID, err)
		}
		policy := retention.Policy{Age: age, GenerateLabel: rd.GenerateLabel}
		rule, err := set.Add(rd.ID, policy, "", action)
		if err != nil {
			return nil, fmt.Errorf("load rules %s: %w", s.Path, err)
		}
		for _, label := range rd.Labels {
			rule.addLabel(label)
		}
	}
	return set, nil
}

// Save writes the rule set to disk, creating the parent directory when
// needed.
func (s Store) Save(set *Set) error {
	doc := setDoc{}
	for _, rule := range set.All() {
		doc.Rules = append(doc.Rules, ruleDoc{
			ID:            rule.ID,
			Retention:     rule.Policy.Age.String(),
			GenerateLabel: rule.Policy.GenerateLabel,
			Labels:        rule.Labels,
			Action:        rule.Action.String(),
		})
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create rules directory: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("write rules %s: %w", s.Path, err)
	}
	return nil
}
