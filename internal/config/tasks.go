package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/set-night/taskreward/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type taskFile struct {
	Tasks []taskEntry `yaml:"tasks"`
}

type taskEntry struct {
	Key         string          `yaml:"key"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Reward      decimal.Decimal `yaml:"reward"`
	Wait        int             `yaml:"wait"`
	Links       []string        `yaml:"links"`
	Active      *bool           `yaml:"active"`
}

// LoadTasks reads the task catalog file. Any malformed entry fails the whole
// load; there are no fallback defaults.
func LoadTasks(path string) ([]domain.TaskDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task catalog: %w", err)
	}
	return ParseTasks(raw)
}

func ParseTasks(raw []byte) ([]domain.TaskDefinition, error) {
	var file taskFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse task catalog: %w", err)
	}
	if len(file.Tasks) == 0 {
		return nil, errors.New("task catalog is empty")
	}

	defs := make([]domain.TaskDefinition, 0, len(file.Tasks))
	seen := make(map[string]bool, len(file.Tasks))
	var errs []error
	for i, e := range file.Tasks {
		key := strings.TrimSpace(e.Key)
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("task #%d: key is required", i+1))
			continue
		case strings.ContainsAny(key, ": "):
			errs = append(errs, fmt.Errorf("task %q: key must not contain spaces or colons", key))
			continue
		case seen[key]:
			errs = append(errs, fmt.Errorf("task %q: duplicate key", key))
			continue
		}
		seen[key] = true

		if e.Reward.IsNegative() {
			errs = append(errs, fmt.Errorf("task %q: reward must not be negative", key))
		}
		if e.Wait < 0 {
			errs = append(errs, fmt.Errorf("task %q: wait must not be negative", key))
		}
		for _, link := range e.Links {
			u, err := url.ParseRequestURI(link)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				errs = append(errs, fmt.Errorf("task %q: invalid link %q", key, link))
			}
		}

		name := e.Name
		if name == "" {
			name = key
		}
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		defs = append(defs, domain.TaskDefinition{
			Key:         key,
			Name:        name,
			Description: e.Description,
			Reward:      e.Reward,
			Wait:        e.Wait,
			Links:       e.Links,
			Active:      active,
		})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return defs, nil
}
