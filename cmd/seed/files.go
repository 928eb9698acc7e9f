package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sow-signoff/backend/pkg/models"
)

type stakeholderFile struct {
	Project      string             `yaml:"project"`
	Stakeholders []stakeholderEntry `yaml:"stakeholders"`
}

type stakeholderEntry struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Title            string   `yaml:"title"`
	Role             string   `yaml:"role"`
	Email            string   `yaml:"email"`
	KnowledgeAreas   []string `yaml:"knowledge_areas"`
	Specializations  []string `yaml:"specializations"`
	Responsibilities []string `yaml:"responsibilities"`
	CanApprove       []string `yaml:"can_approve"`
	InvolvementLevel string   `yaml:"involvement_level"`
	ReportsTo        string   `yaml:"reports_to"`
}

type sectionFile struct {
	Sections []models.SectionDefinition `yaml:"sections"`
}

func readYAML(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("seed: read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("seed: %s is empty", path)
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("seed: decode %s: %w", path, err)
	}
	return nil
}

// loadStakeholders reads a stakeholder file. Every entry belongs to the
// file's project; IDs are required and must be unique.
func loadStakeholders(path string) ([]*models.Stakeholder, error) {
	var file stakeholderFile
	if err := readYAML(path, &file); err != nil {
		return nil, err
	}
	project := strings.TrimSpace(file.Project)
	if project == "" {
		return nil, fmt.Errorf("seed: %s: project is required", path)
	}

	seen := make(map[string]bool, len(file.Stakeholders))
	out := make([]*models.Stakeholder, 0, len(file.Stakeholders))
	for i, e := range file.Stakeholders {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, fmt.Errorf("seed: %s: stakeholders[%d]: id is required", path, i)
		}
		if seen[id] {
			return nil, fmt.Errorf("seed: %s: duplicate stakeholder id %q", path, id)
		}
		seen[id] = true

		level := models.InvolvementLevel(strings.ToUpper(strings.TrimSpace(e.InvolvementLevel)))
		if !level.Valid() {
			return nil, fmt.Errorf("seed: %s: stakeholder %q: unknown involvement level %q", path, id, e.InvolvementLevel)
		}

		st := &models.Stakeholder{
			ID:               id,
			ProjectID:        project,
			Name:             e.Name,
			Title:            e.Title,
			Role:             e.Role,
			Email:            e.Email,
			Specializations:  e.Specializations,
			Responsibilities: e.Responsibilities,
			CanApprove:       e.CanApprove,
			InvolvementLevel: level,
		}
		for _, area := range e.KnowledgeAreas {
			st.KnowledgeAreas = append(st.KnowledgeAreas, models.Tier(strings.ToUpper(strings.TrimSpace(area))))
		}
		if r := strings.TrimSpace(e.ReportsTo); r != "" {
			st.ReportsTo = &r
		}
		out = append(out, st)
	}
	return out, nil
}

// loadSections reads section definitions from a YAML file.
func loadSections(path string) ([]models.SectionDefinition, error) {
	var file sectionFile
	if err := readYAML(path, &file); err != nil {
		return nil, err
	}
	if len(file.Sections) == 0 {
		return nil, fmt.Errorf("seed: %s: no sections defined", path)
	}
	return file.Sections, nil
}
