package repository

import (
	"encoding/json"
	"fmt"

	"sow-signoff/backend/pkg/models"
)

// Column encoding shared by the SQL stores. List-valued fields are stored
// as JSON documents; nil slices are written as empty arrays.

func encodeJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode column: %w", err)
	}
	if string(b) == "null" {
		return []byte("[]"), nil
	}
	return b, nil
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}

type approvalColumns struct {
	required  []byte
	decisions []byte
}

func encodeApproval(a *models.SectionApproval) (approvalColumns, error) {
	required, err := encodeJSON(a.RequiredApprovers)
	if err != nil {
		return approvalColumns{}, err
	}
	decisions, err := encodeJSON(a.Decisions)
	if err != nil {
		return approvalColumns{}, err
	}
	return approvalColumns{required: required, decisions: decisions}, nil
}

func (c approvalColumns) decodeInto(a *models.SectionApproval) error {
	if err := decodeJSON(c.required, &a.RequiredApprovers); err != nil {
		return err
	}
	return decodeJSON(c.decisions, &a.Decisions)
}

type stakeholderColumns struct {
	knowledge        []byte
	specializations  []byte
	responsibilities []byte
	canApprove       []byte
}

func encodeStakeholder(s *models.Stakeholder) (stakeholderColumns, error) {
	var (
		c   stakeholderColumns
		err error
	)
	if c.knowledge, err = encodeJSON(s.KnowledgeAreas); err != nil {
		return c, err
	}
	if c.specializations, err = encodeJSON(s.Specializations); err != nil {
		return c, err
	}
	if c.responsibilities, err = encodeJSON(s.Responsibilities); err != nil {
		return c, err
	}
	c.canApprove, err = encodeJSON(s.CanApprove)
	return c, err
}

func (c stakeholderColumns) decodeInto(s *models.Stakeholder) error {
	for _, col := range []struct {
		data []byte
		dest any
	}{
		{c.knowledge, &s.KnowledgeAreas},
		{c.specializations, &s.Specializations},
		{c.responsibilities, &s.Responsibilities},
		{c.canApprove, &s.CanApprove},
	} {
		if err := decodeJSON(col.data, col.dest); err != nil {
			return err
		}
	}
	return nil
}
