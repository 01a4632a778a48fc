package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request is the analysis request document.
type Request struct {
	ChallengeInfo map[string]interface{} `json:"challenge_info,omitempty"`
	Documents     []DocumentRef          `json:"documents"`
	Persona       Persona                `json:"persona"`
	JobToBeDone   Job                    `json:"job_to_be_done"`
}

// DocumentRef names one input document.
type DocumentRef struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
}

// Persona is the role the ranking is performed for.
type Persona struct {
	Role string `json:"role"`
}

// Job is the task the persona needs to accomplish.
type Job struct {
	Task string `json:"task"`
}

// ParseRequest decodes and validates a request document.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate ensures persona role and task are present.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Persona.Role) == "" {
		return fmt.Errorf("%w: persona role is required", ErrMalformedRequest)
	}
	if strings.TrimSpace(r.JobToBeDone.Task) == "" {
		return fmt.Errorf("%w: job_to_be_done task is required", ErrMalformedRequest)
	}
	return nil
}

// DocumentIDs returns the requested document filenames in request order.
func (r *Request) DocumentIDs() []string {
	ids := make([]string, 0, len(r.Documents))
	for _, d := range r.Documents {
		ids = append(ids, d.Filename)
	}
	return ids
}
