// Package query builds the ranking query from a persona and a task.
package query

import (
	"fmt"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
)

// DefaultTemplate is the query sentence. {role} and {task} are substituted.
const DefaultTemplate = "As a {role}, I need to {task}."

// Composer renders queries from a template.
type Composer struct {
	template string
}

// NewComposer returns a composer for template, or DefaultTemplate when empty.
// The template must contain both {role} and {task}.
func NewComposer(template string) (*Composer, error) {
	if template == "" {
		template = DefaultTemplate
	}
	if !strings.Contains(template, "{role}") || !strings.Contains(template, "{task}") {
		return nil, fmt.Errorf("query template %q must contain {role} and {task}", template)
	}
	return &Composer{template: template}, nil
}

// Compose returns the query for persona and job. Both must be non-blank.
func (c *Composer) Compose(persona models.Persona, job models.Job) (string, error) {
	role := strings.TrimSpace(persona.Role)
	task := strings.TrimSpace(job.Task)
	if role == "" {
		return "", fmt.Errorf("%w: persona role is required", models.ErrMalformedRequest)
	}
	if task == "" {
		return "", fmt.Errorf("%w: task is required", models.ErrMalformedRequest)
	}
	if strings.HasSuffix(c.template, ".") {
		task = strings.TrimRight(task, ".!? ")
	}
	return strings.NewReplacer("{role}", role, "{task}", task).Replace(c.template), nil
}

// Compose renders the default template.
func Compose(persona models.Persona, job models.Job) (string, error) {
	return (&Composer{template: DefaultTemplate}).Compose(persona, job)
}
