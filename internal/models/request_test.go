package models

import (
	"errors"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", `{"persona":{"role":"Travel Planner"},"job_to_be_done":{"task":"plan a trip"},"documents":[{"filename":"a.pdf"}]}`, false},
		{"extra fields ignored", `{"challenge_info":{"id":"x"},"persona":{"role":"r","extra":1},"job_to_be_done":{"task":"t"}}`, false},
		{"missing persona", `{"job_to_be_done":{"task":"t"}}`, true},
		{"blank role", `{"persona":{"role":"  "},"job_to_be_done":{"task":"t"}}`, true},
		{"missing task", `{"persona":{"role":"r"}}`, true},
		{"not json", `persona: r`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRequest) {
					t.Errorf("error %v is not ErrMalformedRequest", err)
				}
				return
			}
			if req.Persona.Role == "" {
				t.Error("expected persona role to be decoded")
			}
		})
	}
}

func TestRequest_DocumentIDs(t *testing.T) {
	req := &Request{Documents: []DocumentRef{{Filename: "b.pdf"}, {Filename: "a.pdf"}}}
	ids := req.DocumentIDs()
	if len(ids) != 2 || ids[0] != "b.pdf" || ids[1] != "a.pdf" {
		t.Errorf("DocumentIDs() = %v, want request order", ids)
	}
}

func TestParseHeadingLevel(t *testing.T) {
	tests := []struct {
		in   string
		want HeadingLevel
		ok   bool
	}{
		{"TITLE", LevelTitle, true},
		{"h2", LevelH2, true},
		{" H4 ", LevelH4, true},
		{"H5", "", false},
		{"BODY", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseHeadingLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseHeadingLevel(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if LevelTitle.IsHeading() || !LevelH3.IsHeading() {
		t.Error("IsHeading mismatch")
	}
}
