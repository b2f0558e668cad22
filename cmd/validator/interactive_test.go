package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metadata-validator/internal/search"
	"metadata-validator/internal/service"
)

const glossaryCSV = "Table,Field,Description\n" +
	"dim_customer,customer_id,Unique customer identifier\n" +
	"dim_customer,email,Customer email address\n"

func newSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	svc, err := service.New(nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	var out bytes.Buffer
	return &session{svc: svc, out: &out}, &out
}

func TestSessionCommands(t *testing.T) {
	s, out := newSession(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "terms.csv")
	require.NoError(t, os.WriteFile(path, []byte(glossaryCSV), 0o600))

	tests := []struct {
		input string
		want  string
	}{
		{"/load glossary " + path, "Loaded glossary: 2 matches"},
		{"email", `1 matches for "email"`},
		{"/type rule", "Type filter set to: rule"},
		{"email", "No matches."},
		{"/type", "Type filter cleared"},
		{"/compare glossary " + path, "Compared 2 fields"},
		{"/score 80 true false", "Score: 68 (medium"},
		{"/score 120 true false", "Error: percentage must be"},
		{"/summary", "Error: nothing loaded"},
		{"/export", "Error: no export target configured"},
		{"/bogus", "unknown command /bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out.Reset()
			assert.True(t, s.handle(ctx, tt.input))
			assert.Contains(t, out.String(), tt.want)
		})
	}

	assert.False(t, s.handle(ctx, "exit"))
	assert.False(t, s.handle(ctx, "QUIT"))
}

func TestGradeKind(t *testing.T) {
	s, _ := newSession(t)

	_, err := gradeKind(s.svc, "")
	assert.Error(t, err)

	_, err = gradeKind(s.svc, "policy")
	assert.Error(t, err)

	kind, err := gradeKind(s.svc, "dictionary")
	require.NoError(t, err)
	assert.Equal(t, "dictionary", string(kind))
}

func TestFormatResults(t *testing.T) {
	assert.Equal(t, "No matches.\n", formatResults(search.Results{Query: "x"}))

	res := search.Results{
		Query:     "email",
		TotalHits: 1,
		Hits: []search.Hit{{
			Document: search.Document{Type: "field", Source: "glossary", Title: "email", Table: "dim_customer", Body: "Customer email address"},
			Score:    1.5,
		}},
	}
	got := formatResults(res)
	assert.Contains(t, got, "[glossary/field] dim_customer.email (1.50)")
	assert.Contains(t, got, "Customer email address")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []string{"field", "rule"}, splitList(" field, ,rule "))
	assert.Nil(t, splitList(""))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "terms.csv", baseName(" /tmp/x/terms.csv "))
}
