package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sales440/ivy-ai-platform/internal/domain"
)

func TestRenderStepSubstitutesBindings(t *testing.T) {
	e := NewEngine()
	campaign := &domain.Campaign{Name: "Spring SaaS Push", Industry: "saas"}
	step := domain.SequenceStep{
		Number:   2,
		Subject:  "{{ first_name }}, quick follow-up",
		Template: "Hi {{ first_name }},\n\nStill curious how {{ company }} handles outreach?",
	}
	contact := &domain.Contact{Name: "Ana Torres", Email: "ana@example.com", Company: "Torres Ltd"}

	subject, body, err := e.RenderStep(campaign, step, contact)
	require.NoError(t, err)

	assert.Equal(t, "Ana, quick follow-up", subject)
	assert.Contains(t, body, "Hi Ana,")
	assert.Contains(t, body, "Torres Ltd")
}

func TestRenderStepConditionals(t *testing.T) {
	e := NewEngine()
	step := domain.SequenceStep{
		Number:   1,
		Subject:  "Hello",
		Template: "{% if company != \"\" %}Saw {{ company }} is growing.{% else %}Saw you are growing.{% endif %}",
	}

	_, body, err := e.RenderStep(&domain.Campaign{}, step, &domain.Contact{Name: "Ben", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Saw Acme is growing.", body)

	_, body, err = e.RenderStep(&domain.Campaign{}, step, &domain.Contact{Name: "Ben"})
	require.NoError(t, err)
	assert.Equal(t, "Saw you are growing.", body)
}

func TestRenderStepBadTemplate(t *testing.T) {
	e := NewEngine()
	step := domain.SequenceStep{Number: 1, Subject: "ok", Template: "{% if %}broken"}

	_, _, err := e.RenderStep(&domain.Campaign{}, step, &domain.Contact{Name: "Ben"})
	assert.Error(t, err)
}

func TestFirstNameFallback(t *testing.T) {
	assert.Equal(t, "there", firstName(""))
	assert.Equal(t, "Ana", firstName("Ana"))
	assert.Equal(t, "Ana", firstName("Ana Torres"))
}
