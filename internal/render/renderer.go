// Package render turns campaign step templates into deliverable subjects
// and bodies using Liquid syntax ({{ first_name }}, {% if company %}...).
package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/sales440/ivy-ai-platform/internal/domain"
)

// Engine renders Liquid templates with a parse cache. Safe for concurrent
// use.
type Engine struct {
	liquid *liquid.Engine
	cache  sync.Map // template source -> *liquid.Template
}

func NewEngine() *Engine {
	return &Engine{liquid: liquid.NewEngine()}
}

// RenderStep renders the step's subject and body for one contact.
func (e *Engine) RenderStep(campaign *domain.Campaign, step domain.SequenceStep, contact *domain.Contact) (string, string, error) {
	bindings := e.bindings(campaign, step, contact)

	subject, err := e.render(step.Subject, bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering subject for step %d: %w", step.Number, err)
	}
	body, err := e.render(step.Template, bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering body for step %d: %w", step.Number, err)
	}
	return subject, body, nil
}

func (e *Engine) render(source string, bindings map[string]interface{}) (string, error) {
	tpl, err := e.parse(source)
	if err != nil {
		return "", err
	}
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (e *Engine) parse(source string) (*liquid.Template, error) {
	if cached, ok := e.cache.Load(source); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := e.liquid.ParseString(source)
	if err != nil {
		return nil, err
	}
	e.cache.Store(source, tpl)
	return tpl, nil
}

func (e *Engine) bindings(campaign *domain.Campaign, step domain.SequenceStep, contact *domain.Contact) map[string]interface{} {
	return map[string]interface{}{
		"first_name":    firstName(contact.Name),
		"name":          contact.Name,
		"email":         contact.Email,
		"company":       contact.Company,
		"title":         contact.Title,
		"campaign_name": campaign.Name,
		"industry":      campaign.Industry,
		"step_number":   step.Number,
	}
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return "there"
	}
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
