// Package prompt renders the named prompt templates used by the four LLM
// call sites. Rendering is text substitution (text/template); the only
// control flow in the templates is ranging over lists and one conditional
// replan section, keeping prompt content reviewable independent of Go code.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Temperature presets per call site, per spec §4.1/§4.2/§4.5/§4.6.
const (
	TemperatureValidate = 0.3
	TemperaturePlan     = 0.5
	TemperatureAnalyse  = 0.3
	TemperatureAggregate = 0.7
)

// Template is a named prompt with a system message and a parsed user-message
// template.
type Template struct {
	Name        string
	System      string
	Temperature float32
	user        *template.Template
}

// New parses a named template from the given text/template source.
func New(name, system, userSrc string, temperature float32) (*Template, error) {
	t, err := template.New(name).Parse(userSrc)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %q: %w", name, err)
	}
	return &Template{Name: name, System: system, Temperature: temperature, user: t}, nil
}

// Render substitutes vars into the user-message template.
func (t *Template) Render(vars any) (string, error) {
	var buf bytes.Buffer
	if err := t.user.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt template %q: %w", t.Name, err)
	}
	return buf.String(), nil
}
