package agent

import (
	"context"
	"fmt"

	"studio/internal/domain"
)

// Persona is a built-in chat character. Its texts are catalog keys.
type Persona struct {
	ID string
}

// Built-in personas, in display order.
var Personas = []Persona{
	{ID: "helpful_assistant"},
	{ID: "creative_writer"},
	{ID: "code_wizard"},
	{ID: "sarcastic_bot"},
}

func (p Persona) nameKey() string        { return "persona_" + p.ID + "_name" }
func (p Persona) descriptionKey() string { return "persona_" + p.ID + "_desc" }
func (p Persona) instructionKey() string { return "persona_" + p.ID + "_instruction" }

// PersonaView is a persona rendered in one language.
type PersonaView struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	SystemInstruction string `json:"systemInstruction"`
}

// FindPersona looks a persona up by id.
func FindPersona(id string) (Persona, error) {
	for _, p := range Personas {
		if p.ID == id {
			return p, nil
		}
	}
	return Persona{}, fmt.Errorf("%w: unknown persona %q", domain.ErrInvalidInput, id)
}

// ListPersonas renders every persona for the language in effect.
func (s *Service) ListPersonas(ctx context.Context) []PersonaView {
	out := make([]PersonaView, 0, len(Personas))
	for _, p := range Personas {
		out = append(out, s.render(ctx, p))
	}
	return out
}

func (s *Service) render(ctx context.Context, p Persona) PersonaView {
	return PersonaView{
		ID:                p.ID,
		Name:              s.text.Text(ctx, p.nameKey(), nil),
		Description:       s.text.Text(ctx, p.descriptionKey(), nil),
		SystemInstruction: s.text.Text(ctx, p.instructionKey(), nil),
	}
}
