package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Persona is the expert identity a chat is pinned to.
type Persona string

const (
	PersonaGeneral     Persona = "General"
	PersonaRealEstate  Persona = "Real Estate"
	PersonaSales       Persona = "Sales"
	PersonaMarketing   Persona = "Marketing"
	PersonaNegotiation Persona = "Negotiation"
	PersonaMotivation  Persona = "Motivation"
)

var Personas = []Persona{
	PersonaGeneral,
	PersonaRealEstate,
	PersonaSales,
	PersonaMarketing,
	PersonaNegotiation,
	PersonaMotivation,
}

func ParsePersona(raw string) (Persona, error) {
	p := Persona(strings.TrimSpace(raw))
	if !lo.Contains(Personas, p) {
		return "", fmt.Errorf("unsupported persona %q", raw)
	}
	return p, nil
}

// Chatbot is the lower-case form the assistant gateway expects in its payload.
func (p Persona) Chatbot() string {
	return strings.ToLower(string(p))
}
