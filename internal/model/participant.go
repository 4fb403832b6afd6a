package model

import (
	"encoding/json"
	"fmt"
)

type ParticipantKind string

const (
	ParticipantUser      ParticipantKind = "user"
	ParticipantCandidate ParticipantKind = "candidate"
)

// Participant is either a User{id} or a Candidate{id, email?, phone?, name?}.
// Contact fields are only meaningful for candidates; UnmarshalJSON rejects
// them on users and rejects unknown kinds.
type Participant struct {
	Kind  ParticipantKind `json:"type"`
	ID    string          `json:"id"`
	Email string          `json:"email,omitempty"`
	Phone string          `json:"phone,omitempty"`
	Name  string          `json:"name,omitempty"`
}

func UserParticipant(id string) Participant {
	return Participant{Kind: ParticipantUser, ID: id}
}

func CandidateParticipant(id, email, phone, name string) Participant {
	return Participant{Kind: ParticipantCandidate, ID: id, Email: email, Phone: phone, Name: name}
}

func (p Participant) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("participant id is required")
	}
	switch p.Kind {
	case ParticipantUser:
		if p.Email != "" || p.Phone != "" || p.Name != "" {
			return fmt.Errorf("user participant %s must not carry contact fields", p.ID)
		}
	case ParticipantCandidate:
	default:
		return fmt.Errorf("unknown participant type %q", p.Kind)
	}
	return nil
}

func (p *Participant) UnmarshalJSON(data []byte) error {
	type raw Participant
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	out := Participant(r)
	if err := out.Validate(); err != nil {
		return err
	}
	*p = out
	return nil
}
