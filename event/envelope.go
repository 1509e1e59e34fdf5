// Package event implements the cloud-event envelope that carries routing
// metadata and an opaque payload between pipeline stages.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Extensions carries the envelope's correlation metadata.
type Extensions struct {
	CorrelationID string `json:"correlationid"`
	ParentID      string `json:"parentId,omitempty"`
	TTL           int    `json:"ttl"`
	Depth         int    `json:"depth"`
	ClientID      string `json:"clientId,omitempty"`
}

// Envelope is the uniform message layout every stage consumes and produces.
// Data.Value carries the payload as a raw byte sequence so intermediate
// stages can forward it unmodified.
type Envelope struct {
	ID         string     `json:"id"`
	ParentID   string     `json:"parentId,omitempty"`
	Time       time.Time  `json:"time"`
	Source     string     `json:"source"`
	Subject    string     `json:"subject"`
	Type       string     `json:"type"`
	Extensions Extensions `json:"extensions"`
	Data       Data       `json:"data"`
}

// Data wraps the envelope's opaque payload bytes.
type Data struct {
	Value []byte `json:"value"`
}

const defaultTTLSeconds = 30

// Generate assigns a fresh id, stamps UTC time, and places an extensions
// block carrying a freshly-minted correlationid, the given parentId, a
// default ttl, and depth. The caller's payload bytes are carried as-is.
func Generate(payload []byte, source, subject string, clientID string, depth int, parentID string) Envelope {
	id := uuid.NewString()
	return Envelope{
		ID:       id,
		ParentID: parentID,
		Time:     time.Now().UTC(),
		Source:   source,
		Subject:  subject,
		Type:     "expand",
		Extensions: Extensions{
			CorrelationID: id,
			ParentID:      parentID,
			TTL:           defaultTTLSeconds,
			Depth:         depth,
			ClientID:      clientID,
		},
		Data: Data{Value: payload},
	}
}

// DeriveFrom produces a pass-through envelope: same id and extensions as
// existing, fresh time, fresh payload bytes. Used by stages that transform a
// payload without forking the causal chain.
func DeriveFrom(existing Envelope, payload []byte) Envelope {
	next := existing
	next.Time = time.Now().UTC()
	next.Data = Data{Value: payload}
	return next
}

// DeriveExpansion produces a fan-out envelope: existing's id is promoted to
// parentId, a new id is assigned, depth increments, and type becomes
// "expansion". correlationid is carried over unchanged from existing so it
// stays stable from the originating search through every descendant event.
func DeriveExpansion(existing Envelope, payload []byte) Envelope {
	next := existing
	next.ParentID = existing.ID
	next.ID = uuid.NewString()
	next.Type = "expansion"
	next.Source = "pipeline"
	next.Time = time.Now().UTC()
	next.Extensions.ParentID = existing.ID
	next.Extensions.Depth = existing.Extensions.Depth + 1
	next.Data = Data{Value: payload}
	return next
}
