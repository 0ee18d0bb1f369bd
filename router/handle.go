package router

import (
	"github.com/google/uuid"
)

// EdgeHandle wraps a concrete edge behind a process-unique identifier.
// Identity is the identifier alone, never the endpoints or weight: the
// graph may hold two structurally identical edges backed by independent
// liquidity venues, and de-duplication must keep them apart.
type EdgeHandle struct {
	GraphEdge

	id uuid.UUID
}

func NewEdgeHandle(edge GraphEdge) EdgeHandle {
	return EdgeHandle{GraphEdge: edge, id: uuid.New()}
}

func (h EdgeHandle) Identifier() uuid.UUID {
	return h.id
}

func (h EdgeHandle) Equal(other EdgeHandle) bool {
	return h.id == other.id
}
