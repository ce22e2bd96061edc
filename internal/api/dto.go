package api

import (
	"github.com/toozej/sn2ssg/internal/models"
)

// RunStatus is the last finished cycle in a status response.
type RunStatus struct {
	Report  models.RunReport `json:"report" validate:"required"`
	Outcome string           `json:"outcome" example:"succeeded" validate:"required"`
	Error   string           `json:"error,omitempty" example:"fetch: retry budget exhausted"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	State      string     `json:"state" example:"idle" validate:"required"`
	Ready      bool       `json:"ready" example:"true" validate:"required"`
	Cycles     int        `json:"cycles" example:"12" validate:"required"`
	LastRun    *RunStatus `json:"last_run,omitempty"`
	SSEClients int        `json:"sse_clients" example:"1"`
}
