package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tempandmajor/commonly-sub007/internal/fetch"
	"github.com/tempandmajor/commonly-sub007/internal/stats"
	"github.com/tempandmajor/commonly-sub007/pkg/response"
)

// PlatformHandler serves the dashboard summary from a long-lived fetcher
// owned by main: reads are snapshot lookups, never a DB round-trip.
type PlatformHandler struct {
	summary *fetch.Fetcher[stats.Summary]
}

func NewPlatformHandler(summary *fetch.Fetcher[stats.Summary]) *PlatformHandler {
	return &PlatformHandler{summary: summary}
}

type SummaryResponse struct {
	Summary *stats.Summary `json:"summary,omitempty"`
	Loading bool           `json:"loading"`
	Error   string         `json:"error,omitempty"`
}

func (h *PlatformHandler) Summary(c *gin.Context) {
	snap := h.summary.Snapshot()

	resp := SummaryResponse{Loading: snap.Loading, Error: snap.Err}
	if snap.HasData {
		s := snap.Data
		resp.Summary = &s
	}
	response.Success(c, resp)
}

// Refresh forces a refetch and returns the settled snapshot. Admin only.
func (h *PlatformHandler) Refresh(c *gin.Context) {
	h.summary.Refetch()
	h.Summary(c)
}
