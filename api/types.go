// Package api defines the JSON bodies exchanged with the HTTP service.
//
// Sites and results use the output package's serialized forms so that a remote
// search produces the same documents as a local one.
package api

import (
	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/output"
)

// Paths served by the service.
const (
	PathHealth     = "/healthz"
	PathIndex      = "/v1/index"
	PathSites      = "/v1/sites"
	PathOffTargets = "/v1/offtargets"
	PathMetrics    = "/metrics"
)

// HeaderBatchID carries the id under which a search batch is logged.
const HeaderBatchID = "X-Batch-Id"

// ContentTypeNDJSON is the media type of streamed results.
const ContentTypeNDJSON = "application/x-ndjson"

// IndexInfo describes the loaded index.
type IndexInfo struct {
	Location    string `json:"location"`
	Assembly    string `json:"assembly"`
	Species     string `json:"species"`
	SpeciesID   *int   `json:"species_id,omitempty"`
	SeqLength   int    `json:"seq_length"`
	PAMWidth    int    `json:"pam_width"`
	NumSeqs     uint64 `json:"num_seqs"`
	FirstID     uint64 `json:"first_id"`
	DenseIDs    bool   `json:"dense_ids"`
	ExternalIDs bool   `json:"external_ids"`
	Threshold   int    `json:"threshold"`
}

// NewIndexInfo converts index metadata.
func NewIndexInfo(location string, m format.Metadata, threshold int) IndexInfo {
	info := IndexInfo{
		Location:    location,
		Assembly:    m.Assembly,
		Species:     m.Species,
		SeqLength:   m.SeqLength,
		PAMWidth:    m.PAMWidth,
		NumSeqs:     m.NumSeqs,
		FirstID:     m.FirstID,
		DenseIDs:    m.DenseIDs,
		ExternalIDs: m.ExternalIDs,
		Threshold:   threshold,
	}
	if m.HasSpeciesID {
		id := int(m.SpeciesID)
		info.SpeciesID = &id
	}
	return info
}

// OffTargetRequest selects the queries of a search: the window Start..Start+Count-1
// when both are non-zero, otherwise IDs.
type OffTargetRequest struct {
	IDs   []uint64 `json:"ids,omitempty"`
	Start uint64   `json:"start,omitempty"`
	Count uint64   `json:"count,omitempty"`
}

// IsRange reports whether the request selects a window. The window takes precedence
// over IDs when both are given.
func (r OffTargetRequest) IsRange() bool { return r.Start != 0 && r.Count != 0 }

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Result aliases the streamed per-query document.
type Result = output.Result

// Site aliases the site document.
type Site = output.Site
