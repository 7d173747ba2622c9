package server

import (
	"net/http"
	"strconv"

	"github.com/hierarchy-analysis/internal/report"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// SubtypeResponse answers /api/subtype.
type SubtypeResponse struct {
	Sub    string `json:"sub"`
	Super  string `json:"super"`
	Result bool   `json:"result"`
}

// MeetResponse answers /api/meet.
type MeetResponse struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Result string `json:"result"`
}

// SubtypesResponse answers /api/subtypes.
type SubtypesResponse struct {
	Class    string   `json:"class"`
	Direct   bool     `json:"direct"`
	Subtypes []string `json:"subtypes"`
}

// MissingResponse answers /api/missing.
type MissingResponse struct {
	Count   int                   `json:"count"`
	Classes []report.MissingClass `json:"classes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"run_id":  s.session.ID(),
		"summary": report.Summary(s.session.Report()),
	})
}

func (s *Server) handleSubtype(w http.ResponseWriter, r *http.Request) {
	params, err := requireParams(r, "sub", "super")
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok, err := s.session.IsSubtype(params[0], params[1])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubtypeResponse{Sub: params[0], Super: params[1], Result: ok})
}

func (s *Server) handleMeet(w http.ResponseWriter, r *http.Request) {
	params, err := requireParams(r, "a", "b")
	if err != nil {
		s.writeError(w, err)
		return
	}
	meet, err := s.session.FirstCommonSuperclass(params[0], params[1])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MeetResponse{A: params[0], B: params[1], Result: meet})
}

func (s *Server) handleSubtypes(w http.ResponseWriter, r *http.Request) {
	params, err := requireParams(r, "class")
	if err != nil {
		s.writeError(w, err)
		return
	}
	direct, _ := strconv.ParseBool(r.URL.Query().Get("direct"))
	found, err := s.session.Subtypes(params[0], direct)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubtypesResponse{Class: params[0], Direct: direct, Subtypes: found})
}

func (s *Server) handleSupertypes(w http.ResponseWriter, r *http.Request) {
	params, err := requireParams(r, "class")
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.session.Supertypes(params[0])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	missing := s.session.Report().MissingClasses
	writeJSON(w, http.StatusOK, MissingResponse{Count: len(missing), Classes: missing})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Report())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "invalid limit: "+v))
			return
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
