package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

type searchRequest struct {
	Region             string            `json:"region"`
	ExactDate          string            `json:"exact_date"`
	Subsystem          string            `json:"subsystem"`
	DocumentType       string            `json:"document_type"`
	RegistryNumber     string            `json:"registry_number"`
	IncludeAttachments bool              `json:"include_attachments"`
	AllSubsystems      bool              `json:"all_subsystems"`
	Subsystems         []string          `json:"subsystems"`
	DocumentTypes      map[string]string `json:"document_types"`
}

type subsystemDTO struct {
	Code          string   `json:"code"`
	Description   string   `json:"description"`
	DocumentTypes []string `json:"document_types"`
}

func (s *Server) listSubsystems(w http.ResponseWriter, _ *http.Request) {
	out := make([]subsystemDTO, 0, len(tender.SubsystemTypes))
	for _, code := range tender.SubsystemTypes {
		out = append(out, subsystemDTO{
			Code:          code,
			Description:   tender.DescribeSubsystem(code),
			DocumentTypes: tender.DocumentTypesFor(code),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"subsystems": out})
}

// createSearch runs a search synchronously. The request context bounds the
// run, so a disconnecting client cancels it.
func (s *Server) createSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "acquirer unavailable")
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	switch {
	case req.RegistryNumber != "":
		out, err := s.searcher.SearchByRegistry(ctx, req.Subsystem, req.RegistryNumber)
		s.respond(w, out, err)
	case req.AllSubsystems:
		out, err := s.searcher.SearchAll(ctx, req.Region, req.ExactDate, req.Subsystems, req.DocumentTypes)
		s.respond(w, out, err)
	default:
		q := tender.Query{
			Region:       req.Region,
			ExactDate:    req.ExactDate,
			Subsystem:    req.Subsystem,
			DocumentType: req.DocumentType,
		}
		out, err := s.searcher.SearchEnhanced(ctx, q, req.IncludeAttachments)
		s.respond(w, out, err)
	}
}

func (r searchRequest) validate() error {
	if r.RegistryNumber != "" {
		if r.AllSubsystems {
			return errors.New("registry_number cannot be combined with all_subsystems")
		}
		return nil
	}
	if strings.TrimSpace(r.Region) == "" || strings.TrimSpace(r.ExactDate) == "" {
		return errors.New("region and exact_date required")
	}
	for _, code := range r.Subsystems {
		if !tender.IsSubsystem(code) {
			return errors.New("unknown subsystem " + code)
		}
	}
	return nil
}

func (s *Server) respond(w http.ResponseWriter, payload any, err error) {
	if err == nil {
		s.writeJSON(w, http.StatusOK, payload)
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("search failed", zap.Error(err))
	}
	s.writeError(w, status, err.Error())
}

func statusFor(err error) int {
	var qerr *tender.QueryError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// nginx's "client closed request"
		return 499
	case tender.Kind(err) == tender.KindInvalidInput:
		return http.StatusBadRequest
	case errors.As(err, &qerr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
