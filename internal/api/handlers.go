package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/common/validation"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/records"
	"credit-risk-workers/internal/scoring"
)

const maxBodyBytes = 1 << 20

type ScoreRequest struct {
	Strategy   string          `json:"strategy,omitempty"`
	Applicant  json.RawMessage `json:"applicant,omitempty"`
	Persist    bool            `json:"persist,omitempty"`
	Collection string          `json:"collection,omitempty"`
}

type ScoreResponse struct {
	scoring.Result
	Record           *models.ApplicantRecord `json:"record,omitempty"`
	PersistenceError *ErrorBody              `json:"persistenceError,omitempty"`
}

type ListResponse struct {
	Collection string                   `json:"collection"`
	Count      int                      `json:"count"`
	Records    []models.ApplicantRecord `json:"records"`
}

type ErrorBody struct {
	Code             string                       `json:"code"`
	Message          string                       `json:"message"`
	Details          string                       `json:"details,omitempty"`
	ValidationErrors []validation.ValidationError `json:"validationErrors,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"version":   s.config.Version,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(s.checks))

	for _, c := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := c.Check(ctx)
		cancel()
		if err != nil {
			status = http.StatusServiceUnavailable
			results[c.Name] = err.Error()
			continue
		}
		results[c.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": results})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	ids := s.scorer.Strategies()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": names,
		"default":    s.config.DefaultStrategy,
	})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.obs.StartSpan(r.Context(), "api.score")
	defer span.End()

	var req ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{
			Code:    "INVALID_REQUEST",
			Message: "request body is not a valid score request",
			Details: err.Error(),
		})
		return
	}

	attrs, vr, err := validation.DecodeApplicantJSON(req.Applicant)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{
			Code:    "INVALID_REQUEST",
			Message: "applicant must be a JSON object",
			Details: err.Error(),
		})
		return
	}
	if !vr.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorBody{
			Code:             string(apperrors.ErrCodeApplicantValidationFailed),
			Message:          "applicant attributes failed validation",
			ValidationErrors: vr.Errors,
		})
		return
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.config.DefaultStrategy
	}
	span.SetAttributes(attribute.String("strategy", strategy))

	result, err := s.scorer.Score(strategy, attrs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	metrics.ApplicantsScored.WithLabelValues(string(result.Strategy), string(result.Decision)).Inc()
	metrics.ApprovalProbability.WithLabelValues(string(result.Strategy)).Observe(result.Probability)
	s.obs.RecordScore(ctx, string(result.Strategy), string(result.Decision))

	resp := ScoreResponse{Result: result}
	if !req.Persist {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	rec := records.Stamp(scoring.AssembleRecord(attrs, result), s.now())
	collection := req.Collection
	if collection == "" {
		collection = s.config.Collection
	}

	if err := s.append(ctx, collection, rec); err != nil {
		std := apperrors.Normalize(err)
		s.logger.Error("scored applicant not persisted", map[string]interface{}{
			"collection": collection,
			"recordId":   rec.RecordID,
			"errorCode":  string(std.Code),
		})
		resp.PersistenceError = &ErrorBody{Code: string(std.Code), Message: std.Message, Details: std.Details}
		writeJSON(w, http.StatusMultiStatus, resp)
		return
	}

	resp.Record = &rec
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) append(ctx context.Context, collection string, rec models.ApplicantRecord) error {
	if s.store == nil {
		return apperrors.NewPersistenceFailureError("append", errors.New("no record store configured"))
	}
	return s.store.Append(ctx, collection, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if collection == "" {
		collection = s.config.Collection
	}

	if s.store == nil {
		s.writeError(w, apperrors.NewRecordListFailedError(collection, errors.New("no record store configured")))
		return
	}

	list, err := s.store.List(r.Context(), collection)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.ApplicantRecord{}
	}

	writeJSON(w, http.StatusOK, ListResponse{Collection: collection, Count: len(list), Records: list})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	std := apperrors.Normalize(err)
	status := statusFor(std.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"errorCode": string(std.Code),
			"details":   std.Details,
		})
	}
	writeJSON(w, status, ErrorBody{Code: string(std.Code), Message: std.Message, Details: std.Details})
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeUnknownStrategy:
		return http.StatusBadRequest
	case apperrors.ErrCodeApplicantValidationFailed:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeModelArtifactMissing,
		apperrors.ErrCodePersistenceFailure,
		apperrors.ErrCodeDatabaseConnectionFailed,
		apperrors.ErrCodeRecordListFailed:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
