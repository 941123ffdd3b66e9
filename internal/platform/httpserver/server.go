package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	allocationservice "tokenvault/contexts/token-distribution/allocation-service"
	allocationerrors "tokenvault/contexts/token-distribution/allocation-service/domain/errors"
	allocationhttp "tokenvault/contexts/token-distribution/allocation-service/transport/http"
	vestingservice "tokenvault/contexts/token-distribution/vesting-service"
	vestingerrors "tokenvault/contexts/token-distribution/vesting-service/domain/errors"
	vestinghttp "tokenvault/contexts/token-distribution/vesting-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "tokenvault/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	allocation allocationservice.Module
	vesting    vestingservice.Module
}

func New(
	allocation allocationservice.Module,
	vesting vestingservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		allocation: allocation,
		vesting:    vesting,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/rounds/{round_id}/finalize", s.handleFinalizeRound)
	s.mux.HandleFunc("GET /v1/vaults/{vault_id}/commitment", s.handleGetCommitment)
	s.mux.HandleFunc("GET /v1/vaults/{vault_id}/proofs/{address}", s.handleGetProof)
	s.mux.HandleFunc("POST /v1/vaults/{vault_id}/verify", s.handleVerifyProof)

	s.mux.HandleFunc("POST /v1/rounds/{round_id}/schedule", s.handleCreateSchedule)
	s.mux.HandleFunc("GET /v1/rounds/{round_id}/schedule", s.handleGetScheduleByRound)
	s.mux.HandleFunc("GET /v1/rounds/{round_id}/status", s.handleGetRoundStatus)
	s.mux.HandleFunc("GET /v1/schedules/{schedule_id}", s.handleGetSchedule)
	s.mux.HandleFunc("POST /v1/schedules/{schedule_id}/pause", s.handlePauseSchedule)
	s.mux.HandleFunc("POST /v1/schedules/{schedule_id}/resume", s.handleResumeSchedule)
	s.mux.HandleFunc("GET /v1/schedules/{schedule_id}/allocations/{address}", s.handleGetAllocationStatus)
	s.mux.HandleFunc("POST /v1/schedules/{schedule_id}/claims", s.handleSubmitClaim)
	s.mux.HandleFunc("GET /v1/claims/{claim_id}", s.handleGetClaim)
	s.mux.HandleFunc("GET /v1/allocations/{allocation_id}/claims", s.handleListClaims)
}

func (s *Server) handleFinalizeRound(w http.ResponseWriter, r *http.Request) {
	var req allocationhttp.FinalizeRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAllocationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.allocation.Handler.FinalizeRoundHandler(r.Context(), r.PathValue("round_id"), req)
	if err != nil {
		writeAllocationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetCommitment(w http.ResponseWriter, r *http.Request) {
	resp, err := s.allocation.Handler.GetCommitmentHandler(r.Context(), r.PathValue("vault_id"))
	if err != nil {
		writeAllocationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProof(w http.ResponseWriter, r *http.Request) {
	resp, err := s.allocation.Handler.GetProofHandler(
		r.Context(),
		r.PathValue("vault_id"),
		r.PathValue("address"),
	)
	if err != nil {
		writeAllocationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyProof(w http.ResponseWriter, r *http.Request) {
	var req allocationhttp.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAllocationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.allocation.Handler.VerifyHandler(r.Context(), r.PathValue("vault_id"), req)
	if err != nil {
		writeAllocationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req vestinghttp.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVestingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.vesting.Handler.CreateScheduleHandler(r.Context(), r.PathValue("round_id"), req)
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetScheduleByRound(w http.ResponseWriter, r *http.Request) {
	resp, err := s.vesting.Handler.GetScheduleByRoundHandler(r.Context(), r.PathValue("round_id"))
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRoundStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.vesting.Handler.GetRoundStatusHandler(r.Context(), r.PathValue("round_id"))
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	resp, err := s.vesting.Handler.GetScheduleHandler(r.Context(), r.PathValue("schedule_id"))
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePauseSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.vesting.Handler.PauseScheduleHandler(r.Context(), r.PathValue("schedule_id")); err != nil {
		writeVestingDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResumeSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.vesting.Handler.ResumeScheduleHandler(r.Context(), r.PathValue("schedule_id")); err != nil {
		writeVestingDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAllocationStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.vesting.Handler.GetAllocationStatusHandler(
		r.Context(),
		r.PathValue("schedule_id"),
		r.PathValue("address"),
	)
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	var req vestinghttp.SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVestingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.vesting.Handler.SubmitClaimHandler(r.Context(), r.PathValue("schedule_id"), req)
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	resp, err := s.vesting.Handler.GetClaimHandler(r.Context(), r.PathValue("claim_id"))
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	resp, err := s.vesting.Handler.ListClaimsHandler(r.Context(), r.PathValue("allocation_id"))
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAllocationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, allocationerrors.ErrCommitmentNotFound):
		writeAllocationError(w, http.StatusNotFound, "commitment_not_found", err.Error())
	case errors.Is(err, allocationerrors.ErrProofNotFound):
		writeAllocationError(w, http.StatusNotFound, "proof_not_found", err.Error())
	case errors.Is(err, allocationerrors.ErrCommitmentExists):
		writeAllocationError(w, http.StatusConflict, "commitment_exists", err.Error())
	case errors.Is(err, allocationerrors.ErrZeroTotalRaised),
		errors.Is(err, allocationerrors.ErrNoConfirmedContributions):
		writeAllocationError(w, http.StatusUnprocessableEntity, "nothing_to_allocate", err.Error())
	case errors.Is(err, allocationerrors.ErrInvalidFinalizeInput),
		errors.Is(err, allocationerrors.ErrInvalidVerifyInput):
		writeAllocationError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeAllocationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVestingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vestingerrors.ErrScheduleNotFound),
		errors.Is(err, vestingerrors.ErrAllocationNotFound),
		errors.Is(err, vestingerrors.ErrClaimNotFound),
		errors.Is(err, vestingerrors.ErrRoundNotFound):
		writeVestingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, vestingerrors.ErrScheduleExists):
		writeVestingError(w, http.StatusConflict, "schedule_exists", err.Error())
	case errors.Is(err, vestingerrors.ErrDuplicateClaim):
		writeVestingError(w, http.StatusConflict, "duplicate_claim", err.Error())
	case errors.Is(err, vestingerrors.ErrInvalidStateTransition):
		writeVestingError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, vestingerrors.ErrScheduleNotConfirmed),
		errors.Is(err, vestingerrors.ErrSchedulePaused):
		writeVestingError(w, http.StatusConflict, "schedule_not_claimable", err.Error())
	case errors.Is(err, vestingerrors.ErrAmountExceedsClaimable),
		errors.Is(err, vestingerrors.ErrAllocationOverdrawn):
		writeVestingError(w, http.StatusUnprocessableEntity, "amount_exceeds_claimable", err.Error())
	case errors.Is(err, vestingerrors.ErrEmptyCommitment):
		writeVestingError(w, http.StatusUnprocessableEntity, "empty_commitment", err.Error())
	case errors.Is(err, vestingerrors.ErrInvalidScheduleInput),
		errors.Is(err, vestingerrors.ErrInvalidClaimAmount):
		writeVestingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeVestingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAllocationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, allocationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeVestingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, vestinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
