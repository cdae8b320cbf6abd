package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dev Tools Handlers
// ============================================================

// maxDevBody caps dev tools request bodies.
const maxDevBody = 8 << 20

func devEntitiesHandler(svc *service.DevToolsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dev/entities")
		defer span.End()

		var req domain.DevEntitiesRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDevBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.SeedEntities(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func devJournalHandler(svc *service.DevToolsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dev/journal")
		defer span.End()

		var rows []domain.TransactionRecord
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDevBody)).Decode(&rows); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.InsertJournal(ctx, rows)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func devMiningHandler(svc *service.DevToolsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dev/mining")
		defer span.End()

		var rows []domain.MiningRecord
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDevBody)).Decode(&rows); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.InsertMining(ctx, rows)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func devGenerateJournalHandler(svc *service.DevToolsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dev/generate-journal")
		defer span.End()

		var req domain.DevGenerateJournalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.GenerateJournal(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}
