package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/pkg/logger"
)

// maxBodyBytes bounds a submission body.
const maxBodyBytes = 1 << 20

// SubmitHandler handles survey submissions.
type SubmitHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps Dependencies, l logger.Logger) *SubmitHandler {
	return &SubmitHandler{deps: deps, logger: l}
}

// HandleSubmit handles POST /api/submit requests.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			err = wrapKind(op, ErrBodyTooBig, err)
		} else {
			err = wrapKind(op, ErrBadRequest, err)
		}
		h.deps.Reject(ctx, err)
		writeMessage(w, http.StatusBadRequest, msgMissingData)
		return
	}

	sub, err := model.ParseSubmission(body)
	if err != nil {
		h.deps.Reject(ctx, wrapKind(op, ErrBadRequest, err))
		writeMessage(w, http.StatusBadRequest, msgMissingData)
		return
	}

	if err := h.deps.Submit(ctx, sub); err != nil {
		h.logger.Error(ctx, "submit failed",
			logger.String("request_id", RequestIDFrom(ctx)),
			logger.Error(wrapKind(op, ErrStoreFailed, err)),
		)
		writeMessage(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	writeMessage(w, http.StatusOK, msgOK)
}
