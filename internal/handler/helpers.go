package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/ai"
	"github.com/xxxsen/unmask/internal/middleware"
	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/errcode"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("operator", middleware.Operator(c)),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, appErr.ErrNoMessages):
		response.Error(c, errcode.ErrNoMessages, "no messages found")
	case errors.Is(err, appErr.ErrImportEmpty), errors.Is(err, appErr.ErrImportHeader):
		response.Error(c, errcode.ErrImportFailed, err.Error())
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai provider unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

// writeReport answers a pipeline run. A run that lost some batches still
// returns its report, flagged as partial.
func writeReport(c *gin.Context, report *model.RunReport, err error) {
	if err == nil {
		response.Success(c, report)
		return
	}
	if report != nil && report.Failed() {
		logutil.GetLogger(c.Request.Context()).Warn("pipeline run partial",
			zap.String("run_id", report.RunID),
			zap.String("stage", report.Stage),
			zap.Error(err),
		)
		response.Partial(c, report)
		return
	}
	handleError(c, err)
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, appErr.ErrInvalid)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
