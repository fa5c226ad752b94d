package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/internal/observability"
	"github.com/hrygo/whenparse/plugin/temporal"
	"github.com/hrygo/whenparse/plugin/temporal/render"
)

// ExtractOptions overrides the server defaults for one request. Unset
// fields keep the default.
type ExtractOptions struct {
	Direction         *string `json:"direction,omitempty"`
	InferDatetimes    *bool   `json:"infer_datetimes,omitempty"`
	Now               string  `json:"now,omitempty"`
	Timezone          *string `json:"timezone,omitempty"`
	ReturnMatchedText *bool   `json:"return_matched_text,omitempty"`
	FuzzyNames        *bool   `json:"fuzzy_names,omitempty"`
	Markdown          *bool   `json:"markdown,omitempty"`
	Filter            string  `json:"filter,omitempty"`
}

// ExtractRequest is the body of POST /api/v1/extract.
type ExtractRequest struct {
	Text string `json:"text"`
	ExtractOptions
}

// ExtractResponse is the response of POST /api/v1/extract.
type ExtractResponse struct {
	RequestID string          `json:"request_id"`
	Results   []render.Result `json:"results"`
}

// BatchRequest is the body of POST /api/v1/extract/batch.
type BatchRequest struct {
	Texts []string `json:"texts"`
	ExtractOptions
}

// BatchResponse is the response of POST /api/v1/extract/batch. Results[i]
// belongs to Texts[i].
type BatchResponse struct {
	RequestID string            `json:"request_id"`
	Results   [][]render.Result `json:"results"`
}

// ErrorResponse is the body of every 4xx answer produced by a handler.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Extract extracts temporal expressions from one text.
// POST /api/v1/extract
func (s *APIV1Service) Extract(c echo.Context) error {
	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, terrors.ErrCodeInvalidConfig, "malformed request body")
	}
	if len(req.Text) > s.Profile.MaxTextBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Code: "TEXT_TOO_LARGE", Message: "text exceeds the size limit"})
	}
	cfg, err := s.config(req.ExtractOptions)
	if err != nil {
		return configError(c, err)
	}

	ctx, rc := s.requestContext(c, "extract")
	results, err := s.Extractor.Extract(ctx, req.Text, cfg)
	if err != nil {
		return configError(c, err)
	}
	if results == nil {
		results = []render.Result{}
	}
	return c.JSON(http.StatusOK, ExtractResponse{RequestID: rc.RequestID, Results: results})
}

// ExtractBatch extracts from several independent texts.
// POST /api/v1/extract/batch
func (s *APIV1Service) ExtractBatch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, terrors.ErrCodeInvalidConfig, "malformed request body")
	}
	if len(req.Texts) > maxBatchTexts {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Code: "TOO_MANY_TEXTS", Message: "batch exceeds the text count limit"})
	}
	for _, text := range req.Texts {
		if len(text) > s.Profile.MaxTextBytes {
			return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Code: "TEXT_TOO_LARGE", Message: "text exceeds the size limit"})
		}
	}
	cfg, err := s.config(req.ExtractOptions)
	if err != nil {
		return configError(c, err)
	}

	ctx, rc := s.requestContext(c, "extract_batch")
	results, err := s.Extractor.ExtractBatch(ctx, req.Texts, cfg, s.Profile.BatchConcurrency)
	if err != nil {
		return configError(c, err)
	}
	for i := range results {
		if results[i] == nil {
			results[i] = []render.Result{}
		}
	}
	return c.JSON(http.StatusOK, BatchResponse{RequestID: rc.RequestID, Results: results})
}

// config applies request options on top of the server defaults.
func (s *APIV1Service) config(o ExtractOptions) (temporal.Config, error) {
	cfg := s.Defaults
	if o.Direction != nil {
		dir, err := temporal.ParseDirection(*o.Direction)
		if err != nil {
			return cfg, err
		}
		cfg.Direction = dir
	}
	if o.InferDatetimes != nil {
		cfg.InferDatetimes = *o.InferDatetimes
	}
	if o.Timezone != nil {
		cfg.Timezone = *o.Timezone
	}
	if o.ReturnMatchedText != nil {
		cfg.ReturnMatchedText = *o.ReturnMatchedText
	}
	if o.FuzzyNames != nil {
		cfg.FuzzyNames = *o.FuzzyNames
	}
	if o.Markdown != nil {
		cfg.Markdown = *o.Markdown
	}
	cfg.Filter = o.Filter
	if o.Now != "" {
		ref, err := cfg.Reference()
		if err != nil {
			return cfg, err
		}
		now, err := temporal.ParseReference(o.Now, ref.Location())
		if err != nil {
			return cfg, err
		}
		cfg.Now = now
	}
	return cfg, nil
}

// requestContext attaches a request context carrying the id set by the
// RequestID middleware.
func (s *APIV1Service) requestContext(c echo.Context, operation string) (context.Context, *observability.RequestContext) {
	id := c.Response().Header().Get(echo.HeaderXRequestID)
	rc := observability.NewRequestContextWithID(slog.Default(), id, operation)
	return observability.WithRequestContext(c.Request().Context(), rc), rc
}

func badRequest(c echo.Context, code terrors.ErrorCode, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Code: string(code), Message: msg})
}

// configError maps an extraction error to a response. Configuration errors
// are the caller's fault; anything else, such as a cancelled request, is not.
func configError(c echo.Context, err error) error {
	var te *terrors.TemporalError
	if errors.As(err, &te) {
		return badRequest(c, te.Code, te.Error())
	}
	slog.Error("extraction failed", slog.String("error", err.Error()))
	return echo.NewHTTPError(http.StatusServiceUnavailable, "extraction interrupted")
}
