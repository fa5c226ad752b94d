package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/whenparse/internal/observability"
	"github.com/hrygo/whenparse/internal/profile"
	"github.com/hrygo/whenparse/plugin/temporal"
)

// maxBatchTexts caps the number of texts in one batch request.
const maxBatchTexts = 256

type APIV1Service struct {
	Profile   *profile.Profile
	Extractor *temporal.Extractor
	Metrics   *observability.Metrics

	// Defaults is the configuration requests start from before applying
	// their own options.
	Defaults temporal.Config
}

func NewAPIV1Service(profile *profile.Profile, extractor *temporal.Extractor, metrics *observability.Metrics) (*APIV1Service, error) {
	defaults, err := temporal.ConfigFromProfile(profile)
	if err != nil {
		return nil, err
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &APIV1Service{
		Profile:   profile,
		Extractor: extractor,
		Metrics:   metrics,
		Defaults:  defaults,
	}, nil
}

// RegisterRoutes registers the extraction API with the given Echo instance.
// mw runs before every API route.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo, mw ...echo.MiddlewareFunc) {
	apiGroup := echoServer.Group("/api/v1", mw...)
	apiGroup.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	// JSON escaping can grow text up to six times; the rest is framing.
	single := s.Profile.MaxTextBytes*6 + 16<<10
	apiGroup.POST("/extract", s.Extract, middleware.BodyLimit(strconv.Itoa(single)+"B"))
	apiGroup.POST("/extract/batch", s.ExtractBatch, middleware.BodyLimit(strconv.Itoa(single*maxBatchTexts)+"B"))
	apiGroup.GET("/metrics", s.GetMetricsOverview)
}
