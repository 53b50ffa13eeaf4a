package http

import (
	"net/http"
	"strings"

	"github.com/wdpkr/zillowdata/internal/middleware"
	"github.com/wdpkr/zillowdata/internal/services"
	"github.com/wdpkr/zillowdata/internal/views"
)

var requestValidator = middleware.NewValidator()

// parseViewParams reads the view controls from the query string. Parse
// failures are reported together; range checks happen in the pipeline.
func parseViewParams(r *http.Request) (views.Params, error) {
	q := middleware.NewQueryParamValidator(r.URL.Query())

	params := views.Params{
		Year:      q.Int("year"),
		Bins:      q.Int("bins"),
		Amplitude: q.Float("amplitude"),
		State:     strings.ToUpper(q.String("state")),
		Scale:     views.Scale(q.Enum("scale", []string{string(views.ScaleLinear), string(views.ScaleLog)}, "")),
		Level:     views.Level(q.Enum("level", []string{string(views.LevelState), string(views.LevelMetro), string(views.LevelZip)}, "")),
	}
	for _, s := range q.List("states") {
		params.States = append(params.States, strings.ToUpper(s))
	}

	if err := q.Err(); err != nil {
		return views.Params{}, err
	}
	return params, nil
}

// parseChartSize reads width and height for PNG endpoints
func parseChartSize(r *http.Request) (services.ChartSize, error) {
	q := middleware.NewQueryParamValidator(r.URL.Query())
	size := services.ChartSize{Width: q.Int("width"), Height: q.Int("height")}
	if err := q.Err(); err != nil {
		return services.ChartSize{}, err
	}
	if err := requestValidator.ValidateStruct(size); err != nil {
		return services.ChartSize{}, err
	}
	return size, nil
}
