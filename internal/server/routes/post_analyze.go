package routes

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/litgraph/backend/internal/server/middleware"
	"github.com/litgraph/backend/pkg/graph"
	"github.com/litgraph/backend/pkg/pipeline"

	"github.com/labstack/echo/v4"
)

type analyzeBody struct {
	// BookID may arrive as a JSON string or number.
	BookID    json.RawMessage `json:"book_id"`
	// PartIndex is clamped into range by the pipeline, never rejected.
	PartIndex *int            `json:"part_index"`
}

type analyzeResponse struct {
	Result *graph.Graph `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// AnalyzeHandler extracts the character graph of a book.
func AnalyzeHandler(c echo.Context) error {
	data := new(analyzeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Error: "Invalid request body",
		})
	}

	cc := c.(*middleware.AppContext)
	out := cc.App.Pipeline.AnalyzeBook(c.Request().Context(), pipeline.Request{
		BookID:    bookIDText(data.BookID),
		PartIndex: data.PartIndex,
		RequestID: cc.RequestID,
	})

	if out.Err != nil {
		return c.JSON(statusCode(out.Status), analyzeResponse{
			Error: out.Err.Error(),
		})
	}

	return c.JSON(http.StatusOK, analyzeResponse{
		Result: out.Result,
	})
}

// bookIDText turns a string or number into its text form. Missing, null and
// empty values become "", anything else keeps its literal JSON text so the
// pipeline rejects it as a non-integer.
func bookIDText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func statusCode(s pipeline.Status) int {
	switch s {
	case pipeline.StatusOK:
		return http.StatusOK
	case pipeline.StatusBadInput:
		return http.StatusBadRequest
	case pipeline.StatusNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
