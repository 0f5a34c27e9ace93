package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

// maxQuestionBody caps how much of an /ai/ask body is buffered.
const maxQuestionBody = 1 << 20

// questionSource looks for the question in one place of the request.  It
// returns "" when the place is empty or holds a non-string value.
type questionSource func(c echo.Context, raw []byte) string

// questionSources are tried in order; the first non-empty answer wins.
var questionSources = []questionSource{
	fromBoundBody,
	fromForm,
	fromQuery,
	fromRawJSON,
}

type questionReq struct {
	Question string `json:"question" form:"question" xml:"question"`
}

// ExtractQuestion finds the question in the body (any bindable content
// type), the form, the query string or a raw JSON body.  The body is read
// once and replayed to every source.
func ExtractQuestion(c echo.Context) string {
	req := c.Request()
	var raw []byte
	if req.Body != nil {
		raw, _ = io.ReadAll(io.LimitReader(req.Body, maxQuestionBody))
		_ = req.Body.Close()
	}

	for _, source := range questionSources {
		req.Body = io.NopCloser(bytes.NewReader(raw))
		if q := strings.TrimSpace(source(c, raw)); q != "" {
			return q
		}
	}
	return ""
}

// fromBoundBody decodes the body by content type.  A non-string question
// makes the JSON decoder fail, which counts as absent.
func fromBoundBody(c echo.Context, _ []byte) string {
	var req questionReq
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return ""
	}
	return req.Question
}

func fromForm(c echo.Context, _ []byte) string {
	return c.FormValue("question")
}

func fromQuery(c echo.Context, _ []byte) string {
	return c.QueryParam("question")
}

// fromRawJSON parses the body as a JSON object whatever the declared
// content type.
func fromRawJSON(_ echo.Context, raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	q, _ := body["question"].(string)
	return q
}
