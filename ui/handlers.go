package ui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"godea/adapters/excel"
	"godea/app"
	"godea/domain/dataset"
	apperrors "godea/internal/errors"
)

// previewRows is how many data rows /api/columns echoes back
const previewRows = 10

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleColumns returns headers, a preview and per-column numeric hints of an upload
func (s *Server) handleColumns(c *gin.Context) {
	raw, err := s.readUpload(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	preview := raw.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	c.JSON(http.StatusOK, gin.H{
		"source":     raw.Source,
		"headers":    raw.Headers,
		"dmu_column": raw.Headers[0],
		"dmus":       raw.NumRows(),
		"columns":    s.analysis.Columns(raw),
		"preview":    preview,
	})
}

// handleAnalysis runs a full analysis on an upload and returns JSON or an xlsx report
func (s *Server) handleAnalysis(c *gin.Context) {
	raw, err := s.readUpload(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	analysis, err := s.analysis.Run(c.Request.Context(), app.AnalysisRequest{
		Table:   raw,
		Inputs:  formList(c, "inputs"),
		Outputs: formList(c, "outputs"),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	format := c.DefaultPostForm("format", c.DefaultQuery("format", "json"))
	if strings.EqualFold(format, "xlsx") {
		s.writeReport(c, analysis)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) writeReport(c *gin.Context, analysis *app.Analysis) {
	name := strings.TrimSuffix(analysis.Source, ".csv")
	name = strings.TrimSuffix(name, ".xlsx")
	if name == "" {
		name = "dea"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-dea-report.xlsx"`, name))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)

	err := excel.WriteReport(c.Writer, excel.Report{
		Efficiency: analysis.Efficiency,
		Slack:      analysis.Slack,
		Summary:    &analysis.Summary,
	})
	if err != nil {
		// headers are gone; all that is left is to log
		s.logger.Error("failed to stream report for %s: %v", analysis.ID, err)
	}
}

// readUpload parses the multipart "file" field into a raw table
func (s *Server) readUpload(c *gin.Context) (*dataset.RawTable, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return nil, apperrors.PayloadTooLarge(int(s.maxUpload >> 20))
		}
		return nil, apperrors.InvalidInput("multipart field \"file\" is required")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open upload")
	}
	defer f.Close()

	return s.analysis.ReadTable(f, fh.Filename)
}

// formList accepts repeated fields and comma separated values
func formList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.PostFormArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.GetCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		s.logger.Info("%s %s rejected (%s): %v", c.Request.Method, c.Request.URL.Path, code, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}
