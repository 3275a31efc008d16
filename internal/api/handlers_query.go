// handlers_query.go - Filtered dashboard queries and exports
package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/claims-dashboard/backend/internal/analytics"
	"github.com/claims-dashboard/backend/internal/exporter"
	"github.com/claims-dashboard/backend/internal/metrics"
	"github.com/claims-dashboard/backend/internal/models"
)

const (
	defaultPageSize = 100
	mimeMsgpack     = "application/msgpack"
	mimeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportSettings are the defaults applied to exports.
type ExportSettings struct {
	DefaultName string
	SheetName   string
}

// QueryHandlerImpl implements the QueryHandler interface
type QueryHandlerImpl struct {
	sessions SessionStore
	metrics  *metrics.Collectors
	export   ExportSettings
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(sessions SessionStore, m *metrics.Collectors, export ExportSettings) QueryHandler {
	return &QueryHandlerImpl{sessions: sessions, metrics: m, export: export}
}

// RowsPage is one page of filtered rows as text cells.
type RowsPage struct {
	Columns  []string   `json:"columns" msgpack:"columns"`
	Rows     [][]string `json:"rows" msgpack:"rows"`
	Total    int        `json:"total" msgpack:"total"`
	Page     int        `json:"page" msgpack:"page"`
	PageSize int        `json:"pageSize" msgpack:"pageSize"`
}

// DenialsResponse backs the denial reasons page: the top reasons next to a
// page of the filtered rows.
type DenialsResponse struct {
	Totals           models.Totals   `json:"totals"`
	TopDenialReasons []models.Bucket `json:"topDenialReasons"`
	Rows             RowsPage        `json:"rows"`
}

// bindFilter binds and validates the filter parameters of c into q.
func bindFilter(c echo.Context, q interface{}) error {
	if err := c.Bind(q); err != nil {
		return NewBadRequestError("invalid query parameters", err)
	}
	return c.Validate(q)
}

// sessionView resolves the :id parameter. The caller must call release
// when it no longer uses the view.
func (h *QueryHandlerImpl) sessionView(c echo.Context) (analytics.View, func(), error) {
	return h.sessions.Acquire(c.Param("id"))
}

func filterSelection(c echo.Context) (models.FilterSelection, error) {
	var q FilterQuery
	if err := bindFilter(c, &q); err != nil {
		return models.FilterSelection{}, err
	}
	return q.Selection()
}

// HandleOptions returns the selectable regions, specialties and date span
func (h *QueryHandlerImpl) HandleOptions(c echo.Context) error {
	view, release, err := h.sessionView(c)
	if err != nil {
		return err
	}
	defer release()
	h.metrics.ObserveQuery("options")
	return c.JSON(http.StatusOK, analytics.Options(view.Dataset()))
}

// HandleSummary returns the dashboard aggregates for the filter in the query
func (h *QueryHandlerImpl) HandleSummary(c echo.Context) error {
	sel, err := filterSelection(c)
	if err != nil {
		return err
	}
	view, release, err := h.sessionView(c)
	if err != nil {
		return err
	}
	defer release()
	summary, err := view.Summary(c.Request().Context(), sel)
	if err != nil {
		return err
	}
	h.metrics.ObserveQuery("summary")
	return c.JSON(http.StatusOK, summary)
}

// HandleDenials returns the top denial reasons and a page of the rows for
// the filter in the query
func (h *QueryHandlerImpl) HandleDenials(c echo.Context) error {
	var pq PageQuery
	if err := bindFilter(c, &pq); err != nil {
		return err
	}
	sel, err := filterSelection(c)
	if err != nil {
		return err
	}
	view, release, err := h.sessionView(c)
	if err != nil {
		return err
	}
	defer release()

	ctx := c.Request().Context()
	summary, err := view.Summary(ctx, sel)
	if err != nil {
		return err
	}
	filtered, err := view.Filter(ctx, sel)
	if err != nil {
		return err
	}
	h.metrics.ObserveQuery("denials")
	return c.JSON(http.StatusOK, DenialsResponse{
		Totals:           summary.Totals,
		TopDenialReasons: summary.TopDenialReasons,
		Rows:             buildPage(filtered, pq.Page, pq.PageSize),
	})
}

// HandleRows returns a page of filtered rows. Clients sending
// Accept: application/msgpack get a msgpack body.
func (h *QueryHandlerImpl) HandleRows(c echo.Context) error {
	var pq PageQuery
	if err := bindFilter(c, &pq); err != nil {
		return err
	}
	sel, err := filterSelection(c)
	if err != nil {
		return err
	}
	view, release, err := h.sessionView(c)
	if err != nil {
		return err
	}
	defer release()
	filtered, err := view.Filter(c.Request().Context(), sel)
	if err != nil {
		return err
	}
	h.metrics.ObserveQuery("rows")

	page := buildPage(filtered, pq.Page, pq.PageSize)
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack) {
		data, err := msgpack.Marshal(page)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, mimeMsgpack, data)
	}
	return c.JSON(http.StatusOK, page)
}

func buildPage(ds *models.Dataset, page, pageSize int) RowsPage {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	out := RowsPage{
		Columns:  ds.Columns,
		Rows:     [][]string{},
		Total:    ds.Len(),
		Page:     page,
		PageSize: pageSize,
	}
	start := (page - 1) * pageSize
	if start >= ds.Len() {
		return out
	}
	end := start + pageSize
	if end > ds.Len() {
		end = ds.Len()
	}
	for i := start; i < end; i++ {
		out.Rows = append(out.Rows, ds.Row(i))
	}
	return out
}

// HandleExport downloads the filtered rows as CSV or XLSX
func (h *QueryHandlerImpl) HandleExport(c echo.Context) error {
	var q ExportQuery
	if err := bindFilter(c, &q); err != nil {
		return err
	}
	sel, err := q.Selection()
	if err != nil {
		return err
	}
	view, release, err := h.sessionView(c)
	if err != nil {
		return err
	}
	defer release()
	filtered, err := view.Filter(c.Request().Context(), sel)
	if err != nil {
		return err
	}

	name := q.Name
	if name == "" {
		name = h.export.DefaultName
	}
	csvName, xlsxName := exporter.FileNames(name)

	var buf bytes.Buffer
	switch q.Format {
	case "xlsx":
		if err := exporter.WriteXLSX(&buf, filtered, h.export.SheetName); err != nil {
			return NewInternalError("failed to build workbook", err)
		}
		setAttachment(c, xlsxName)
		h.metrics.ObserveExport(q.Format)
		return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
	default:
		if err := exporter.WriteCSV(&buf, filtered); err != nil {
			return NewInternalError("failed to build csv", err)
		}
		setAttachment(c, csvName)
		h.metrics.ObserveExport(q.Format)
		return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}
