package analytics

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"

	"github.com/claims-dashboard/backend/internal/models"
)

// maxAmountDigits is the DECIMAL width amounts are stored with.
const maxAmountDigits = 38

// ErrAmountPrecision is returned when a dataset's amounts need more digits
// than a DuckDB DECIMAL holds.
var ErrAmountPrecision = errors.New("amounts exceed 38 significant digits")

// DuckView answers queries from a session-scoped DuckDB file. The canonical
// dataset stays in memory; DuckDB returns row ids for filters and computes
// the grouped aggregates.
type DuckView struct {
	db     *sql.DB
	dbPath string
	ds     *models.Dataset
	// scale is the number of fractional digits of the amount columns.
	scale int32

	// querySem bounds concurrent queries against one database.
	querySem  chan struct{}
	closeOnce sync.Once
}

// NewDuckView creates the database file under tempDir and loads ds into it.
func NewDuckView(tempDir, id string, ds *models.Dataset) (*DuckView, error) {
	scale, err := amountScale(ds)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(tempDir, fmt.Sprintf("claims_%s.duckdb", id))
	// A stale file from a previous run would make CREATE TABLE fail.
	_ = os.Remove(dbPath)

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	// Amounts arrive as text and are cast to DECIMAL once loaded.
	_, err = db.Exec(`
		CREATE TABLE claims_raw (
			id        INTEGER NOT NULL,
			has_date  BOOLEAN NOT NULL,
			claim_ymd INTEGER NOT NULL,
			claim_ym  INTEGER NOT NULL,
			region    VARCHAR NOT NULL,
			specialty VARCHAR NOT NULL,
			status    VARCHAR NOT NULL,
			reason    VARCHAR NOT NULL,
			claimed   VARCHAR NOT NULL,
			approved  VARCHAR NOT NULL,
			denied    VARCHAR NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	v := &DuckView{
		db:       db,
		dbPath:   dbPath,
		ds:       ds,
		scale:    scale,
		querySem: make(chan struct{}, 3),
	}
	start := time.Now()
	if err := v.insert(ds); err != nil {
		v.Close()
		return nil, err
	}
	slog.Debug("duckdb view ready", "path", dbPath, "rows", ds.Len(), "elapsed", time.Since(start))
	return v, nil
}

// insert writes every claim through the native Appender API, then builds
// the claims table with typed amounts.
func (v *DuckView) insert(ds *models.Dataset) error {
	if err := v.appendRaw(ds); err != nil {
		return err
	}
	amount := func(col string) string {
		return fmt.Sprintf("CAST(%s AS DECIMAL(%d, %d)) AS %s", col, maxAmountDigits, v.scale, col)
	}
	_, err := v.db.Exec(`
		CREATE TABLE claims AS
		SELECT id, has_date, claim_ymd, claim_ym, region, specialty, status, reason, ` +
		amount("claimed") + ", " + amount("approved") + ", " + amount("denied") + `
		FROM claims_raw ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to create claims table: %w", err)
	}
	if _, err := v.db.Exec("DROP TABLE claims_raw"); err != nil {
		return fmt.Errorf("failed to drop staging table: %w", err)
	}
	return nil
}

func (v *DuckView) appendRaw(ds *models.Dataset) error {
	ctx := context.Background()
	conn, err := v.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection type %T", driverConn)
		}
		appender, err := duckdb.NewAppenderFromConn(dConn, "", "claims_raw")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i := range ds.Claims {
			c := &ds.Claims[i]
			ymd, ym := dateKeys(c.ClaimDate)
			err := appender.AppendRow(
				int32(i),
				c.ClaimDate.Valid,
				ymd,
				ym,
				c.Region,
				c.ProviderSpecialty,
				c.ClaimStatus,
				reasonLabel(c.DenialReason),
				c.Claimed().String(),
				c.Approved().String(),
				c.Denied().String(),
			)
			if err != nil {
				return fmt.Errorf("append row %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}
	return nil
}

// dateKeys encodes a date as yyyymmdd and yyyymm integers. Missing dates
// encode as zero and are excluded through has_date.
func dateKeys(d models.ClaimDate) (int32, int32) {
	if !d.Valid {
		return 0, 0
	}
	y, m, day := d.Time.Date()
	ym := int32(y*100 + int(m))
	return ym*100 + int32(day), ym
}

// amountScale returns the fractional digits needed to store every amount of
// ds exactly. It fails when the largest column total would not fit in a
// DECIMAL(38, scale), so no sum over a subset can overflow.
func amountScale(ds *models.Dataset) (int32, error) {
	var (
		scale                     int32
		claimed, approved, denied decimal.Decimal
	)
	for i := range ds.Claims {
		c := &ds.Claims[i]
		for _, d := range [...]decimal.Decimal{c.Claimed(), c.Approved(), c.Denied()} {
			if exp := d.Exponent(); -exp > scale {
				scale = -exp
			}
		}
		claimed = claimed.Add(c.Claimed().Abs())
		approved = approved.Add(c.Approved().Abs())
		denied = denied.Add(c.Denied().Abs())
	}
	for _, total := range [...]decimal.Decimal{claimed, approved, denied} {
		if int32(len(total.Truncate(0).String()))+scale > maxAmountDigits {
			return 0, ErrAmountPrecision
		}
	}
	return scale, nil
}

func parseSum(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse sum %q: %w", s, err)
	}
	return d, nil
}

// buildWhereClause turns a selection into a predicate with ? placeholders.
func buildWhereClause(sel models.FilterSelection) (string, []interface{}) {
	conditions := []string{"TRUE"}
	var args []interface{}

	if len(sel.Regions) > 0 {
		conditions = append(conditions, "region IN ("+placeholders(len(sel.Regions))+")")
		for _, r := range sel.Regions {
			args = append(args, r)
		}
	}
	if len(sel.Specialties) > 0 {
		conditions = append(conditions, "specialty IN ("+placeholders(len(sel.Specialties))+")")
		for _, s := range sel.Specialties {
			args = append(args, s)
		}
	}
	if sel.DateRange != nil {
		lo, _ := dateKeys(sel.DateRange.Start)
		hi, _ := dateKeys(sel.DateRange.End)
		conditions = append(conditions, "has_date AND claim_ymd BETWEEN ? AND ?")
		args = append(args, lo, hi)
	}
	return strings.Join(conditions, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (v *DuckView) acquire(ctx context.Context) (func(), error) {
	select {
	case v.querySem <- struct{}{}:
		return func() { <-v.querySem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (v *DuckView) Dataset() *models.Dataset { return v.ds }

// Filter selects matching row ids and materializes them from the
// canonical dataset.
func (v *DuckView) Filter(ctx context.Context, sel models.FilterSelection) (*models.Dataset, error) {
	if sel.IsEmpty() {
		return v.ds.Subset(allIndexes(v.ds.Len())), nil
	}
	release, err := v.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	where, args := buildWhereClause(sel)
	rows, err := v.db.QueryContext(ctx, "SELECT id FROM claims WHERE "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("filter query: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, int(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return v.ds.Subset(ids), nil
}

func allIndexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Summary computes every dashboard aggregate in SQL.
func (v *DuckView) Summary(ctx context.Context, sel models.FilterSelection) (*models.Summary, error) {
	release, err := v.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	where, args := buildWhereClause(sel)
	s := &models.Summary{}

	if s.Totals, err = v.totals(ctx, where, args); err != nil {
		return nil, err
	}
	if s.StatusBreakdown, err = v.buckets(ctx, `
		SELECT status, CAST(COUNT(*) AS VARCHAR) FROM claims
		WHERE `+where+` AND status <> ''
		GROUP BY status ORDER BY COUNT(*) DESC, MIN(id)`, args); err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	if s.DeniedByRegion, err = v.buckets(ctx, `
		SELECT region, CAST(SUM(denied) AS VARCHAR) FROM claims
		WHERE `+where+` AND region <> ''
		GROUP BY region ORDER BY region`, args); err != nil {
		return nil, fmt.Errorf("denied by region: %w", err)
	}
	if s.MonthlyTrend, err = v.monthly(ctx, where, args); err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}

	reasonArgs := append(append([]interface{}(nil), args...), TopReasonsLimit)
	if s.TopDenialReasons, err = v.buckets(ctx, `
		SELECT reason, CAST(SUM(denied) AS VARCHAR) FROM claims
		WHERE `+where+`
		GROUP BY reason ORDER BY SUM(denied) DESC, MIN(id) LIMIT ?`, reasonArgs); err != nil {
		return nil, fmt.Errorf("top denial reasons: %w", err)
	}
	return s, nil
}

func (v *DuckView) totals(ctx context.Context, where string, args []interface{}) (models.Totals, error) {
	var (
		t                          models.Totals
		count                      int64
		claimed, approved, denied string
	)
	err := v.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       CAST(COALESCE(SUM(claimed), 0) AS VARCHAR),
		       CAST(COALESCE(SUM(approved), 0) AS VARCHAR),
		       CAST(COALESCE(SUM(denied), 0) AS VARCHAR)
		FROM claims WHERE `+where, args...).Scan(&count, &claimed, &approved, &denied)
	if err != nil {
		return t, fmt.Errorf("totals: %w", err)
	}
	t.Claims = int(count)
	if t.Claimed, err = parseSum(claimed); err != nil {
		return t, err
	}
	if t.Approved, err = parseSum(approved); err != nil {
		return t, err
	}
	if t.Denied, err = parseSum(denied); err != nil {
		return t, err
	}
	return t, nil
}

// buckets runs a (label, value) query; values come back as text.
func (v *DuckView) buckets(ctx context.Context, query string, args []interface{}) ([]models.Bucket, error) {
	rows, err := v.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Bucket{}
	for rows.Next() {
		var label, raw string
		if err := rows.Scan(&label, &raw); err != nil {
			return nil, err
		}
		value, err := parseSum(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Bucket{Label: label, Value: value})
	}
	return out, rows.Err()
}

func (v *DuckView) monthly(ctx context.Context, where string, args []interface{}) ([]models.Bucket, error) {
	rows, err := v.db.QueryContext(ctx, `
		SELECT claim_ym, CAST(SUM(denied) AS VARCHAR) FROM claims
		WHERE `+where+` AND has_date
		GROUP BY claim_ym`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[models.ClaimDate]decimal.Decimal)
	for rows.Next() {
		var (
			ym  int32
			raw string
		)
		if err := rows.Scan(&ym, &raw); err != nil {
			return nil, err
		}
		value, err := parseSum(raw)
		if err != nil {
			return nil, err
		}
		sums[models.NewClaimDate(int(ym/100), time.Month(ym%100), 1)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return monthSeries(sums), nil
}

// Close closes the database and removes its file.
// Queries still running finish first; later ones fail.
func (v *DuckView) Close() error {
	var err error
	v.closeOnce.Do(func() {
		err = v.db.Close()
		if rmErr := os.Remove(v.dbPath); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = rmErr
		}
		os.Remove(v.dbPath + ".wal")
	})
	return err
}
