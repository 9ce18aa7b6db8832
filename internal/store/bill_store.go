package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jjenkins/billtracker/internal/model"
)

const billColumns = `id, billno, year, chamber, bill_type, number, title, sponsor,
		       sponsor_link, curloc, curloc_link, action_code, status, last_action,
		       last_action_date, scheduled_date, checksum, url, contents_link,
		       amend_link, fir_link, lesc_link, fetched_at, created_at`

// BillStore handles database operations for bills
type BillStore struct {
	db *sql.DB
}

// NewBillStore creates a new BillStore
func NewBillStore(db *sql.DB) *BillStore {
	return &BillStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*model.Bill, error) {
	var b model.Bill
	err := row.Scan(
		&b.ID,
		&b.Billno,
		&b.Year,
		&b.Chamber,
		&b.BillType,
		&b.Number,
		&b.Title,
		&b.Sponsor,
		&b.SponsorLink,
		&b.CurLoc,
		&b.CurLocLink,
		&b.ActionCode,
		&b.Status,
		&b.LastAction,
		&b.LastActionDate,
		&b.ScheduledDate,
		&b.Checksum,
		&b.URL,
		&b.ContentsLink,
		&b.AmendLink,
		&b.FIRLink,
		&b.LESCLink,
		&b.FetchedAt,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByBillno retrieves a bill by designation and year code
func (s *BillStore) GetByBillno(ctx context.Context, billno, year string) (*model.Bill, error) {
	query := `SELECT ` + billColumns + `
		FROM bills
		WHERE billno = $1 AND year = $2
	`

	b, err := scanBill(s.db.QueryRowContext(ctx, query, billno, year))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill %s (%s): %w", billno, year, err)
	}

	return b, nil
}

// SaveBillWithSnapshot saves the current bill and only creates a snapshot if
// its checksum changed since the last save
func (s *BillStore) SaveBillWithSnapshot(ctx context.Context, b *model.Bill, snapshotDate time.Time) (changed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingChecksum sql.NullString
	checksumQuery := `SELECT checksum FROM bills WHERE billno = $1 AND year = $2`
	err = tx.QueryRowContext(ctx, checksumQuery, b.Billno, b.Year).Scan(&existingChecksum)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to read checksum for bill %s: %w", b.Billno, err)
	}

	changed = !existingChecksum.Valid || existingChecksum.String != b.Checksum

	upsertQuery := `
		INSERT INTO bills (billno, year, chamber, bill_type, number, title, sponsor,
		                   sponsor_link, curloc, curloc_link, action_code, status,
		                   last_action, last_action_date, scheduled_date, checksum,
		                   url, contents_link, amend_link, fir_link, lesc_link, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22)
		ON CONFLICT (billno, year) DO UPDATE SET
			title = EXCLUDED.title,
			sponsor = EXCLUDED.sponsor,
			sponsor_link = EXCLUDED.sponsor_link,
			curloc = EXCLUDED.curloc,
			curloc_link = EXCLUDED.curloc_link,
			action_code = EXCLUDED.action_code,
			status = EXCLUDED.status,
			last_action = EXCLUDED.last_action,
			last_action_date = EXCLUDED.last_action_date,
			scheduled_date = EXCLUDED.scheduled_date,
			checksum = EXCLUDED.checksum,
			url = EXCLUDED.url,
			contents_link = EXCLUDED.contents_link,
			amend_link = EXCLUDED.amend_link,
			fir_link = EXCLUDED.fir_link,
			lesc_link = EXCLUDED.lesc_link,
			fetched_at = EXCLUDED.fetched_at
		RETURNING id
	`

	err = tx.QueryRowContext(ctx, upsertQuery,
		b.Billno,
		b.Year,
		b.Chamber,
		b.BillType,
		b.Number,
		b.Title,
		b.Sponsor,
		b.SponsorLink,
		b.CurLoc,
		b.CurLocLink,
		b.ActionCode,
		b.Status,
		b.LastAction,
		b.LastActionDate,
		b.ScheduledDate,
		b.Checksum,
		b.URL,
		b.ContentsLink,
		b.AmendLink,
		b.FIRLink,
		b.LESCLink,
		b.FetchedAt,
	).Scan(&b.ID)
	if err != nil {
		return false, fmt.Errorf("failed to upsert bill %s: %w", b.Billno, err)
	}

	if changed {
		snapshotQuery := `
			INSERT INTO bill_snapshots (billno, year, curloc, action_code,
			                            last_action, checksum, snapshot_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (billno, year, snapshot_date) DO UPDATE SET
				curloc = EXCLUDED.curloc,
				action_code = EXCLUDED.action_code,
				last_action = EXCLUDED.last_action,
				checksum = EXCLUDED.checksum
		`

		_, err = tx.ExecContext(ctx, snapshotQuery,
			b.Billno,
			b.Year,
			b.CurLoc,
			b.ActionCode,
			b.LastAction,
			b.Checksum,
			snapshotDate,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert snapshot for bill %s: %w", b.Billno, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return changed, nil
}

// sortColumns whitelists the orderings the bill list accepts
var sortColumns = map[string][]string{
	"billno":   {"chamber", "bill_type", "number"},
	"title":    {"title"},
	"sponsor":  {"sponsor"},
	"location": {"curloc"},
	"updated":  {"last_action_date"},
}

func orderBy(sortBy, order string) string {
	columns, ok := sortColumns[sortBy]
	if !ok {
		columns = sortColumns["billno"]
	}

	dir := "ASC"
	if order == "desc" {
		dir = "DESC"
	}

	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " " + dir
	}
	return strings.Join(parts, ", ")
}

// GetAllSorted retrieves all bills for a year with custom sorting
func (s *BillStore) GetAllSorted(ctx context.Context, year, sortBy, order string) ([]model.Bill, error) {
	query := fmt.Sprintf(`SELECT %s
		FROM bills
		WHERE year = $1
		ORDER BY %s
	`, billColumns, orderBy(sortBy, order))

	rows, err := s.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *b)
	}

	return bills, rows.Err()
}

// ListBillnos returns the designations of every stored bill for a year
func (s *BillStore) ListBillnos(ctx context.Context, year string) ([]string, error) {
	query := `SELECT billno FROM bills WHERE year = $1 ORDER BY chamber, bill_type, number`

	rows, err := s.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills for %s: %w", year, err)
	}
	defer rows.Close()

	var billnos []string
	for rows.Next() {
		var billno string
		if err := rows.Scan(&billno); err != nil {
			return nil, fmt.Errorf("failed to scan billno: %w", err)
		}
		billnos = append(billnos, billno)
	}

	return billnos, rows.Err()
}

// GetSnapshots retrieves all snapshots for a bill ordered by date descending
func (s *BillStore) GetSnapshots(ctx context.Context, billno, year string) ([]model.BillSnapshot, error) {
	query := `
		SELECT id, billno, year, curloc, action_code, last_action,
		       checksum, snapshot_date, created_at
		FROM bill_snapshots
		WHERE billno = $1 AND year = $2
		ORDER BY snapshot_date DESC
	`

	rows, err := s.db.QueryContext(ctx, query, billno, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots for bill %s: %w", billno, err)
	}
	defer rows.Close()

	var snapshots []model.BillSnapshot
	for rows.Next() {
		var snap model.BillSnapshot
		err := rows.Scan(
			&snap.ID,
			&snap.Billno,
			&snap.Year,
			&snap.CurLoc,
			&snap.ActionCode,
			&snap.LastAction,
			&snap.Checksum,
			&snap.SnapshotDate,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// CountBills returns the number of bills tracked for a year
func (s *BillStore) CountBills(ctx context.Context, year string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bills WHERE year = $1", year).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bills: %w", err)
	}
	return count, nil
}

// CountByLocation returns how many bills sit in each location, busiest first
func (s *BillStore) CountByLocation(ctx context.Context, year string) ([]model.LocationCount, error) {
	query := `
		SELECT curloc, COUNT(*)
		FROM bills
		WHERE year = $1
		GROUP BY curloc
		ORDER BY COUNT(*) DESC, curloc
	`

	rows, err := s.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to count bills by location: %w", err)
	}
	defer rows.Close()

	var counts []model.LocationCount
	for rows.Next() {
		var lc model.LocationCount
		if err := rows.Scan(&lc.CurLoc, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan location count: %w", err)
		}
		counts = append(counts, lc)
	}

	return counts, rows.Err()
}

// GetSnapshotDays returns how many bills changed on each snapshot date,
// newest first
func (s *BillStore) GetSnapshotDays(ctx context.Context, year string) ([]model.SnapshotDay, error) {
	query := `
		SELECT snapshot_date, COUNT(*)
		FROM bill_snapshots
		WHERE year = $1
		GROUP BY snapshot_date
		ORDER BY snapshot_date DESC
	`

	rows, err := s.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot dates: %w", err)
	}
	defer rows.Close()

	var days []model.SnapshotDay
	for rows.Next() {
		var day model.SnapshotDay
		if err := rows.Scan(&day.Date, &day.Changes); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		days = append(days, day)
	}

	return days, rows.Err()
}
