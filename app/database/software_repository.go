package database

import (
	"database/sql"
	"fmt"
	"time"
)

const softwareColumns = `id, name, source_type, source_identifier, local_command, local_version_arg,
	latest_version, local_version, published_at, last_checked_at, enabled,
	last_notified_version, last_notified_at`

type softwareRepository struct {
	db *DB
}

func NewSoftwareRepository(db *DB) SoftwareRepository {
	return &softwareRepository{db: db}
}

func (r *softwareRepository) GetAll() ([]Software, error) {
	rows, err := r.db.Query(`SELECT ` + softwareColumns + ` FROM softwares ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query softwares: %w", err)
	}
	defer rows.Close()

	return scanSoftwares(rows)
}

func (r *softwareRepository) GetEnabled() ([]Software, error) {
	rows, err := r.db.Query(`SELECT ` + softwareColumns + ` FROM softwares WHERE enabled = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled softwares: %w", err)
	}
	defer rows.Close()

	return scanSoftwares(rows)
}

func (r *softwareRepository) Get(id string) (*Software, error) {
	row := r.db.QueryRow(`SELECT `+softwareColumns+` FROM softwares WHERE id = ?`, id)

	sw, err := scanSoftware(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get software: %w", err)
	}
	return sw, nil
}

func (r *softwareRepository) GetByName(name string) (*Software, error) {
	row := r.db.QueryRow(`SELECT `+softwareColumns+` FROM softwares WHERE name = ? LIMIT 1`, name)

	sw, err := scanSoftware(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get software by name: %w", err)
	}
	return sw, nil
}

func (r *softwareRepository) GetCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM softwares`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count softwares: %w", err)
	}
	return count, nil
}

func (r *softwareRepository) Insert(sw Software) error {
	_, err := r.db.Exec(`
		INSERT INTO softwares (id, name, source_type, source_identifier, local_command,
			local_version_arg, latest_version, local_version, published_at, last_checked_at,
			enabled, last_notified_version, last_notified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sw.ID, sw.Name, string(sw.Source.Type), sw.Source.Identifier,
		probeCommand(sw.LocalProbe), probeVersionArg(sw.LocalProbe),
		sw.LatestVersion, sw.LocalVersion, formatTime(sw.PublishedAt), formatTime(sw.LastCheckedAt),
		boolToInt(sw.Enabled), sw.LastNotifiedVersion, formatTime(sw.LastNotifiedAt))
	if err != nil {
		return fmt.Errorf("failed to insert software: %w", err)
	}
	return nil
}

func (r *softwareRepository) Update(sw Software) error {
	res, err := r.db.Exec(`
		UPDATE softwares
		SET name = ?, source_type = ?, source_identifier = ?, local_command = ?,
			local_version_arg = ?, latest_version = ?, local_version = ?, published_at = ?,
			last_checked_at = ?, enabled = ?, last_notified_version = ?, last_notified_at = ?
		WHERE id = ?
	`, sw.Name, string(sw.Source.Type), sw.Source.Identifier,
		probeCommand(sw.LocalProbe), probeVersionArg(sw.LocalProbe),
		sw.LatestVersion, sw.LocalVersion, formatTime(sw.PublishedAt), formatTime(sw.LastCheckedAt),
		boolToInt(sw.Enabled), sw.LastNotifiedVersion, formatTime(sw.LastNotifiedAt), sw.ID)
	if err != nil {
		return fmt.Errorf("failed to update software: %w", err)
	}
	return requireRow(res)
}

func (r *softwareRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM softwares WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete software: %w", err)
	}
	return requireRow(res)
}

func (r *softwareRepository) SetEnabled(id string, enabled bool) error {
	res, err := r.db.Exec(`UPDATE softwares SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("failed to set software enabled: %w", err)
	}
	return requireRow(res)
}

func (r *softwareRepository) UpdateCheckResult(id string, latestVersion string, localVersion *string, publishedAt *time.Time, checkedAt time.Time) error {
	res, err := r.db.Exec(`
		UPDATE softwares
		SET latest_version = ?, local_version = ?, published_at = ?, last_checked_at = ?
		WHERE id = ?
	`, latestVersion, localVersion, formatTime(publishedAt), checkedAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update check result: %w", err)
	}
	return requireRow(res)
}

func (r *softwareRepository) UpdateNotified(id string, version string, notifiedAt time.Time) error {
	res, err := r.db.Exec(`
		UPDATE softwares
		SET last_notified_version = ?, last_notified_at = ?
		WHERE id = ?
	`, version, notifiedAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update notified version: %w", err)
	}
	return requireRow(res)
}

// requireRow maps "no rows affected" to ErrNotFound so callers can
// distinguish a missing id from a database failure.
func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSoftware(row rowScanner) (*Software, error) {
	var (
		sw                  Software
		sourceType          string
		localCommand        sql.NullString
		localVersionArg     sql.NullString
		latestVersion       sql.NullString
		localVersion        sql.NullString
		publishedAt         sql.NullString
		lastCheckedAt       sql.NullString
		enabled             int
		lastNotifiedVersion sql.NullString
		lastNotifiedAt      sql.NullString
	)

	err := row.Scan(&sw.ID, &sw.Name, &sourceType, &sw.Source.Identifier,
		&localCommand, &localVersionArg, &latestVersion, &localVersion,
		&publishedAt, &lastCheckedAt, &enabled, &lastNotifiedVersion, &lastNotifiedAt)
	if err != nil {
		return nil, err
	}

	// Unknown kinds in old rows degrade to github-release rather than
	// failing the whole listing.
	if t, ok := ParseSourceType(sourceType); ok {
		sw.Source.Type = t
	} else {
		sw.Source.Type = SourceGithubRelease
	}

	if localCommand.Valid {
		sw.LocalProbe = &ProbeConfig{Command: localCommand.String}
		if localVersionArg.Valid {
			sw.LocalProbe.VersionArg = localVersionArg.String
		}
	}

	sw.LatestVersion = nullableString(latestVersion)
	sw.LocalVersion = nullableString(localVersion)
	sw.PublishedAt = parseTime(publishedAt)
	sw.LastCheckedAt = parseTime(lastCheckedAt)
	sw.Enabled = enabled != 0
	sw.LastNotifiedVersion = nullableString(lastNotifiedVersion)
	sw.LastNotifiedAt = parseTime(lastNotifiedAt)

	return &sw, nil
}

func scanSoftwares(rows *sql.Rows) ([]Software, error) {
	var softwares []Software
	for rows.Next() {
		sw, err := scanSoftware(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan software row: %w", err)
		}
		softwares = append(softwares, *sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate software rows: %w", err)
	}
	return softwares, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func parseTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func probeCommand(p *ProbeConfig) *string {
	if p == nil {
		return nil
	}
	return &p.Command
}

func probeVersionArg(p *ProbeConfig) *string {
	if p == nil || p.VersionArg == "" {
		return nil
	}
	return &p.VersionArg
}
