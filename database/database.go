package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// InitDB opens the history database and creates its tables. It holds the
// local record of uploads (keyed by content digest, for the duplicate
// pre-check) and downloads (for the history command).
func InitDB(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable write-ahead logging for better concurrency
	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	if err != nil {
		log.Printf("warning: failed to set WAL mode: %v", err)
	}

	sqlStmt := `
	CREATE TABLE IF NOT EXISTS upload_history (
		content_digest TEXT PRIMARY KEY,
		album_id INTEGER NOT NULL,
		file_name TEXT NOT NULL,
		uploaded_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS download_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		album_id INTEGER NOT NULL,
		file_path TEXT NOT NULL,
		downloaded_at INTEGER NOT NULL
	);
	`
	_, err = db.Exec(sqlStmt)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return db, nil
}

type UploadRecord struct {
	ContentDigest string
	AlbumID       int64
	FileName      string
	UploadedAt    int64
}

type DownloadRecord struct {
	ID           int64
	AlbumID      int64
	FilePath     string
	DownloadedAt int64
}

// AddUploadRecord stores the digest of a committed upload. An existing row
// for the same digest is replaced.
func AddUploadRecord(db *sql.DB, contentDigest string, albumID int64, fileName string) error {
	queryBuilder := psql.Replace("upload_history").
		Columns("content_digest", "album_id", "file_name", "uploaded_at").
		Values(contentDigest, albumID, fileName, time.Now().Unix())

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query for AddUploadRecord: %w", err)
	}
	_, err = db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}
	return nil
}

// GetUploadByDigest looks up a previous upload of identical content.
// Returns nil when no such upload is recorded.
func GetUploadByDigest(db *sql.DB, contentDigest string) (*UploadRecord, error) {
	queryBuilder := psql.Select("content_digest", "album_id", "file_name", "uploaded_at").
		From("upload_history").
		Where(sq.Eq{"content_digest": contentDigest}).
		Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for GetUploadByDigest: %w", err)
	}

	var rec UploadRecord
	err = db.QueryRow(sqlStr, args...).Scan(&rec.ContentDigest, &rec.AlbumID, &rec.FileName, &rec.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query upload record: %w", err)
	}
	return &rec, nil
}

// AddDownloadRecord stores one download of an album to a local path.
func AddDownloadRecord(db *sql.DB, albumID int64, filePath string) error {
	queryBuilder := psql.Insert("download_history").
		Columns("album_id", "file_path", "downloaded_at").
		Values(albumID, filePath, time.Now().Unix())

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query for AddDownloadRecord: %w", err)
	}
	_, err = db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to insert download record: %w", err)
	}
	return nil
}

// ListDownloads returns the most recent downloads, newest first.
func ListDownloads(db *sql.DB, limit uint64) ([]DownloadRecord, error) {
	queryBuilder := psql.Select("id", "album_id", "file_path", "downloaded_at").
		From("download_history").
		OrderBy("downloaded_at DESC").
		Limit(limit)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListDownloads: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query download history: %w", err)
	}
	defer rows.Close()

	var records []DownloadRecord
	for rows.Next() {
		var rec DownloadRecord
		if err := rows.Scan(&rec.ID, &rec.AlbumID, &rec.FilePath, &rec.DownloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListUploads returns the most recent committed uploads, newest first.
func ListUploads(db *sql.DB, limit uint64) ([]UploadRecord, error) {
	queryBuilder := psql.Select("content_digest", "album_id", "file_name", "uploaded_at").
		From("upload_history").
		OrderBy("uploaded_at DESC").
		Limit(limit)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListUploads: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload history: %w", err)
	}
	defer rows.Close()

	var records []UploadRecord
	for rows.Next() {
		var rec UploadRecord
		if err := rows.Scan(&rec.ContentDigest, &rec.AlbumID, &rec.FileName, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
