package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"notes-api/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrUnavailable       = errors.New("store unavailable")
)

// queryTimeout bounds every store operation so a wedged backend surfaces
// as ErrUnavailable instead of hanging the request.
const queryTimeout = 5 * time.Second

type Store struct {
	DB *sql.DB
}

// Connect opens the configured backend and creates the schema. The sqlite
// adapter is limited to a single connection since the driver serializes
// writes anyway and in-memory databases are per-connection.
func Connect(adapter, dsn string) (*Store, error) {
	var driver string
	switch adapter {
	case "mysql":
		driver = "mysql"
	case "sqlite":
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unknown adapter %q", adapter)
	}

	d, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if adapter == "sqlite" {
		d.SetMaxOpenConns(1)
	}

	s := &Store{DB: d}
	if err := s.createTables(adapter); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables(adapter string) error {
	var userTable, notesTable string
	if adapter == "mysql" {
		userTable = `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) COLLATE utf8mb4_bin UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at BIGINT NOT NULL
		);`
		notesTable = `
		CREATE TABLE IF NOT EXISTS notes (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			user_id BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);`
	} else {
		userTable = `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`
		notesTable = `
		CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);`
	}

	if _, err := s.DB.Exec(userTable); err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	if _, err := s.DB.Exec(notesTable); err != nil {
		return fmt.Errorf("creating notes table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// Timestamps are stored as unix microseconds so ordering and precision
// behave identically on both backends.
func now() int64 {
	return time.Now().UTC().UnixMicro()
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	created := now()
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, created)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, storeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr(err)
	}
	return &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.UnixMicro(created).UTC(),
	}, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return scanUser(s.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username))
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return scanUser(s.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var created int64
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	u.CreatedAt = time.UnixMicro(created).UTC()
	return &u, nil
}

func (s *Store) CreateNote(ctx context.Context, userID int64, title, content string) (*models.Note, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	created := now()
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO notes (title, content, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		title, content, userID, created, created)
	if err != nil {
		return nil, storeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr(err)
	}
	ts := time.UnixMicro(created).UTC()
	return &models.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		UserID:    userID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

func (s *Store) ListNotesByUser(ctx context.Context, userID int64) ([]models.Note, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, title, content, user_id, created_at, updated_at FROM notes WHERE user_id = ? ORDER BY updated_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		var created, updated int64
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.UserID, &created, &updated); err != nil {
			return nil, storeErr(err)
		}
		n.CreatedAt = time.UnixMicro(created).UTC()
		n.UpdatedAt = time.UnixMicro(updated).UTC()
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return notes, nil
}

func (s *Store) GetNoteByID(ctx context.Context, id int64) (*models.Note, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n models.Note
	var created, updated int64
	err := s.DB.QueryRowContext(ctx,
		"SELECT id, title, content, user_id, created_at, updated_at FROM notes WHERE id = ?", id).
		Scan(&n.ID, &n.Title, &n.Content, &n.UserID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	n.CreatedAt = time.UnixMicro(created).UTC()
	n.UpdatedAt = time.UnixMicro(updated).UTC()
	return &n, nil
}

// UpdateNote writes the note's title and content and refreshes its
// last-modified timestamp.
func (s *Store) UpdateNote(ctx context.Context, note *models.Note) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	updated := now()
	res, err := s.DB.ExecContext(ctx,
		"UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?",
		note.Title, note.Content, updated, note.ID)
	if err != nil {
		return storeErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	note.UpdatedAt = time.UnixMicro(updated).UTC()
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.DB.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return storeErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
