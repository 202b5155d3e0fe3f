// internal/storage/agendastore.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/adb1146/itc-conference-app-sub002/internal/common/errors"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

var ErrNoActiveAgenda = errors.New("AGENDA_NOT_FOUND")

// SavedAgenda is one persisted agenda version.
type SavedAgenda struct {
	ID        string
	UserID    string
	Version   int
	Active    bool
	Agenda    *models.SmartAgenda
	CreatedAt time.Time
}

// AgendaStore persists personalized agendas in Postgres. Each regeneration
// creates a new version and retires the previous active one; reads always see
// exactly one active agenda per user.
type AgendaStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewAgendaStore(db *sql.DB, log logger.Logger) *AgendaStore {
	return &AgendaStore{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "agenda-store",
		}),
	}
}

// SavePersonalizedAgenda stores the first agenda version for a user.
func (s *AgendaStore) SavePersonalizedAgenda(ctx context.Context, userID string, agenda *models.SmartAgenda) (*SavedAgenda, error) {
	payload, err := json.Marshal(agenda)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure("marshal agenda", err)
	}

	saved := &SavedAgenda{
		ID:        uuid.NewString(),
		UserID:    userID,
		Version:   1,
		Active:    true,
		Agenda:    agenda,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO personalized_agendas (id, user_id, version, active, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		saved.ID, userID, saved.Version, true, payload, saved.CreatedAt)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure("insert agenda", err)
	}

	s.logger.Info("agenda saved", map[string]interface{}{
		"userId":   userID,
		"agendaId": saved.ID,
	})
	return saved, nil
}

// UpdatePersonalizedAgenda writes a new version and marks the current active
// one inactive, atomically.
func (s *AgendaStore) UpdatePersonalizedAgenda(ctx context.Context, userID string, agenda *models.SmartAgenda) (*SavedAgenda, error) {
	payload, err := json.Marshal(agenda)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure("marshal agenda", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure("begin tx", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM personalized_agendas WHERE user_id = $1`,
		userID).Scan(&version)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure("query max version", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE personalized_agendas SET active = false WHERE user_id = $1 AND active = true`,
		userID); err != nil {
		return nil, apperrors.NewPersistenceFailure("retire active agenda", err)
	}

	saved := &SavedAgenda{
		ID:        uuid.NewString(),
		UserID:    userID,
		Version:   version + 1,
		Active:    true,
		Agenda:    agenda,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO personalized_agendas (id, user_id, version, active, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		saved.ID, userID, saved.Version, true, payload, saved.CreatedAt); err != nil {
		return nil, apperrors.NewPersistenceFailure("insert agenda version", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewPersistenceFailure("commit tx", err)
	}

	s.logger.Info("agenda versioned", map[string]interface{}{
		"userId":  userID,
		"version": saved.Version,
	})
	return saved, nil
}

// GetActiveAgenda loads the single active agenda for the user, or
// ErrNoActiveAgenda when none exists.
func (s *AgendaStore) GetActiveAgenda(ctx context.Context, userID string) (*SavedAgenda, error) {
	var (
		saved   SavedAgenda
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, version, payload, created_at
		 FROM personalized_agendas
		 WHERE user_id = $1 AND active = true`,
		userID).Scan(&saved.ID, &saved.UserID, &saved.Version, &payload, &saved.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveAgenda
	}
	if err != nil {
		return nil, apperrors.NewPersistenceFailure("query active agenda", err)
	}

	saved.Active = true
	saved.Agenda = &models.SmartAgenda{}
	if err := json.Unmarshal(payload, saved.Agenda); err != nil {
		return nil, apperrors.NewPersistenceFailure("unmarshal agenda", err)
	}
	return &saved, nil
}

// HasExistingAgenda reports whether the user has an active saved agenda.
func (s *AgendaStore) HasExistingAgenda(ctx context.Context, userID string) (bool, string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM personalized_agendas WHERE user_id = $1 AND active = true`,
		userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, "", nil
	}
	if err != nil {
		return false, "", apperrors.NewPersistenceFailure("query existing agenda", err)
	}
	return true, id, nil
}

// ListFavorites returns the sessions the user marked as favorites, joined
// against the session catalog table.
func (s *AgendaStore) ListFavorites(ctx context.Context, userID string) ([]models.ConferenceSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.title, s.description, s.start_time, s.end_time, s.day,
		        s.location, s.track, s.tags, s.speakers
		 FROM favorites f
		 JOIN sessions s ON s.id = f.session_id
		 WHERE f.user_id = $1
		 ORDER BY s.day, s.start_time`,
		userID)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure("query favorites", err)
	}
	defer rows.Close()

	var favorites []models.ConferenceSession
	for rows.Next() {
		var session models.ConferenceSession
		if err := rows.Scan(
			&session.ID, &session.Title, &session.Description,
			&session.StartTime, &session.EndTime, &session.Day,
			&session.Location, &session.Track,
			pq.Array(&session.Tags), pq.Array(&session.Speakers),
		); err != nil {
			return nil, apperrors.NewPersistenceFailure("scan favorite", err)
		}
		favorites = append(favorites, session)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceFailure("iterate favorites", err)
	}
	return favorites, nil
}
