package consultation

import (
	"context"
	"database/sql"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"alternamed-portal/internal/treatment"
)

type Repository interface {
	Save(ctx context.Context, c *Consultation) error
	ListByUser(ctx context.Context, uid string, limit int) ([]Consultation, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Save(ctx context.Context, c *Consultation) error {
	resultadoJSON, err := json.Marshal(c.Resultado)
	if err != nil {
		return errors.Wrap(err, "marshaling treatment result")
	}

	query := `
		INSERT INTO consultations (id, user_id, user_email, caso, session_id, resultado, consulted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.UserEmail, c.Caso, c.SessionID, resultadoJSON, c.ConsultedAt)
	return errors.Wrap(err, "inserting consultation")
}

func (r *postgresRepo) ListByUser(ctx context.Context, uid string, limit int) ([]Consultation, error) {
	query := `SELECT id, user_id, user_email, caso, session_id, resultado, consulted_at
		FROM consultations WHERE user_id = $1
		ORDER BY consulted_at DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, uid, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying consultations")
	}
	defer rows.Close()

	consultations := []Consultation{}
	for rows.Next() {
		var c Consultation
		var resultadoJSON []byte
		if err := rows.Scan(&c.ID, &c.UserID, &c.UserEmail, &c.Caso, &c.SessionID, &resultadoJSON, &c.ConsultedAt); err != nil {
			return nil, errors.Wrap(err, "scanning consultation")
		}
		if len(resultadoJSON) > 0 {
			var result treatment.Result
			if err := json.Unmarshal(resultadoJSON, &result); err != nil {
				return nil, errors.Wrap(err, "unmarshaling treatment result")
			}
			c.Resultado = &result
		}
		consultations = append(consultations, c)
	}
	return consultations, errors.Wrap(rows.Err(), "iterating consultations")
}
