// Package archive stores received spans in MySQL, one row per trace and one
// per span, so a trace can be verified after the process that produced it
// has exited.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"gofr.dev/spanverify/model"
)

var ErrTraceNotFound = errors.New("trace not found")

const (
	insertTrace = "INSERT INTO traces (trace_id, timestamp) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)"
	insertSpan = "INSERT INTO spans (trace_id, span_id, parent_id, name, duration, timestamp, attributes, resource, events) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	selectTrace = "SELECT id FROM traces WHERE trace_id = ?"
	selectSpans = "SELECT span_id, parent_id, name, duration, timestamp, attributes, resource, events " +
		"FROM spans WHERE trace_id = ? ORDER BY timestamp"
)

type Archive struct {
	db *sql.DB
}

func New(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// Save stores spans in a single transaction. Spans of a trace that is
// already archived are appended to it.
func (a *Archive) Save(ctx context.Context, spans []model.Span) (err error) {
	if len(spans) == 0 {
		return nil
	}

	txn, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := txn.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
			}

			return
		}

		if commitErr := txn.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	ids, byTrace := model.Traces(spans)

	for _, traceID := range ids {
		traceSpans := byTrace[traceID]

		res, err := txn.ExecContext(ctx, insertTrace, traceID, traceSpans[0].Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert trace %s: %w", traceID, err)
		}

		rowID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for i := range traceSpans {
			if err := insert(ctx, txn, rowID, &traceSpans[i]); err != nil {
				return err
			}
		}
	}

	return nil
}

func insert(ctx context.Context, txn *sql.Tx, traceRowID int64, s *model.Span) error {
	attrs, err := json.Marshal(s.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes of span %s: %w", s.ID, err)
	}

	resource, err := json.Marshal(s.Resource)
	if err != nil {
		return fmt.Errorf("failed to marshal resource of span %s: %w", s.ID, err)
	}

	events, err := json.Marshal(s.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events of span %s: %w", s.ID, err)
	}

	_, err = txn.ExecContext(ctx, insertSpan,
		traceRowID, s.ID, s.ParentID, s.Name, s.Duration, s.Timestamp, attrs, resource, events)
	if err != nil {
		return fmt.Errorf("failed to insert span %s: %w", s.ID, err)
	}

	return nil
}

// Trace returns the spans of traceID ordered by start time.
func (a *Archive) Trace(ctx context.Context, traceID string) ([]model.Span, error) {
	var id int64

	err := a.db.QueryRowContext(ctx, selectTrace, traceID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTraceNotFound, traceID)
		}

		return nil, fmt.Errorf("failed to query traces table: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, selectSpans, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query spans: %w", err)
	}
	defer rows.Close()

	var spans []model.Span

	for rows.Next() {
		var (
			s                         model.Span
			parentID                  sql.NullString
			attrs, resource, eventsJS []byte
		)

		if err := rows.Scan(&s.ID, &parentID, &s.Name, &s.Duration, &s.Timestamp, &attrs, &resource, &eventsJS); err != nil {
			return nil, fmt.Errorf("failed to scan span row: %w", err)
		}

		s.TraceID = traceID
		s.ParentID = parentID.String

		if err := unmarshal(attrs, &s.Attributes); err != nil {
			return nil, err
		}

		if err := unmarshal(resource, &s.Resource); err != nil {
			return nil, err
		}

		if err := unmarshal(eventsJS, &s.Events); err != nil {
			return nil, err
		}

		spans = append(spans, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over span rows: %w", err)
	}

	return spans, nil
}

func unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode span column: %w", err)
	}

	return nil
}
