package archive

import (
	"context"
	"fmt"
)

const createTableTraces = `create table if not exists traces
(
    id        bigint unsigned auto_increment
        primary key,
    trace_id  char(32) not null,
    timestamp bigint   not null,
    constraint trace_id
        unique (trace_id)
)`

const createTableSpans = `create table if not exists spans
(
    id         bigint unsigned auto_increment
        primary key,
    trace_id   bigint unsigned not null,
    span_id    char(16)        not null,
    parent_id  varchar(255)    null,
    name       varchar(255)    not null,
    duration   bigint          not null,
    timestamp  bigint          not null,
    attributes json            null,
    resource   json            null,
    events     json            null,
    index idx_spans_parent_id (parent_id),
    index idx_spans_trace_id (trace_id)
)`

var migrations = []string{
	createTableTraces,
	createTableSpans,
}

// Migrate creates the archive tables and their indices. Every statement is
// guarded by if not exists, so it is safe to run against a migrated schema.
func (a *Archive) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate archive schema: %w", err)
		}
	}

	return nil
}
