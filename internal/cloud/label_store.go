// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud services.
// This file holds the two label record stores. Both write unconditionally:
// there is no existence check and no overwrite protection.
package cloud

import (
	"context"
	"database/sql"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/lib/pq"

	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
)

// BigQueryLabelStore streams label records into a BigQuery table.
type BigQueryLabelStore struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQueryLabelStore returns a store writing to dataset.table.
func NewBigQueryLabelStore(client *bigquery.Client, dataset string, table string) *BigQueryLabelStore {
	return &BigQueryLabelStore{client: client, dataset: dataset, table: table}
}

// Put inserts record. The image id doubles as the streaming insert id.
func (s *BigQueryLabelStore) Put(ctx context.Context, record *model.LabelRecord) error {
	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	saver := &bigquery.StructSaver{Struct: record, InsertID: record.ImageId}
	if err := inserter.Put(ctx, saver); err != nil {
		return fmt.Errorf("bigquery insert into %s.%s failed for %s: %w", s.dataset, s.table, record.Filename, err)
	}
	return nil
}

// PostgresLabelStore writes label records into a Postgres table with the
// columns image_id text, filename text, labels text[].
type PostgresLabelStore struct {
	db    *sql.DB
	table string
}

// NewPostgresLabelStore opens dsn with the lib/pq driver and checks the
// connection.
func NewPostgresLabelStore(ctx context.Context, dsn string, table string) (*PostgresLabelStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresLabelStore{db: db, table: table}, nil
}

// Put inserts record.
func (s *PostgresLabelStore) Put(ctx context.Context, record *model.LabelRecord) error {
	query := fmt.Sprintf("INSERT INTO %s (image_id, filename, labels) VALUES ($1, $2, $3)", pq.QuoteIdentifier(s.table))
	if _, err := s.db.ExecContext(ctx, query, record.ImageId, record.Filename, pq.Array(record.Labels)); err != nil {
		return fmt.Errorf("postgres insert into %s failed for %s: %w", s.table, record.Filename, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresLabelStore) Close() error {
	return s.db.Close()
}
