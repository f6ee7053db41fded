// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"time"

	"github.com/botship/botship/internal/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// TargetModel maps the `targets` table for Bun queries.
type TargetModel struct {
	bun.BaseModel `bun:"table:targets"`
	ID            int    `bun:"id,pk,autoincrement"`
	Username      string `bun:"username"`
	Hostname      string `bun:"hostname"`
	Port          int    `bun:"port"`
	Label         string `bun:"label"`
	Tags          string `bun:"tags"`
	IsActive      bool   `bun:"is_active"`
}

// KnownHostModel maps known_hosts.
type KnownHostModel struct {
	bun.BaseModel `bun:"table:known_hosts"`
	Hostname      string `bun:"hostname,pk"`
	Key           string `bun:"key"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// DeploymentModel maps the deployments history table.
type DeploymentModel struct {
	bun.BaseModel `bun:"table:deployments"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Target        string `bun:"target"`
	LocalPath     string `bun:"local_path"`
	RemotePath    string `bun:"remote_path"`
	Status        string `bun:"status"`
	Attempts      int    `bun:"attempts"`
	Error         string `bun:"error"`
}

// bunStore implements Store on top of a *bun.DB; the dialect-specific
// store types embed it.
type bunStore struct {
	bun *bun.DB
}

// SqliteStore is the Store implementation for SQLite (the default backend).
type SqliteStore struct{ bunStore }

// PostgresStore is the Store implementation for PostgreSQL.
type PostgresStore struct{ bunStore }

// MySQLStore is the Store implementation for MySQL.
type MySQLStore struct{ bunStore }

func targetModelToModel(m TargetModel) model.Target {
	return model.Target{
		ID:       m.ID,
		Username: m.Username,
		Hostname: m.Hostname,
		Port:     m.Port,
		Label:    m.Label,
		Tags:     m.Tags,
		IsActive: m.IsActive,
	}
}

func (s *bunStore) GetAllTargets() ([]model.Target, error) {
	ctx := context.Background()

	var rows []TargetModel
	if err := s.bun.NewSelect().Model(&rows).Order("hostname ASC", "username ASC").Scan(ctx); err != nil {
		return nil, err
	}

	targets := make([]model.Target, 0, len(rows))
	for _, r := range rows {
		targets = append(targets, targetModelToModel(r))
	}
	return targets, nil
}

func (s *bunStore) GetAllActiveTargets() ([]model.Target, error) {
	ctx := context.Background()

	var rows []TargetModel
	err := s.bun.NewSelect().Model(&rows).
		Where("is_active = ?", true).
		Order("hostname ASC", "username ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	targets := make([]model.Target, 0, len(rows))
	for _, r := range rows {
		targets = append(targets, targetModelToModel(r))
	}
	return targets, nil
}

func (s *bunStore) GetTarget(username, hostname string) (*model.Target, error) {
	ctx := context.Background()

	var row TargetModel
	err := s.bun.NewSelect().Model(&row).
		Where("username = ?", username).
		Where("hostname = ?", hostname).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	t := targetModelToModel(row)
	return &t, nil
}

func (s *bunStore) AddTarget(t model.Target) (int, error) {
	ctx := context.Background()

	port := t.Port
	if port == 0 {
		port = 22
	}
	row := &TargetModel{
		Username: t.Username,
		Hostname: t.Hostname,
		Port:     port,
		Label:    t.Label,
		Tags:     t.Tags,
		IsActive: true,
	}
	if _, err := s.bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to insert target: %w", err)
	}
	return row.ID, nil
}

func (s *bunStore) DeleteTarget(username, hostname string) error {
	ctx := context.Background()

	res, err := s.bun.NewDelete().Model((*TargetModel)(nil)).
		Where("username = ?", username).
		Where("hostname = ?", hostname).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *bunStore) GetKnownHostKey(hostname string) (string, error) {
	ctx := context.Background()

	var row KnownHostModel
	err := s.bun.NewSelect().Model(&row).Where("hostname = ?", hostname).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return row.Key, nil
}

// knownHostUpsert builds the insert-or-update query for a pinned host key.
// MySQL has no ON CONFLICT clause; under DUPLICATE KEY UPDATE bun generates
// a properly quoted `col = VALUES(col)` assignment for every data column,
// which also sidesteps `key` being a reserved word there.
func (s *bunStore) knownHostUpsert(idb bun.IDB, row *KnownHostModel) *bun.InsertQuery {
	q := idb.NewInsert().Model(row)
	if s.bun.Dialect().Name() == dialect.MySQL {
		return q.On("DUPLICATE KEY UPDATE")
	}
	return q.On("CONFLICT (hostname) DO UPDATE").
		Set("key = EXCLUDED.key")
}

// targetUpsert builds the insert-or-update query for a target row, keyed on
// the (username, hostname) unique constraint.
func (s *bunStore) targetUpsert(idb bun.IDB, row *TargetModel) *bun.InsertQuery {
	q := idb.NewInsert().Model(row)
	if s.bun.Dialect().Name() == dialect.MySQL {
		return q.On("DUPLICATE KEY UPDATE")
	}
	return q.On("CONFLICT (username, hostname) DO UPDATE").
		Set("port = EXCLUDED.port").
		Set("label = EXCLUDED.label").
		Set("tags = EXCLUDED.tags").
		Set("is_active = EXCLUDED.is_active")
}

func (s *bunStore) SetKnownHostKey(hostname, key string) error {
	ctx := context.Background()

	row := &KnownHostModel{Hostname: hostname, Key: key}
	_, err := s.knownHostUpsert(s.bun, row).Exec(ctx)
	return err
}

func (s *bunStore) LogAction(action, details string) error {
	ctx := context.Background()

	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	row := &AuditLogModel{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  username,
		Action:    action,
		Details:   details,
	}
	_, err := s.bun.NewInsert().Model(row).Exec(ctx)
	return err
}

func (s *bunStore) GetAuditLog(limit int) ([]model.AuditLogEntry, error) {
	ctx := context.Background()

	q := s.bun.NewSelect().Model((*AuditLogModel)(nil)).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []AuditLogModel
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	entries := make([]model.AuditLogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.AuditLogEntry{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			Username:  r.Username,
			Action:    r.Action,
			Details:   r.Details,
		})
	}
	return entries, nil
}

func (s *bunStore) RecordDeployment(rec model.DeploymentRecord) error {
	ctx := context.Background()

	ts := rec.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}
	row := &DeploymentModel{
		Timestamp:  ts,
		Target:     rec.Target,
		LocalPath:  rec.LocalPath,
		RemotePath: rec.RemotePath,
		Status:     rec.Status,
		Attempts:   rec.Attempts,
		Error:      rec.Error,
	}
	_, err := s.bun.NewInsert().Model(row).Exec(ctx)
	return err
}

func (s *bunStore) GetDeployments(limit int) ([]model.DeploymentRecord, error) {
	ctx := context.Background()

	q := s.bun.NewSelect().Model((*DeploymentModel)(nil)).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []DeploymentModel
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	recs := make([]model.DeploymentRecord, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, model.DeploymentRecord{
			ID:         r.ID,
			Timestamp:  r.Timestamp,
			Target:     r.Target,
			LocalPath:  r.LocalPath,
			RemotePath: r.RemotePath,
			Status:     r.Status,
			Attempts:   r.Attempts,
			Error:      r.Error,
		})
	}
	return recs, nil
}

// ExportBackup dumps every table into a BackupData container.
func (s *bunStore) ExportBackup() (*model.BackupData, error) {
	data := &model.BackupData{SchemaVersion: 1}

	targets, err := s.GetAllTargets()
	if err != nil {
		return nil, fmt.Errorf("failed to export targets: %w", err)
	}
	for _, t := range targets {
		data.Targets = append(data.Targets, model.BackupTarget{
			ID:       t.ID,
			Username: t.Username,
			Hostname: t.Hostname,
			Port:     t.Port,
			Label:    t.Label,
			Tags:     t.Tags,
			IsActive: t.IsActive,
		})
	}

	ctx := context.Background()
	var hosts []KnownHostModel
	if err := s.bun.NewSelect().Model(&hosts).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to export known hosts: %w", err)
	}
	for _, h := range hosts {
		data.KnownHosts = append(data.KnownHosts, model.KnownHost{Hostname: h.Hostname, Key: h.Key})
	}

	audit, err := s.GetAuditLog(0)
	if err != nil {
		return nil, fmt.Errorf("failed to export audit log: %w", err)
	}
	data.AuditLog = audit

	deployments, err := s.GetDeployments(0)
	if err != nil {
		return nil, fmt.Errorf("failed to export deployments: %w", err)
	}
	data.Deployments = deployments

	return data, nil
}

// ImportBackup loads a BackupData dump. Existing rows with matching keys
// are overwritten; IDs are not preserved.
func (s *bunStore) ImportBackup(data *model.BackupData) error {
	ctx := context.Background()

	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range data.Targets {
		port := t.Port
		if port == 0 {
			port = 22
		}
		row := &TargetModel{
			Username: t.Username,
			Hostname: t.Hostname,
			Port:     port,
			Label:    t.Label,
			Tags:     t.Tags,
			IsActive: t.IsActive,
		}
		if _, err := s.targetUpsert(tx, row).Exec(ctx); err != nil {
			return fmt.Errorf("failed to import target %s@%s: %w", t.Username, t.Hostname, err)
		}
	}

	for _, h := range data.KnownHosts {
		row := &KnownHostModel{Hostname: h.Hostname, Key: h.Key}
		if _, err := s.knownHostUpsert(tx, row).Exec(ctx); err != nil {
			return fmt.Errorf("failed to import known host %s: %w", h.Hostname, err)
		}
	}

	for _, e := range data.AuditLog {
		row := &AuditLogModel{
			Timestamp: e.Timestamp,
			Username:  e.Username,
			Action:    e.Action,
			Details:   e.Details,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("failed to import audit entry: %w", err)
		}
	}

	for _, d := range data.Deployments {
		row := &DeploymentModel{
			Timestamp:  d.Timestamp,
			Target:     d.Target,
			LocalPath:  d.LocalPath,
			RemotePath: d.RemotePath,
			Status:     d.Status,
			Attempts:   d.Attempts,
			Error:      d.Error,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("failed to import deployment row: %w", err)
		}
	}

	return tx.Commit()
}
