package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"extrt/internal/modules/plugin/domain"
	"extrt/internal/platform/clock"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

type instanceKey struct {
	point    domain.ExtensionPoint
	pluginID string
}

// SQLiteRegistry records registered plugins and their capabilities in SQLite.
// In-process instances of direct plugins cannot be persisted and live in
// memory next to their capability rows.
type SQLiteRegistry struct {
	db    *sql.DB
	clock clock.Clock

	mu        sync.RWMutex
	instances map[instanceKey]any
}

// NewSQLiteRegistry opens the registry at dbPath. Registrations belong to the
// running process, so rows left by a previous run are cleared.
func NewSQLiteRegistry(dbPath string, clk clock.Clock) (*SQLiteRegistry, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)
	if clk == nil {
		clk = clock.SystemClock{}
	}
	registry := &SQLiteRegistry{db: db, clock: clk, instances: map[instanceKey]any{}}
	if err := registry.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := registry.reset(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return registry, nil
}

func (r *SQLiteRegistry) ensureSchema(ctx context.Context) error {
	const plugins = `
CREATE TABLE IF NOT EXISTS plugins (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  version TEXT NOT NULL,
  vendor TEXT NOT NULL,
  bundle_path TEXT NOT NULL,
  registered_at TEXT NOT NULL
);
`
	const capabilities = `
CREATE TABLE IF NOT EXISTS plugin_capabilities (
  plugin_id TEXT NOT NULL REFERENCES plugins(id),
  extension_point TEXT NOT NULL,
  contract TEXT NOT NULL,
  PRIMARY KEY (plugin_id, extension_point, contract)
);
`
	if _, err := r.db.ExecContext(ctx, plugins); err != nil {
		return fmt.Errorf("create plugins table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, capabilities); err != nil {
		return fmt.Errorf("create plugin_capabilities table: %w", err)
	}
	return nil
}

func (r *SQLiteRegistry) reset(ctx context.Context) error {
	for _, stmt := range []string{`DELETE FROM plugin_capabilities`, `DELETE FROM plugins`} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset registry: %w", err)
		}
	}
	return nil
}

// Register records that descriptor serves point through contract. Direct
// registrations must carry the in-process instance.
func (r *SQLiteRegistry) Register(ctx context.Context, descriptor domain.PluginDescriptor, point domain.ExtensionPoint, contract domain.Contract, instance any) error {
	if err := descriptor.Validate(); err != nil {
		return err
	}
	if err := point.Validate(); err != nil {
		return err
	}
	if err := contract.Validate(); err != nil {
		return err
	}
	key := instanceKey{point: point, pluginID: descriptor.ID}
	if contract == domain.ContractDirect {
		if instance == nil {
			return fmt.Errorf("direct registration of %s for %s needs an instance", descriptor.ID, point)
		}
		// publish the instance before the row so a resolver never sees the capability without it
		r.mu.Lock()
		r.instances[key] = instance
		r.mu.Unlock()
	}

	if err := r.insert(ctx, descriptor, point, contract); err != nil {
		if contract == domain.ContractDirect {
			r.mu.Lock()
			delete(r.instances, key)
			r.mu.Unlock()
		}
		return err
	}
	return nil
}

func (r *SQLiteRegistry) insert(ctx context.Context, descriptor domain.PluginDescriptor, point domain.ExtensionPoint, contract domain.Contract) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin register: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsertPlugin = `
INSERT INTO plugins (id, name, version, vendor, bundle_path, registered_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  version=excluded.version,
  vendor=excluded.vendor,
  bundle_path=excluded.bundle_path;
`
	if _, err := tx.ExecContext(ctx, upsertPlugin,
		descriptor.ID,
		descriptor.Name,
		descriptor.Version,
		descriptor.Vendor,
		descriptor.BundlePath,
		r.clock.Now().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("upsert plugin %s: %w", descriptor.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO plugin_capabilities (plugin_id, extension_point, contract) VALUES (?, ?, ?)`,
		descriptor.ID, string(point), string(contract),
	); err != nil {
		return fmt.Errorf("insert capability %s/%s for %s: %w", point, contract, descriptor.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit register: %w", err)
	}
	return nil
}

// Unregister forgets the plugin and every capability it declared. Unknown
// ids report domain.ErrPluginNotFound.
func (r *SQLiteRegistry) Unregister(ctx context.Context, pluginID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unregister: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM plugin_capabilities WHERE plugin_id = ?`, pluginID); err != nil {
		return fmt.Errorf("delete capabilities of %s: %w", pluginID, err)
	}
	deleted, err := tx.ExecContext(ctx, `DELETE FROM plugins WHERE id = ?`, pluginID)
	if err != nil {
		return fmt.Errorf("delete plugin %s: %w", pluginID, err)
	}
	if n, err := deleted.RowsAffected(); err != nil {
		return fmt.Errorf("delete plugin %s: %w", pluginID, err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPluginNotFound, pluginID)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unregister: %w", err)
	}

	r.mu.Lock()
	for key := range r.instances {
		if key.pluginID == pluginID {
			delete(r.instances, key)
		}
	}
	r.mu.Unlock()
	return nil
}

func (r *SQLiteRegistry) Descriptor(ctx context.Context, pluginID string) (domain.PluginDescriptor, bool, error) {
	var d domain.PluginDescriptor
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, version, vendor, bundle_path FROM plugins WHERE id = ?`, pluginID,
	).Scan(&d.ID, &d.Name, &d.Version, &d.Vendor, &d.BundlePath)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PluginDescriptor{}, false, nil
	}
	if err != nil {
		return domain.PluginDescriptor{}, false, fmt.Errorf("query plugin %s: %w", pluginID, err)
	}
	return d, true, nil
}

func (r *SQLiteRegistry) HasDirectCapability(ctx context.Context, point domain.ExtensionPoint, pluginID string) (bool, error) {
	return r.hasCapability(ctx, point, pluginID, domain.ContractDirect)
}

func (r *SQLiteRegistry) HasMessageCapability(ctx context.Context, point domain.ExtensionPoint, pluginID string) (bool, error) {
	return r.hasCapability(ctx, point, pluginID, domain.ContractMessage)
}

func (r *SQLiteRegistry) hasCapability(ctx context.Context, point domain.ExtensionPoint, pluginID string, contract domain.Contract) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM plugin_capabilities WHERE plugin_id = ? AND extension_point = ? AND contract = ?)`,
		pluginID, string(point), string(contract),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query %s capability of %s: %w", contract, pluginID, err)
	}
	return exists, nil
}

func (r *SQLiteRegistry) DirectInstance(_ context.Context, point domain.ExtensionPoint, pluginID string) (any, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instance, ok := r.instances[instanceKey{point: point, pluginID: pluginID}]
	return instance, ok, nil
}

// List returns every registered plugin ordered by id.
func (r *SQLiteRegistry) List(ctx context.Context) ([]domain.RegisteredPlugin, error) {
	const query = `
SELECT p.id, p.name, p.version, p.vendor, p.bundle_path, p.registered_at, c.extension_point, c.contract
FROM plugins p
LEFT JOIN plugin_capabilities c ON c.plugin_id = p.id
ORDER BY p.id, c.extension_point, c.contract;
`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}
	defer rows.Close()

	var out []domain.RegisteredPlugin
	for rows.Next() {
		var (
			d          domain.PluginDescriptor
			registered string
			point      sql.NullString
			contract   sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Version, &d.Vendor, &d.BundlePath, &registered, &point, &contract); err != nil {
			return nil, fmt.Errorf("scan plugin row: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Descriptor.ID != d.ID {
			at, err := time.Parse(timeLayout, registered)
			if err != nil {
				return nil, fmt.Errorf("parse registered_at of %s: %w", d.ID, err)
			}
			out = append(out, domain.RegisteredPlugin{Descriptor: d, RegisteredAt: at})
		}
		if point.Valid && contract.Valid {
			last := &out[len(out)-1]
			last.Capabilities = append(last.Capabilities, domain.Capability{
				Point:    domain.ExtensionPoint(point.String),
				Contract: domain.Contract(contract.String),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plugins: %w", err)
	}
	return out, nil
}

func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}
