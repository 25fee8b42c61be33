package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
)

// fakeBackend is an in-memory stand-in for a managed database instance. It
// tracks call counts so tests can assert short-circuiting behavior.
type fakeBackend struct {
	mu sync.Mutex

	instanceExists bool
	databases      map[string]*fakeDB
	dialects       map[string]string

	connectErr         error
	connectInstanceErr error
	instanceExistsErr  error
	databaseExistsErr  error
	createErr          error

	// snapshotErr fails every snapshot query; livenessRows overrides the
	// default single-row liveness result.
	snapshotErr  error
	livenessRows []dbadapter.Row

	// failDDLBatch, when >= 0, fails the Nth ApplyDDL call.
	failDDLBatch int
	ddlCalls     int

	instanceExistsCalls int
	databaseExistsCalls int
	createCalls         int
	listDatabasesCalls  int
	getVersionCalls     int
	collectMetaCalls    int
	rowCountCalls       int
}

// fakeDB holds tables as pk-keyed row maps plus the index catalog.
type fakeDB struct {
	tables  map[string]map[string]dbadapter.Row
	indexes map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		instanceExists: true,
		databases:      make(map[string]*fakeDB),
		dialects:       make(map[string]string),
		failDDLBatch:   -1,
	}
}

// addDatabase pre-creates an empty database.
func (b *fakeBackend) addDatabase(name string) *fakeDB {
	db := &fakeDB{
		tables:  make(map[string]map[string]dbadapter.Row),
		indexes: make(map[string]string),
	}
	b.databases[name] = db
	return db
}

// rowCount totals rows across all tables of one database.
func (b *fakeBackend) rowCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	db := b.databases[name]
	if db == nil {
		return 0
	}
	n := 0
	for _, rows := range db.tables {
		n += len(rows)
	}
	return n
}

// fakeAdapter implements dbadapter.DatabaseAdapter over a fakeBackend.
type fakeAdapter struct {
	backend *fakeBackend
}

func (a *fakeAdapter) Type() dbcapabilities.DatabaseID { return dbcapabilities.Spanner }

func (a *fakeAdapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.Spanner)
}

func (a *fakeAdapter) Connect(ctx context.Context, config dbadapter.ConnectionConfig) (dbadapter.Connection, error) {
	if a.backend.connectErr != nil {
		return nil, a.backend.connectErr
	}
	return &fakeConn{backend: a.backend, database: config.DatabaseName, config: config, adapter: a}, nil
}

func (a *fakeAdapter) ConnectInstance(ctx context.Context, config dbadapter.InstanceConfig) (dbadapter.InstanceConnection, error) {
	if a.backend.connectInstanceErr != nil {
		return nil, a.backend.connectInstanceErr
	}
	return &fakeInstanceConn{backend: a.backend, config: config, adapter: a}, nil
}

// newFakeRegistry builds a registry with a fake adapter over backend.
func newFakeRegistry(backend *fakeBackend) *dbadapter.Registry {
	r := dbadapter.NewRegistry()
	r.Register(&fakeAdapter{backend: backend})
	return r
}

// fakeInstanceConn implements dbadapter.InstanceConnection.
type fakeInstanceConn struct {
	backend *fakeBackend
	config  dbadapter.InstanceConfig
	adapter *fakeAdapter
	closed  bool
}

func (c *fakeInstanceConn) ID() string                       { return "fake-instance" }
func (c *fakeInstanceConn) Type() dbcapabilities.DatabaseID  { return dbcapabilities.Spanner }
func (c *fakeInstanceConn) IsConnected() bool                { return !c.closed }
func (c *fakeInstanceConn) Ping(ctx context.Context) error   { return nil }
func (c *fakeInstanceConn) Close() error                     { c.closed = true; return nil }
func (c *fakeInstanceConn) Raw() interface{}                 { return c.backend }
func (c *fakeInstanceConn) Config() dbadapter.InstanceConfig { return c.config }
func (c *fakeInstanceConn) Adapter() dbadapter.DatabaseAdapter {
	return c.adapter
}

func (c *fakeInstanceConn) InstanceExists(ctx context.Context) (bool, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.instanceExistsCalls++
	if c.backend.instanceExistsErr != nil {
		return false, c.backend.instanceExistsErr
	}
	return c.backend.instanceExists, nil
}

func (c *fakeInstanceConn) DatabaseExists(ctx context.Context, name string) (bool, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.databaseExistsCalls++
	if c.backend.databaseExistsErr != nil {
		return false, c.backend.databaseExistsErr
	}
	_, ok := c.backend.databases[name]
	return ok, nil
}

func (c *fakeInstanceConn) CreateDatabase(ctx context.Context, name string, options map[string]interface{}) error {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.createCalls++
	if c.backend.createErr != nil {
		return c.backend.createErr
	}
	if _, ok := c.backend.databases[name]; ok {
		return fmt.Errorf("database %s already exists", name)
	}
	c.backend.addDatabase(name)
	if d, ok := options["dialect"].(string); ok {
		c.backend.dialects[name] = d
	}
	return nil
}

func (c *fakeInstanceConn) ListDatabases(ctx context.Context) ([]string, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.listDatabasesCalls++
	names := make([]string, 0, len(c.backend.databases))
	for name := range c.backend.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// fakeConn implements dbadapter.Connection.
type fakeConn struct {
	backend  *fakeBackend
	database string
	config   dbadapter.ConnectionConfig
	adapter  *fakeAdapter
	closed   bool
}

func (c *fakeConn) ID() string                                 { return "fake-conn-" + c.database }
func (c *fakeConn) Type() dbcapabilities.DatabaseID            { return dbcapabilities.Spanner }
func (c *fakeConn) IsConnected() bool                          { return !c.closed }
func (c *fakeConn) Ping(ctx context.Context) error             { _, err := c.db(); return err }
func (c *fakeConn) Close() error                               { c.closed = true; return nil }
func (c *fakeConn) Raw() interface{}                           { return c.backend }
func (c *fakeConn) Config() dbadapter.ConnectionConfig         { return c.config }
func (c *fakeConn) Adapter() dbadapter.DatabaseAdapter         { return c.adapter }
func (c *fakeConn) SchemaOperations() dbadapter.SchemaOperator { return &fakeSchemaOps{conn: c} }
func (c *fakeConn) DataOperations() dbadapter.DataOperator     { return &fakeDataOps{conn: c} }
func (c *fakeConn) MetadataOperations() dbadapter.MetadataOperator {
	return &fakeMetadataOps{conn: c}
}

func (c *fakeConn) db() (*fakeDB, error) {
	db := c.backend.databases[c.database]
	if db == nil {
		return nil, fmt.Errorf("database %s not found", c.database)
	}
	return db, nil
}

// fakeSchemaOps applies DDL against the in-memory catalog, enforcing the same
// ordering and uniqueness rules the real backend would.
type fakeSchemaOps struct {
	conn *fakeConn
}

func (s *fakeSchemaOps) ApplyDDL(ctx context.Context, statements []string) error {
	s.conn.backend.mu.Lock()
	defer s.conn.backend.mu.Unlock()

	call := s.conn.backend.ddlCalls
	s.conn.backend.ddlCalls++
	if s.conn.backend.failDDLBatch >= 0 && call == s.conn.backend.failDDLBatch {
		return fmt.Errorf("injected ddl failure on call %d", call)
	}

	db, err := s.conn.db()
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if err := applyFakeDDL(db, stmt); err != nil {
			return err
		}
	}
	return nil
}

func applyFakeDDL(db *fakeDB, stmt string) error {
	trimmed := strings.TrimSpace(stmt)
	switch {
	case hasPrefixFold(trimmed, "CREATE TABLE "):
		name := firstWord(trimmed[len("CREATE TABLE "):])
		if _, ok := db.tables[name]; ok {
			return fmt.Errorf("duplicate table %s", name)
		}
		db.tables[name] = make(map[string]dbadapter.Row)
	case hasPrefixFold(trimmed, "CREATE INDEX "):
		rest := trimmed[len("CREATE INDEX "):]
		name := firstWord(rest)
		_, after, found := strings.Cut(rest, " ON ")
		if !found {
			return fmt.Errorf("malformed index statement: %.40q", stmt)
		}
		table := firstWord(after)
		if _, ok := db.tables[table]; !ok {
			return fmt.Errorf("index %s references unknown table %s", name, table)
		}
		if _, ok := db.indexes[name]; ok {
			return fmt.Errorf("duplicate index %s", name)
		}
		db.indexes[name] = table
	default:
		return fmt.Errorf("unsupported statement: %.40q", stmt)
	}
	return nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == '(' || r == ' ' || r == '\n' || r == '\t'
	})
	if end == -1 {
		return s
	}
	return s[:end]
}

func (s *fakeSchemaOps) ListTables(ctx context.Context) ([]string, error) {
	return s.ListTablesWithPrefix(ctx, "")
}

func (s *fakeSchemaOps) ListTablesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	s.conn.backend.mu.Lock()
	defer s.conn.backend.mu.Unlock()
	db, err := s.conn.db()
	if err != nil {
		return nil, err
	}
	var names []string
	for name := range db.tables {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// fakeDataOps dispatches on the workflow's query strings rather than parsing
// SQL. Unknown statements are an error so new queries cannot silently pass.
type fakeDataOps struct {
	conn *fakeConn
}

func (d *fakeDataOps) Snapshot(ctx context.Context, sql string, params map[string]interface{}) ([]dbadapter.Row, error) {
	d.conn.backend.mu.Lock()
	defer d.conn.backend.mu.Unlock()
	db, err := d.conn.db()
	if err != nil {
		return nil, err
	}
	if d.conn.backend.snapshotErr != nil {
		return nil, d.conn.backend.snapshotErr
	}

	switch {
	case sql == livenessQuery:
		if d.conn.backend.livenessRows != nil {
			return d.conn.backend.livenessRows, nil
		}
		return []dbadapter.Row{{"?column?": int64(1)}}, nil

	case strings.HasPrefix(sql, "SELECT 1 FROM "):
		table := strings.TrimSuffix(strings.TrimPrefix(sql, "SELECT 1 FROM "), " LIMIT 1")
		rows, ok := db.tables[table]
		if !ok {
			return nil, fmt.Errorf("table %s not found", table)
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return []dbadapter.Row{{"?column?": int64(1)}}, nil

	case sql == sampleSelectUserSQL:
		return lookupRow(db, "litellm_usertable", params["p1"])

	case sql == sampleSelectTokenSQL:
		return lookupRow(db, "litellm_verificationtoken", params["p1"])

	default:
		return nil, fmt.Errorf("unexpected query: %.60q", sql)
	}
}

func lookupRow(db *fakeDB, table string, key interface{}) ([]dbadapter.Row, error) {
	rows, ok := db.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s not found", table)
	}
	k, _ := key.(string)
	row, ok := rows[k]
	if !ok {
		return nil, nil
	}
	return []dbadapter.Row{row}, nil
}

func (d *fakeDataOps) ReadWrite(ctx context.Context, fn func(ctx context.Context, tx dbadapter.WriteTx) error) error {
	d.conn.backend.mu.Lock()
	defer d.conn.backend.mu.Unlock()
	db, err := d.conn.db()
	if err != nil {
		return err
	}

	// Stage mutations so an aborted transaction leaves nothing behind.
	staged := &fakeTx{db: db, writes: make(map[string]map[string]dbadapter.Row), deletes: make(map[string]map[string]bool)}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	staged.commit()
	return nil
}

func (d *fakeDataOps) GetRowCount(ctx context.Context, table string) (int64, error) {
	d.conn.backend.mu.Lock()
	defer d.conn.backend.mu.Unlock()
	d.conn.backend.rowCountCalls++
	db, err := d.conn.db()
	if err != nil {
		return 0, err
	}
	rows, ok := db.tables[table]
	if !ok {
		return 0, fmt.Errorf("table %s not found", table)
	}
	return int64(len(rows)), nil
}

// fakeTx buffers writes and deletes until commit.
type fakeTx struct {
	db      *fakeDB
	writes  map[string]map[string]dbadapter.Row
	deletes map[string]map[string]bool
}

func (t *fakeTx) Update(ctx context.Context, sql string, params map[string]interface{}) (int64, error) {
	switch sql {
	case sampleInsertUserSQL:
		userID, _ := params["p1"].(string)
		return t.insert("litellm_usertable", userID, dbadapter.Row{
			"user_id":    userID,
			"user_email": params["p2"],
			"user_role":  params["p3"],
			"max_budget": params["p4"],
			"spend":      params["p5"],
			"table_name": params["p6"],
		})

	case sampleInsertTokenSQL:
		token, _ := params["p1"].(string)
		return t.insert("litellm_verificationtoken", token, dbadapter.Row{
			"token":      token,
			"user_id":    params["p2"],
			"spend":      params["p3"],
			"max_budget": params["p4"],
			"blocked":    params["p5"],
		})

	case sampleDeleteUserSQL:
		return t.stageDelete("litellm_usertable", params["p1"]), nil

	case sampleDeleteTokenSQL:
		return t.stageDelete("litellm_verificationtoken", params["p1"]), nil

	default:
		return 0, fmt.Errorf("unexpected dml: %.60q", sql)
	}
}

// insert enforces table existence and primary-key uniqueness the way the
// real backend does.
func (t *fakeTx) insert(table, key string, row dbadapter.Row) (int64, error) {
	rows, ok := t.db.tables[table]
	if !ok {
		return 0, fmt.Errorf("table %s not found", table)
	}
	if _, dup := rows[key]; dup {
		return 0, fmt.Errorf("row %s already exists in %s", key, table)
	}
	if _, dup := t.writes[table][key]; dup {
		return 0, fmt.Errorf("row %s already exists in %s", key, table)
	}
	if t.writes[table] == nil {
		t.writes[table] = make(map[string]dbadapter.Row)
	}
	t.writes[table][key] = row
	return 1, nil
}

func (t *fakeTx) stageDelete(table string, key interface{}) int64 {
	k, _ := key.(string)
	rows := t.db.tables[table]
	if rows == nil {
		return 0
	}
	if _, ok := rows[k]; !ok {
		return 0
	}
	if t.deletes[table] == nil {
		t.deletes[table] = make(map[string]bool)
	}
	t.deletes[table][k] = true
	return 1
}

func (t *fakeTx) commit() {
	for table, rows := range t.writes {
		for k, row := range rows {
			t.db.tables[table][k] = row
		}
	}
	for table, keys := range t.deletes {
		for k := range keys {
			delete(t.db.tables[table], k)
		}
	}
}

// fakeMetadataOps backs the probe's diagnostic output.
type fakeMetadataOps struct {
	conn *fakeConn
}

func (m *fakeMetadataOps) GetVersion(ctx context.Context) (string, error) {
	m.conn.backend.mu.Lock()
	defer m.conn.backend.mu.Unlock()
	m.conn.backend.getVersionCalls++
	return "PostgreSQL 14.1 (fake)", nil
}

func (m *fakeMetadataOps) CollectDatabaseMetadata(ctx context.Context) (map[string]interface{}, error) {
	m.conn.backend.mu.Lock()
	defer m.conn.backend.mu.Unlock()
	m.conn.backend.collectMetaCalls++
	db, err := m.conn.db()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"dialect":    m.conn.config.Dialect,
		"tableCount": len(db.tables),
	}, nil
}
