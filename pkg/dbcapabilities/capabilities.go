package dbcapabilities

import "strings"

// DatabaseID is the canonical identifier for a database technology this tool
// can target. Use these constants to look up capability information.
type DatabaseID string

const (
	// Spanner is Google Cloud Spanner, the managed distributed SQL database
	// this tool provisions.
	Spanner DatabaseID = "spanner"

	// PostgreSQL is listed for dialect labeling: a Spanner database created in
	// the PostgreSQL dialect speaks PostgreSQL-compatible SQL.
	PostgreSQL DatabaseID = "postgres"
)

// Dialect enumerates the SQL syntax variants a Spanner database can be
// configured with at creation time. The dialect is immutable per database.
type Dialect string

const (
	DialectGoogleSQL  Dialect = "google_standard_sql"
	DialectPostgreSQL Dialect = "postgresql"
)

// Capability describes what a database target supports so the workflow can
// make decisions based on uniform metadata.
type Capability struct {
	// Human-friendly vendor or product name, e.g., "Cloud Spanner".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see DatabaseID constants).
	ID DatabaseID `json:"id"`

	// Whether the database is addressed through a cloud resource hierarchy
	// (project/instance/database) rather than host:port.
	CloudManaged bool `json:"cloudManaged"`

	// Dialects the database can be created with. Empty means the database
	// speaks exactly one fixed dialect.
	Dialects []Dialect `json:"dialects,omitempty"`

	// Whether the server assigns commit timestamps that DML can reference
	// (e.g. SPANNER.PENDING_COMMIT_TIMESTAMP()).
	SupportsCommitTimestamp bool `json:"supportsCommitTimestamp"`

	// Whether schema changes are applied through asynchronous administrative
	// operations that the caller must await.
	AsyncDDL bool `json:"asyncDDL"`

	// Common aliases (directory names, drivers, env labels) that map to this
	// database.
	Aliases []string `json:"aliases,omitempty"`
}

// All is a registry of capabilities keyed by the canonical database ID.
var All = map[DatabaseID]Capability{
	Spanner: {
		Name:                    "Cloud Spanner",
		ID:                      Spanner,
		CloudManaged:            true,
		Dialects:                []Dialect{DialectGoogleSQL, DialectPostgreSQL},
		SupportsCommitTimestamp: true,
		AsyncDDL:                true,
		Aliases:                 []string{"cloudspanner", "spanner-pg", "google-cloud-spanner"},
	},
	PostgreSQL: {
		Name:                    "PostgreSQL",
		ID:                      PostgreSQL,
		CloudManaged:            false,
		SupportsCommitTimestamp: false,
		AsyncDDL:                false,
		Aliases:                 []string{"postgresql", "pgsql"},
	},
}

// nameToID is a normalized lookup index from any known name/alias to the
// canonical DatabaseID.
var nameToID map[string]DatabaseID

func init() {
	nameToID = make(map[string]DatabaseID, len(All)*2)
	for id, cap := range All {
		nameToID[strings.ToLower(string(id))] = id
		if cap.Name != "" {
			nameToID[strings.ToLower(cap.Name)] = id
		}
		for _, a := range cap.Aliases {
			if a == "" {
				continue
			}
			nameToID[strings.ToLower(a)] = id
		}
	}
}

// Get returns the Capability for a canonical database ID.
func Get(id DatabaseID) (Capability, bool) {
	cap, ok := All[id]
	return cap, ok
}

// MustGet returns the Capability for a canonical database ID or panics if
// unknown. Use only with the package's own constants.
func MustGet(id DatabaseID) Capability {
	cap, ok := Get(id)
	if !ok {
		panic("dbcapabilities: unknown database id: " + string(id))
	}
	return cap
}

// ParseID attempts to resolve an arbitrary database name (canonical id, alias,
// or product name) to a canonical DatabaseID. Returns false if unknown.
func ParseID(name string) (DatabaseID, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	id, ok := nameToID[n]
	return id, ok
}

// GetByName returns the Capability by looking up using a free-form name (id or
// alias).
func GetByName(name string) (Capability, bool) {
	if id, ok := ParseID(name); ok {
		return Get(id)
	}
	return Capability{}, false
}

// SupportsDialect reports whether the database can be created with the given
// dialect.
func SupportsDialect(id DatabaseID, dialect Dialect) bool {
	cap, ok := Get(id)
	if !ok {
		return false
	}
	for _, d := range cap.Dialects {
		if d == dialect {
			return true
		}
	}
	return false
}
