// Package schema holds the ordered DDL catalog for the LiteLLM token database
// in Spanner PostgreSQL dialect, plus the batching used to apply it.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Prefix is the table-name prefix shared by every object this tool owns.
// The verifier matches catalog entries against it.
const Prefix = "litellm_"

// DefaultBatchSize is the number of DDL statements submitted per
// administrative operation.
const DefaultBatchSize = 5

// TableStatements creates the five LiteLLM tables. Statement order is part of
// the contract: every statement in IndexStatements references a table declared
// here, and ApplySchema submits the combined sequence in order.
//
// Types follow Spanner's PostgreSQL dialect: character varying keys for
// uniform key distribution, jsonb for flexible metadata, character varying[]
// arrays, and SPANNER.COMMIT_TIMESTAMP columns for created/updated tracking.
// No DEFAULT clauses; defaults are handled at the application level.
var TableStatements = []string{
	`CREATE TABLE litellm_usertable (
    user_id character varying NOT NULL,
    user_email character varying,
    user_role character varying(50),
    teams character varying[],
    max_budget double precision,
    spend double precision,
    user_list_table_id character varying,
    table_name character varying(50),
    created_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    updated_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id)
)`,

	`CREATE TABLE litellm_teamtable (
    team_id character varying NOT NULL,
    team_alias character varying,
    organization_id character varying,
    team_metadata jsonb,
    max_budget double precision,
    spend double precision,
    models character varying[],
    blocked boolean,
    created_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    updated_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    PRIMARY KEY (team_id)
)`,

	`CREATE TABLE litellm_proxymodeltable (
    id character varying NOT NULL,
    model_name character varying(200),
    litellm_params jsonb,
    model_info jsonb,
    created_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    updated_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    PRIMARY KEY (id)
)`,

	`CREATE TABLE litellm_usagetable (
    request_id character varying NOT NULL,
    call_type character varying(50),
    api_key character varying,
    spend double precision,
    total_tokens bigint,
    prompt_tokens bigint,
    completion_tokens bigint,
    successful_requests bigint,
    failed_requests bigint,
    model character varying(200),
    model_id character varying,
    model_group character varying,
    api_base character varying,
    user_id character varying,
    team_id character varying,
    organization_id character varying,
    request_tags character varying[],
    end_user character varying,
    requester_ip_address character varying(45),
    starttime timestamptz,
    endtime timestamptz,
    completionstarttime timestamptz,
    created_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    updated_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    PRIMARY KEY (request_id)
)`,

	`CREATE TABLE litellm_verificationtoken (
    token character varying NOT NULL,
    key_name character varying,
    key_alias character varying,
    spend double precision,
    max_budget double precision,
    user_id character varying,
    team_id character varying,
    max_parallel_requests bigint,
    metadata jsonb,
    tpm_limit double precision,
    rpm_limit double precision,
    model_spend jsonb,
    model_max_budget jsonb,
    expires timestamptz,
    models character varying[],
    aliases jsonb,
    config jsonb,
    blocked boolean,
    created_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    updated_at SPANNER.COMMIT_TIMESTAMP NOT NULL,
    PRIMARY KEY (token)
)`,
}

// IndexStatements covers the common query patterns on the usage and token
// tables. These must always follow TableStatements in the applied sequence.
var IndexStatements = []string{
	`CREATE INDEX idx_usage_user_id ON litellm_usagetable(user_id)`,
	`CREATE INDEX idx_usage_team_id ON litellm_usagetable(team_id)`,
	`CREATE INDEX idx_usage_model ON litellm_usagetable(model)`,
	`CREATE INDEX idx_usage_created_at ON litellm_usagetable(created_at)`,
	`CREATE INDEX idx_verification_user_id ON litellm_verificationtoken(user_id)`,
	`CREATE INDEX idx_verification_team_id ON litellm_verificationtoken(team_id)`,
}

// Statements returns the full ordered DDL sequence: all tables, then all
// indexes. Callers must preserve this order across batch boundaries.
func Statements() []string {
	out := make([]string, 0, len(TableStatements)+len(IndexStatements))
	out = append(out, TableStatements...)
	out = append(out, IndexStatements...)
	return out
}

// TableNames returns the names of the expected tables in lexicographic order.
func TableNames() []string {
	names := make([]string, 0, len(TableStatements))
	for _, stmt := range TableStatements {
		if name, ok := createdTable(stmt); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks the ordering invariant on the full statement sequence:
// every CREATE INDEX must reference a table created by an earlier statement.
// Batching at any size is then safe, because chunks preserve order.
func Validate() error {
	return validateOrder(Statements())
}

func validateOrder(statements []string) error {
	created := make(map[string]bool, len(statements))
	for i, stmt := range statements {
		if name, ok := createdTable(stmt); ok {
			created[name] = true
			continue
		}
		table, ok := indexedTable(stmt)
		if !ok {
			return fmt.Errorf("statement %d is neither CREATE TABLE nor CREATE INDEX: %.40q", i, stmt)
		}
		if !created[table] {
			return fmt.Errorf("statement %d indexes %q before its CREATE TABLE", i, table)
		}
	}
	return nil
}

// Batches splits the full DDL sequence into order-preserving chunks of at
// most size statements. size must be at least 1.
func Batches(size int) ([][]string, error) {
	if size < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", size)
	}
	stmts := Statements()
	var batches [][]string
	for i := 0; i < len(stmts); i += size {
		end := i + size
		if end > len(stmts) {
			end = len(stmts)
		}
		batches = append(batches, stmts[i:end])
	}
	return batches, nil
}

// createdTable extracts the table name from a CREATE TABLE statement.
func createdTable(stmt string) (string, bool) {
	rest, ok := cutPrefixFold(strings.TrimSpace(stmt), "CREATE TABLE ")
	if !ok {
		return "", false
	}
	return leadingIdentifier(rest), true
}

// indexedTable extracts the referenced table name from a CREATE INDEX
// statement.
func indexedTable(stmt string) (string, bool) {
	rest, ok := cutPrefixFold(strings.TrimSpace(stmt), "CREATE INDEX ")
	if !ok {
		return "", false
	}
	_, after, found := strings.Cut(rest, " ON ")
	if !found {
		return "", false
	}
	return leadingIdentifier(after), true
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func leadingIdentifier(s string) string {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == '(' || r == ' ' || r == '\n' || r == '\t'
	})
	if end == -1 {
		return s
	}
	return s[:end]
}
