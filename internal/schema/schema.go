// Package schema declares the five-table CourtListener citation-graph
// schema in two variants: a load schema (primary keys only) and the
// final-schema additions (foreign keys and indexes) applied after bulk
// load. Validating foreign keys and maintaining indexes during a
// multi-hundred-gigabyte sequential load multiplies load time; deferring
// them to a single post-load pass is strictly faster.
package schema

import (
	"fmt"

	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// Table describes one entity table of the load schema.
type Table struct {
	// Name is the table name as it appears in the database and in
	// snapshot file names.
	Name string

	// CreateSQL is the idempotent load-schema DDL: primary key only,
	// no foreign keys, no secondary indexes.
	CreateSQL string
}

// ForeignKey describes one edge of the referential graph, added by the
// finalizer after all tables are loaded.
type ForeignKey struct {
	Name      string
	Table     string
	Column    string
	RefTable  string
	RefColumn string
}

// AddSQL returns the ALTER TABLE statement that adds and validates the
// constraint against existing rows. A violation aborts the statement and
// names the constraint, which is the pipeline's sole integrity check.
func (fk ForeignKey) AddSQL() string {
	return fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		fk.Table, fk.Name, fk.Column, fk.RefTable, fk.RefColumn,
	)
}

// Index describes one secondary index built by the finalizer.
type Index struct {
	Name   string
	Table  string
	Column string
}

// CreateSQL returns idempotent DDL for the index.
func (ix Index) CreateSQL() string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", ix.Name, ix.Table, ix.Column)
}

// Tables returns the load-schema tables in mandatory load order:
// courts, dockets, opinion_clusters, opinions, citation_map.
// Column sets mirror the CourtListener bulk export.
func Tables() []Table {
	return []Table{
		{
			Name: corpusdb.TableCourts,
			CreateSQL: `CREATE TABLE IF NOT EXISTS courts (
    id VARCHAR(15) PRIMARY KEY,
    pacer_court_id VARCHAR(50),
    pacer_has_rss_feed BOOLEAN,
    pacer_rss_entry_types TEXT,
    date_last_pacer_contact TIMESTAMP,
    fjc_court_id VARCHAR(50),
    date_modified TIMESTAMP,
    in_use BOOLEAN,
    has_opinion_scraper BOOLEAN,
    has_oral_argument_scraper BOOLEAN,
    position NUMERIC,
    citation_string VARCHAR(100),
    short_name VARCHAR(100),
    full_name VARCHAR(200),
    url VARCHAR(500),
    start_date DATE,
    end_date DATE,
    jurisdiction VARCHAR(10),
    notes TEXT,
    parent_court_id VARCHAR(15)
)`,
		},
		{
			Name: corpusdb.TableDockets,
			CreateSQL: `CREATE TABLE IF NOT EXISTS dockets (
    id BIGINT PRIMARY KEY,
    date_created TIMESTAMP,
    date_modified TIMESTAMP,
    source SMALLINT,
    appeal_from_str TEXT,
    assigned_to_str TEXT,
    referred_to_str TEXT,
    panel_str TEXT,
    date_last_index TIMESTAMP,
    date_cert_granted DATE,
    date_cert_denied DATE,
    date_argued DATE,
    date_reargued DATE,
    date_reargument_denied DATE,
    date_filed DATE,
    date_terminated DATE,
    date_last_filing DATE,
    case_name_short TEXT,
    case_name TEXT,
    case_name_full TEXT,
    slug VARCHAR(75),
    docket_number TEXT,
    docket_number_core TEXT,
    pacer_case_id VARCHAR(100),
    cause TEXT,
    nature_of_suit TEXT,
    jury_demand TEXT,
    jurisdiction_type TEXT,
    appellate_fee_status TEXT,
    appellate_case_type_information TEXT,
    mdl_status TEXT,
    filepath_local TEXT,
    filepath_ia TEXT,
    filepath_ia_json TEXT,
    ia_upload_failure_count INTEGER,
    ia_needs_upload BOOLEAN,
    ia_date_first_change TIMESTAMP,
    view_count INTEGER,
    date_blocked DATE,
    blocked BOOLEAN,
    appeal_from_id VARCHAR(15),
    assigned_to_id BIGINT,
    court_id VARCHAR(15),
    idb_data_id BIGINT,
    originating_court_information_id BIGINT,
    referred_to_id BIGINT,
    federal_dn_case_type VARCHAR(50),
    federal_dn_office_code VARCHAR(50),
    federal_dn_judge_initials_assigned VARCHAR(50),
    federal_dn_judge_initials_referred VARCHAR(50),
    federal_defendant_number INTEGER,
    parent_docket_id BIGINT
)`,
		},
		{
			Name: corpusdb.TableOpinionClusters,
			CreateSQL: `CREATE TABLE IF NOT EXISTS opinion_clusters (
    id BIGINT PRIMARY KEY,
    date_created TIMESTAMP,
    date_modified TIMESTAMP,
    judges TEXT,
    date_filed DATE,
    date_filed_is_approximate BOOLEAN,
    slug VARCHAR(75),
    case_name_short TEXT,
    case_name TEXT,
    case_name_full TEXT,
    scdb_id VARCHAR(10),
    scdb_decision_direction SMALLINT,
    scdb_votes_majority INTEGER,
    scdb_votes_minority INTEGER,
    source VARCHAR(10),
    procedural_history TEXT,
    attorneys TEXT,
    nature_of_suit TEXT,
    posture TEXT,
    syllabus TEXT,
    headnotes TEXT,
    summary TEXT,
    disposition TEXT,
    history TEXT,
    other_dates TEXT,
    cross_reference TEXT,
    correction TEXT,
    citation_count INTEGER,
    precedential_status VARCHAR(50),
    date_blocked DATE,
    blocked BOOLEAN,
    filepath_json_harvard TEXT,
    filepath_pdf_harvard TEXT,
    docket_id BIGINT,
    arguments TEXT,
    headmatter TEXT
)`,
		},
		{
			Name: corpusdb.TableOpinions,
			CreateSQL: `CREATE TABLE IF NOT EXISTS opinions (
    id BIGINT PRIMARY KEY,
    date_created TIMESTAMP,
    date_modified TIMESTAMP,
    author_str TEXT,
    per_curiam BOOLEAN,
    joined_by_str TEXT,
    type VARCHAR(20),
    sha1 VARCHAR(40),
    page_count INTEGER,
    download_url VARCHAR(500),
    local_path TEXT,
    plain_text TEXT,
    html TEXT,
    html_lawbox TEXT,
    html_columbia TEXT,
    html_anon_2020 TEXT,
    xml_harvard TEXT,
    html_with_citations TEXT,
    extracted_by_ocr BOOLEAN,
    author_id BIGINT,
    cluster_id BIGINT
)`,
		},
		{
			Name: corpusdb.TableCitationMap,
			CreateSQL: `CREATE TABLE IF NOT EXISTS citation_map (
    id BIGINT PRIMARY KEY,
    depth INTEGER,
    cited_opinion_id BIGINT,
    citing_opinion_id BIGINT
)`,
		},
	}
}

// ForeignKeys returns the eight constraints of the referential graph, in
// the same parent-first order as the load sequence. The citation graph is
// self-referential at the opinion level; cycles and self-loops in
// citation_map are data, not errors, and no constraint forbids them.
func ForeignKeys() []ForeignKey {
	return []ForeignKey{
		{Name: "fk_courts_parent", Table: "courts", Column: "parent_court_id", RefTable: "courts", RefColumn: "id"},
		{Name: "fk_dockets_court", Table: "dockets", Column: "court_id", RefTable: "courts", RefColumn: "id"},
		{Name: "fk_dockets_appeal_from", Table: "dockets", Column: "appeal_from_id", RefTable: "courts", RefColumn: "id"},
		{Name: "fk_dockets_parent", Table: "dockets", Column: "parent_docket_id", RefTable: "dockets", RefColumn: "id"},
		{Name: "fk_opinion_clusters_docket", Table: "opinion_clusters", Column: "docket_id", RefTable: "dockets", RefColumn: "id"},
		{Name: "fk_opinions_cluster", Table: "opinions", Column: "cluster_id", RefTable: "opinion_clusters", RefColumn: "id"},
		{Name: "fk_citation_map_citing", Table: "citation_map", Column: "citing_opinion_id", RefTable: "opinions", RefColumn: "id"},
		{Name: "fk_citation_map_cited", Table: "citation_map", Column: "cited_opinion_id", RefTable: "opinions", RefColumn: "id"},
	}
}

// Indexes returns the nine secondary indexes built after load: foreign-key
// columns for joins, date_filed columns for range queries, case_name for
// text search, and the opinion content hash for dedup lookups.
func Indexes() []Index {
	return []Index{
		{Name: "idx_dockets_court", Table: "dockets", Column: "court_id"},
		{Name: "idx_dockets_date_filed", Table: "dockets", Column: "date_filed"},
		{Name: "idx_dockets_case_name", Table: "dockets", Column: "case_name"},
		{Name: "idx_opinion_clusters_docket", Table: "opinion_clusters", Column: "docket_id"},
		{Name: "idx_opinion_clusters_date_filed", Table: "opinion_clusters", Column: "date_filed"},
		{Name: "idx_opinions_cluster", Table: "opinions", Column: "cluster_id"},
		{Name: "idx_opinions_sha1", Table: "opinions", Column: "sha1"},
		{Name: "idx_citation_map_cited", Table: "citation_map", Column: "cited_opinion_id"},
		{Name: "idx_citation_map_citing", Table: "citation_map", Column: "citing_opinion_id"},
	}
}
