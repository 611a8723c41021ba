package services

// SQL constants for the pipeline stages.
// Centralizing queries here keeps SQL separate from Go code. Statements
// that interpolate a table or constraint name are built in their service;
// every name comes from the static schema declaration, never from input.

const (
	// queryConstraintExists checks whether a named constraint already
	// exists on a table, making the finalizer's FK pass idempotent.
	// Parameters: $1 constraint name, $2 table name.
	queryConstraintExists = `
		SELECT EXISTS(
			SELECT 1 FROM pg_constraint
			WHERE conname = $1 AND conrelid = $2::regclass
		)
	`

	// queryCourtStats summarizes docket and cluster volume per active court.
	queryCourtStats = `
		SELECT
			c.short_name,
			c.jurisdiction,
			COUNT(DISTINCT d.id) AS docket_count,
			COUNT(DISTINCT oc.id) AS cluster_count
		FROM courts c
		LEFT JOIN dockets d ON c.id = d.court_id
		LEFT JOIN opinion_clusters oc ON d.id = oc.docket_id
		WHERE c.in_use = true
		GROUP BY c.id, c.short_name, c.jurisdiction
		ORDER BY docket_count DESC
		LIMIT $1
	`

	// queryRecentCases lists the most recently filed cases on or after a date.
	queryRecentCases = `
		SELECT
			d.case_name,
			c.short_name AS court,
			oc.date_filed,
			oc.precedential_status
		FROM opinion_clusters oc
		JOIN dockets d ON oc.docket_id = d.id
		JOIN courts c ON d.court_id = c.id
		WHERE oc.date_filed >= $1
		ORDER BY oc.date_filed DESC
		LIMIT $2
	`

	// queryOpinionTypes counts opinions per type.
	queryOpinionTypes = `
		SELECT type, COUNT(*) AS count
		FROM opinions
		GROUP BY type
		ORDER BY count DESC
	`

	// queryMostCited ranks opinions by inbound citation count.
	queryMostCited = `
		SELECT
			o.id,
			oc.case_name,
			c.short_name AS court,
			oc.date_filed,
			COUNT(cm.id) AS citation_count
		FROM opinions o
		JOIN opinion_clusters oc ON o.cluster_id = oc.id
		JOIN dockets d ON oc.docket_id = d.id
		JOIN courts c ON d.court_id = c.id
		JOIN citation_map cm ON o.id = cm.cited_opinion_id
		GROUP BY o.id, oc.case_name, c.short_name, oc.date_filed
		ORDER BY citation_count DESC
		LIMIT $1
	`

	// queryOpinionsByCaseName finds every opinion filed under a matching
	// case name, walking docket -> cluster -> opinion. The pattern is a
	// LIKE expression matched case-insensitively against the docket's
	// case name.
	queryOpinionsByCaseName = `
		SELECT
			o.id,
			d.id AS docket_id,
			d.case_name,
			oc.date_filed,
			o.type
		FROM dockets d
		JOIN opinion_clusters oc ON oc.docket_id = d.id
		JOIN opinions o ON o.cluster_id = oc.id
		WHERE d.case_name ILIKE $1
		ORDER BY oc.date_filed DESC, o.id
	`

	// queryCitedBy returns the opinions that cite a given opinion, one hop,
	// optionally restricted to edges of at least a minimum depth ($2 = 0
	// disables the filter). DISTINCT collapses duplicate edges; a self-loop
	// row yields the opinion itself exactly once. The graph is never
	// traversed recursively.
	queryCitedBy = `
		SELECT DISTINCT citing_opinion_id
		FROM citation_map
		WHERE cited_opinion_id = $1
		  AND ($2 = 0 OR depth >= $2)
		ORDER BY citing_opinion_id
	`

	// queryCites returns the opinions a given opinion cites, one hop, with
	// the same optional minimum-depth filter.
	queryCites = `
		SELECT DISTINCT cited_opinion_id
		FROM citation_map
		WHERE citing_opinion_id = $1
		  AND ($2 = 0 OR depth >= $2)
		ORDER BY cited_opinion_id
	`
)
