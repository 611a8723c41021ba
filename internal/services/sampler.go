package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// sampleLimit caps each showcase result set.
const sampleLimit = 10

// CitationNeighbors is the one-hop citation neighborhood of an opinion.
// The graph contains cycles and self-loops; both lists are one hop only
// and a self-loop contributes the opinion itself exactly once.
type CitationNeighbors struct {
	OpinionID int64

	// CitedBy are the opinions citing this one.
	CitedBy []int64

	// Cites are the opinions this one cites.
	Cites []int64
}

// SampleService runs read-only showcase queries against a finalized
// corpus: per-court volume, recent cases, opinion type distribution,
// citation ranking, and one-hop citation lookups. Nothing here traverses
// the citation graph recursively.
//
// Thread-Safety: safe for concurrent use; the service is stateless.
type SampleService struct {
	logger corpusdb.Logger
	dbConn dbConnFunc

	// now is swapped in tests to pin the recent-cases window.
	now func() time.Time
}

// NewSampleService creates a SampleService with all dependencies injected.
// Panics on nil dependencies.
func NewSampleService(connectorFactory ConnectorFactory, logger corpusdb.Logger) *SampleService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &SampleService{
		logger: logger,
		dbConn: defaultDBConn(connectorFactory),
		now:    time.Now,
	}
}

// Run executes the showcase query set and logs the results. Intended as a
// smoke test that the finalized schema answers real questions at index
// speed.
func (s *SampleService) Run(ctx context.Context, config corpusdb.VerifyConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	ctx, cancel := stageContext(ctx, config.Timeout)
	defer cancel()

	connConfig, err := resolveConnConfig(
		config.ConnectionString, config.AuthMethod,
		config.AWSRegion, config.GoogleInstance,
		config.AzureTenantID, config.AzureClientID, config.AzureClientSecret,
	)
	if err != nil {
		return err
	}

	conn, cleanup, err := s.dbConn(ctx, connConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := s.courtStats(ctx, conn); err != nil {
		return err
	}
	if err := s.recentCases(ctx, conn); err != nil {
		return err
	}
	if err := s.opinionTypes(ctx, conn); err != nil {
		return err
	}
	return s.mostCited(ctx, conn)
}

// Citations returns the one-hop citation neighborhood of an opinion.
// A positive minDepth restricts the lookup to edges of at least that
// depth; zero disables the filter.
func (s *SampleService) Citations(ctx context.Context, config corpusdb.VerifyConfig, opinionID, minDepth int64) (CitationNeighbors, error) {
	if err := config.Validate(); err != nil {
		return CitationNeighbors{}, err
	}
	if minDepth < 0 {
		return CitationNeighbors{}, fmt.Errorf("minimum depth cannot be negative: %w", corpusdb.ErrInvalidConfig)
	}

	ctx, cancel := stageContext(ctx, config.Timeout)
	defer cancel()

	connConfig, err := resolveConnConfig(
		config.ConnectionString, config.AuthMethod,
		config.AWSRegion, config.GoogleInstance,
		config.AzureTenantID, config.AzureClientID, config.AzureClientSecret,
	)
	if err != nil {
		return CitationNeighbors{}, err
	}

	conn, cleanup, err := s.dbConn(ctx, connConfig)
	if err != nil {
		return CitationNeighbors{}, err
	}
	defer cleanup()

	return CitationsFor(ctx, conn, opinionID, minDepth)
}

// CitationsFor runs the one-hop lookups on an existing connection.
func CitationsFor(ctx context.Context, conn corpusdb.DBConnection, opinionID, minDepth int64) (CitationNeighbors, error) {
	neighbors := CitationNeighbors{OpinionID: opinionID}

	citedBy, err := collectIDs(ctx, conn, queryCitedBy, opinionID, minDepth)
	if err != nil {
		return neighbors, fmt.Errorf("opinions citing %d: %w", opinionID, err)
	}
	neighbors.CitedBy = citedBy

	cites, err := collectIDs(ctx, conn, queryCites, opinionID, minDepth)
	if err != nil {
		return neighbors, fmt.Errorf("opinions cited by %d: %w", opinionID, err)
	}
	neighbors.Cites = cites

	return neighbors, nil
}

// CaseOpinion is one opinion found by a case-name search.
type CaseOpinion struct {
	OpinionID int64
	DocketID  int64
	CaseName  string
	DateFiled *time.Time
	Type      string
}

// OpinionsByCaseName finds all opinions whose docket's case name matches
// the given ILIKE pattern, walking docket -> cluster -> opinion.
func (s *SampleService) OpinionsByCaseName(ctx context.Context, config corpusdb.VerifyConfig, pattern string) ([]CaseOpinion, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if pattern == "" {
		return nil, fmt.Errorf("case name pattern is required: %w", corpusdb.ErrInvalidConfig)
	}

	ctx, cancel := stageContext(ctx, config.Timeout)
	defer cancel()

	connConfig, err := resolveConnConfig(
		config.ConnectionString, config.AuthMethod,
		config.AWSRegion, config.GoogleInstance,
		config.AzureTenantID, config.AzureClientID, config.AzureClientSecret,
	)
	if err != nil {
		return nil, err
	}

	conn, cleanup, err := s.dbConn(ctx, connConfig)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return OpinionsForCaseName(ctx, conn, pattern)
}

// OpinionsForCaseName runs the case-name search on an existing connection.
func OpinionsForCaseName(ctx context.Context, conn corpusdb.DBConnection, pattern string) ([]CaseOpinion, error) {
	rows, err := conn.Query(ctx, queryOpinionsByCaseName, pattern)
	if err != nil {
		return nil, fmt.Errorf("opinions under case name %q: %w", pattern, err)
	}
	defer rows.Close()

	var opinions []CaseOpinion
	for rows.Next() {
		var (
			op       CaseOpinion
			caseName *string
			opType   *string
		)
		if err := rows.Scan(&op.OpinionID, &op.DocketID, &caseName, &op.DateFiled, &opType); err != nil {
			return nil, err
		}
		op.CaseName = deref(caseName)
		op.Type = deref(opType)
		opinions = append(opinions, op)
	}
	return opinions, rows.Err()
}

func collectIDs(ctx context.Context, conn corpusdb.DBConnection, query string, args ...any) ([]int64, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SampleService) courtStats(ctx context.Context, conn corpusdb.DBConnection) error {
	s.logger.Info("--- Court statistics (top %d by docket volume) ---", sampleLimit)

	rows, err := conn.Query(ctx, queryCourtStats, sampleLimit)
	if err != nil {
		return fmt.Errorf("court statistics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			shortName    *string
			jurisdiction *string
			dockets      int64
			clusters     int64
		)
		if err := rows.Scan(&shortName, &jurisdiction, &dockets, &clusters); err != nil {
			return err
		}
		s.logger.Info("  %-40s [%s] dockets=%d clusters=%d",
			deref(shortName), deref(jurisdiction), dockets, clusters)
	}
	return rows.Err()
}

func (s *SampleService) recentCases(ctx context.Context, conn corpusdb.DBConnection) error {
	since := s.now().AddDate(-1, 0, 0).Format(corpusdb.SnapshotDateLayout)
	s.logger.Info("--- Cases filed since %s ---", since)

	rows, err := conn.Query(ctx, queryRecentCases, since, sampleLimit)
	if err != nil {
		return fmt.Errorf("recent cases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			caseName  *string
			court     *string
			dateFiled *time.Time
			status    *string
		)
		if err := rows.Scan(&caseName, &court, &dateFiled, &status); err != nil {
			return err
		}
		filed := ""
		if dateFiled != nil {
			filed = dateFiled.Format(corpusdb.SnapshotDateLayout)
		}
		s.logger.Info("  %s  %s (%s, %s)", filed, truncate(deref(caseName), 70), deref(court), deref(status))
	}
	return rows.Err()
}

func (s *SampleService) opinionTypes(ctx context.Context, conn corpusdb.DBConnection) error {
	s.logger.Info("--- Opinion type distribution ---")

	rows, err := conn.Query(ctx, queryOpinionTypes)
	if err != nil {
		return fmt.Errorf("opinion types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			opinionType *string
			count       int64
		)
		if err := rows.Scan(&opinionType, &count); err != nil {
			return err
		}
		s.logger.Info("  %-20s %d", deref(opinionType), count)
	}
	return rows.Err()
}

func (s *SampleService) mostCited(ctx context.Context, conn corpusdb.DBConnection) error {
	s.logger.Info("--- Most cited opinions (top %d) ---", sampleLimit)

	rows, err := conn.Query(ctx, queryMostCited, sampleLimit)
	if err != nil {
		return fmt.Errorf("most cited: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id        int64
			caseName  *string
			court     *string
			dateFiled *time.Time
			citations int64
		)
		if err := rows.Scan(&id, &caseName, &court, &dateFiled, &citations); err != nil {
			return err
		}
		s.logger.Info("  opinion %-10d %-60s %s citations=%d",
			id, truncate(deref(caseName), 60), deref(court), citations)
	}
	return rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
