package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

func newTestSampleService(conn corpusdb.DBConnection) (*SampleService, *recordingLogger) {
	logger := &recordingLogger{}
	svc := NewSampleService(dummyFactory, logger)
	svc.dbConn = stubConn(conn)
	return svc, logger
}

func TestCitationsForBothDirections(t *testing.T) {
	conn := &fakeDBConn{
		queryFunc: func(ctx context.Context, sql string, args ...any) (corpusdb.Rows, error) {
			switch sql {
			case queryCitedBy:
				return &fakeRows{values: []int64{12, 98}}, nil
			case queryCites:
				return &fakeRows{values: []int64{7}}, nil
			}
			return nil, errors.New("unexpected query")
		},
	}

	neighbors, err := CitationsFor(context.Background(), conn, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), neighbors.OpinionID)
	assert.Equal(t, []int64{12, 98}, neighbors.CitedBy)
	assert.Equal(t, []int64{7}, neighbors.Cites)
}

func TestCitationsForPassesMinDepth(t *testing.T) {
	var depths []any
	conn := &fakeDBConn{
		queryFunc: func(ctx context.Context, sql string, args ...any) (corpusdb.Rows, error) {
			require.Len(t, args, 2)
			assert.Equal(t, int64(42), args[0])
			depths = append(depths, args[1])
			return &fakeRows{}, nil
		},
	}

	_, err := CitationsFor(context.Background(), conn, 42, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), int64(3)}, depths)
}

func TestCitationsRejectsNegativeMinDepth(t *testing.T) {
	svc, _ := newTestSampleService(&fakeDBConn{})
	config := corpusdb.VerifyConfig{ConnectionString: "postgresql://loader@localhost/corpus"}

	_, err := svc.Citations(context.Background(), config, 42, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, corpusdb.ErrInvalidConfig)
}

func TestCitationsForSelfLoopAppearsOnce(t *testing.T) {
	// The DISTINCT in the lookup queries collapses a self-loop edge to a
	// single row; the service returns the driver's rows as-is.
	conn := &fakeDBConn{
		queryFunc: func(ctx context.Context, sql string, args ...any) (corpusdb.Rows, error) {
			return &fakeRows{values: []int64{42}}, nil
		},
	}

	neighbors, err := CitationsFor(context.Background(), conn, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, neighbors.CitedBy)
	assert.Equal(t, []int64{42}, neighbors.Cites)
}

func TestCitationsForIsolatedOpinion(t *testing.T) {
	conn := &fakeDBConn{}

	neighbors, err := CitationsFor(context.Background(), conn, 7, 0)
	require.NoError(t, err)
	assert.Empty(t, neighbors.CitedBy)
	assert.Empty(t, neighbors.Cites)
}

func TestCitationsForQueryError(t *testing.T) {
	queryErr := errors.New("relation does not exist")
	conn := &fakeDBConn{
		queryFunc: func(ctx context.Context, sql string, args ...any) (corpusdb.Rows, error) {
			return nil, queryErr
		},
	}

	_, err := CitationsFor(context.Background(), conn, 42, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, queryErr)
	assert.Contains(t, err.Error(), "42")
}

func TestOpinionsForCaseName(t *testing.T) {
	filed := time.Date(2020, 3, 14, 0, 0, 0, 0, time.UTC)
	conn := &fakeDBConn{
		queryFunc: func(ctx context.Context, sql string, args ...any) (corpusdb.Rows, error) {
			require.Equal(t, queryOpinionsByCaseName, sql)
			require.Equal(t, []any{"%smith%"}, args)
			return &fakeRecordRows{records: [][]any{
				{int64(101), int64(1), "Smith v. Jones", filed, "lead"},
				{int64(102), int64(1), "Smith v. Jones", filed, nil},
			}}, nil
		},
	}

	opinions, err := OpinionsForCaseName(context.Background(), conn, "%smith%")
	require.NoError(t, err)
	require.Len(t, opinions, 2)

	assert.Equal(t, int64(101), opinions[0].OpinionID)
	assert.Equal(t, int64(1), opinions[0].DocketID)
	assert.Equal(t, "Smith v. Jones", opinions[0].CaseName)
	require.NotNil(t, opinions[0].DateFiled)
	assert.Equal(t, filed, *opinions[0].DateFiled)
	assert.Equal(t, "lead", opinions[0].Type)

	assert.Equal(t, int64(102), opinions[1].OpinionID)
	assert.Empty(t, opinions[1].Type)
}

func TestOpinionsForCaseNameNoMatches(t *testing.T) {
	conn := &fakeDBConn{
		queryFunc: func(ctx context.Context, sql string, args ...any) (corpusdb.Rows, error) {
			return &fakeRecordRows{}, nil
		},
	}

	opinions, err := OpinionsForCaseName(context.Background(), conn, "%nobody%")
	require.NoError(t, err)
	assert.Empty(t, opinions)
}

func TestOpinionsByCaseNameRequiresPattern(t *testing.T) {
	svc, _ := newTestSampleService(&fakeDBConn{})
	config := corpusdb.VerifyConfig{ConnectionString: "postgresql://loader@localhost/corpus"}

	_, err := svc.OpinionsByCaseName(context.Background(), config, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, corpusdb.ErrInvalidConfig)
}

func TestRunExecutesShowcaseQueries(t *testing.T) {
	var queries []string
	conn := &fakeDBConn{
		queryFunc: func(ctx context.Context, sql string, args ...any) (corpusdb.Rows, error) {
			queries = append(queries, sql)
			return &fakeRows{}, nil
		},
	}

	svc, logger := newTestSampleService(conn)
	config := corpusdb.VerifyConfig{ConnectionString: "postgresql://loader@localhost/corpus"}
	require.NoError(t, svc.Run(context.Background(), config))

	assert.Equal(t, []string{queryCourtStats, queryRecentCases, queryOpinionTypes, queryMostCited}, queries)
	assert.Len(t, logger.info, 4)
}

func TestRunInvalidConfig(t *testing.T) {
	svc, _ := newTestSampleService(&fakeDBConn{})
	err := svc.Run(context.Background(), corpusdb.VerifyConfig{})
	assert.ErrorIs(t, err, corpusdb.ErrInvalidConfig)
}

func TestTruncateHelper(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
