package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/corpusdb/internal/schema"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

func testSchemaConfig() corpusdb.SchemaConfig {
	return corpusdb.SchemaConfig{
		DatabaseName:     "corpus",
		ConnectionString: "postgresql://loader@localhost/postgres",
	}
}

// schemaTestConn routes dial attempts by target database so a test can
// distinguish the maintenance connection from the corpus connection.
func schemaTestConn(dialed *[]string, conn *fakeDBConn) dbConnFunc {
	return func(ctx context.Context, connConfig *corpusdb.ConnectionConfig) (corpusdb.DBConnection, func(), error) {
		*dialed = append(*dialed, connConfig.Database)
		return conn, func() {}, nil
	}
}

func newTestSchemaService(manager *fakeDBManager, conn *fakeDBConn, dialed *[]string) (*SchemaService, *recordingLogger) {
	logger := &recordingLogger{}
	svc := NewSchemaService(dummyFactory, logger, manager)
	svc.dbConn = schemaTestConn(dialed, conn)
	return svc, logger
}

func TestCreateBuildsDatabaseAndTables(t *testing.T) {
	manager := &fakeDBManager{existsResult: false}
	conn := &fakeDBConn{}
	var dialed []string

	svc, _ := newTestSchemaService(manager, conn, &dialed)
	require.NoError(t, svc.Create(context.Background(), testSchemaConfig()))

	assert.Equal(t, []string{"corpus"}, manager.createdDBs)
	assert.Equal(t, []string{corpusdb.DefaultMaintenanceDB, "corpus"}, dialed)

	executed := conn.executed()
	tables := schema.Tables()
	require.Len(t, executed, len(tables))
	for i, table := range tables {
		assert.Equal(t, table.CreateSQL, executed[i])
	}
}

func TestCreateSkipsExistingDatabase(t *testing.T) {
	manager := &fakeDBManager{existsResult: true}
	conn := &fakeDBConn{}
	var dialed []string

	svc, logger := newTestSchemaService(manager, conn, &dialed)
	require.NoError(t, svc.Create(context.Background(), testSchemaConfig()))

	assert.Empty(t, manager.createdDBs)
	assert.Len(t, conn.executed(), len(schema.Tables()), "tables are still created in the existing database")

	found := false
	for _, msg := range logger.verbose {
		if msg == `Database "corpus" already exists` {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCreateUsesConfiguredMaintenanceDatabase(t *testing.T) {
	manager := &fakeDBManager{existsResult: true}
	var dialed []string

	svc, _ := newTestSchemaService(manager, &fakeDBConn{}, &dialed)
	config := testSchemaConfig()
	config.MaintenanceDatabase = "template1"

	require.NoError(t, svc.Create(context.Background(), config))
	assert.Equal(t, []string{"template1", "corpus"}, dialed)
}

func TestCreateInvalidConfig(t *testing.T) {
	var dialed []string
	svc, _ := newTestSchemaService(&fakeDBManager{}, &fakeDBConn{}, &dialed)

	err := svc.Create(context.Background(), corpusdb.SchemaConfig{})
	assert.ErrorIs(t, err, corpusdb.ErrInvalidConfig)
	assert.Empty(t, dialed)
}

func TestNewSchemaServicePanicsOnNilDeps(t *testing.T) {
	assert.Panics(t, func() { NewSchemaService(nil, &recordingLogger{}, &fakeDBManager{}) })
	assert.Panics(t, func() { NewSchemaService(dummyFactory, nil, &fakeDBManager{}) })
	assert.Panics(t, func() { NewSchemaService(dummyFactory, &recordingLogger{}, nil) })
}
