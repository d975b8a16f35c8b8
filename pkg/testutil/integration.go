package testutil

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite provides base functionality for end-to-end tests that
// run against real files in a scratch directory.
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 2*time.Minute)
	s.startTime = time.Now()
}

// SetupTest gives every test its own scratch directory
func (s *IntegrationTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "csvavg-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir
}

// TearDownTest removes the scratch directory
func (s *IntegrationTestSuite) TearDownTest() {
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()
	s.T().Logf("Integration test suite completed in %v", time.Since(s.startTime))
}

// Context returns the test context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the scratch directory of the current test
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// Path returns name joined to the scratch directory
func (s *IntegrationTestSuite) Path(name string) string {
	return filepath.Join(s.tempDir, name)
}

// WriteFile writes content into the scratch directory and returns its path
func (s *IntegrationTestSuite) WriteFile(name, content string) string {
	path := s.Path(name)
	require.NoError(s.T(), os.WriteFile(path, []byte(content), 0o644))
	return path
}
