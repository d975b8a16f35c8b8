package pipeline

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/csvavg/pkg/compression"
	csvdest "github.com/ajitpratap0/csvavg/pkg/connector/destinations/csv"
	csvsource "github.com/ajitpratap0/csvavg/pkg/connector/sources/csv"
	"github.com/ajitpratap0/csvavg/pkg/errors"
	"github.com/ajitpratap0/csvavg/pkg/testutil"
	"github.com/ajitpratap0/csvavg/pkg/transform"
)

type AverageIntegrationSuite struct {
	testutil.IntegrationTestSuite
}

func TestAverageIntegrationSuite(t *testing.T) {
	suite.Run(t, new(AverageIntegrationSuite))
}

func (s *AverageIntegrationSuite) newPipeline(input, output, column string) *Pipeline {
	log := zaptest.NewLogger(s.T())
	src := csvsource.NewCSVSource(csvsource.Options{Path: input, Compression: compression.Auto}, log)
	dst := csvdest.NewCSVDestination(csvdest.Options{Path: output, Precision: -1, Compression: compression.Auto}, log)
	return New(src, transform.NewTransformer(column, "average", log), dst, Options{Logger: log})
}

func (s *AverageIntegrationSuite) TestScoresAverage() {
	input := s.WriteFile("input.csv", "name,score\na,10\nb,20\n")
	output := s.Path("output.csv")

	result, err := s.newPipeline(input, output, "score").Run(s.Context())
	s.Require().NoError(err)
	s.Equal(2, result.RowsRead)
	s.Equal(2, result.RowsWritten)
	s.True(result.HasAverage)
	s.Equal(15.0, result.Average)

	s.Equal([][]string{
		{"name", "score", "average"},
		{"a", "10", "15.0"},
		{"b", "20", "15.0"},
	}, testutil.ReadCSV(s.T(), output))
}

func (s *AverageIntegrationSuite) TestAverageEqualsMean() {
	input := s.WriteFile("input.csv", "id,value\n1,0.5\n2,-3.25\n3,1e3\n4,7\n")
	output := s.Path("output.csv")

	_, err := s.newPipeline(input, output, "value").Run(s.Context())
	s.Require().NoError(err)

	want := (0.5 - 3.25 + 1000 + 7) / 4
	rows := testutil.ReadCSV(s.T(), output)
	s.Require().Len(rows, 5)
	for _, row := range rows[1:] {
		s.InDelta(want, mustFloat(s.T(), row[2]), 1e-9)
	}
}

func (s *AverageIntegrationSuite) TestRoundTripKeepsValues() {
	input := s.WriteFile("input.csv", "name,note,score\n\"Smith, J\",\"said \"\"hi\"\"\",3\nb,,5\n")
	output := s.Path("output.csv")

	_, err := s.newPipeline(input, output, "score").Run(s.Context())
	s.Require().NoError(err)

	s.Equal([][]string{
		{"name", "note", "score", "average"},
		{"Smith, J", `said "hi"`, "3", "4.0"},
		{"b", "", "5", "4.0"},
	}, testutil.ReadCSV(s.T(), output))
}

func (s *AverageIntegrationSuite) TestCompressedInputAndOutput() {
	seed := s.WriteFile("seed.csv", "score\n1\n2\n")
	input := s.Path("input.csv.gz")
	_, err := s.newPipeline(seed, input, "score").Run(s.Context())
	s.Require().NoError(err)

	output := s.Path("output.csv.zst")
	result, err := s.newPipeline(input, output, "score").Run(s.Context())
	s.Require().NoError(err)
	s.Equal(2, result.RowsWritten)
	s.Equal(1.5, result.Average)
	s.FileExists(output)
}

func (s *AverageIntegrationSuite) TestFailuresLeaveNoOutput() {
	tests := []struct {
		name    string
		content string
		column  string
		errType errors.ErrorType
	}{
		{"missing column", "name,score\na,10\n", "missing_col", errors.ErrorTypeMissingColumn},
		{"invalid value", "name,score\na,10\nb,abc\n", "score", errors.ErrorTypeInvalidValue},
		{"no rows", "name,score\n", "score", errors.ErrorTypeEmptyDataset},
		{"empty file", "", "score", errors.ErrorTypeEmptyDataset},
		{"ragged row", "name,score\na,10,extra\n", "score", errors.ErrorTypeParse},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			input := s.WriteFile("input.csv", tt.content)
			output := s.Path("output.csv")

			result, err := s.newPipeline(input, output, tt.column).Run(s.Context())
			s.Nil(result)
			s.Require().Error(err)
			s.True(errors.IsType(err, tt.errType), "got %v", err)
			testutil.RequireNoFile(s.T(), output)
		})
	}
}

func (s *AverageIntegrationSuite) TestMissingInput() {
	output := s.Path("output.csv")

	_, err := s.newPipeline(s.Path("does-not-exist.csv"), output, "score").Run(s.Context())
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.ErrorTypeNotFound))
	s.Contains(err.Error(), "does-not-exist.csv")
	testutil.RequireNoFile(s.T(), output)

	entries, err := os.ReadDir(s.TempDir())
	s.Require().NoError(err)
	s.Empty(entries)
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}
