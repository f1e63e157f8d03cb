package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/icpledger/internal/importer"
)

func TestService_Import(t *testing.T) {
	svc := importer.NewService()
	csv := "Date,ICP Amount,Token Value\n2024-01-05,1,2\n"

	for _, format := range []importer.Format{"", importer.FormatCSV} {
		params, err := svc.Import(format, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Len(t, params, 1)
	}

	_, err := svc.Import("xlsx", strings.NewReader(csv))
	assert.ErrorContains(t, err, "unknown format")
}
