package file_store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentArtifactIDDeterministic(t *testing.T) {
	a := DocumentArtifactID("filings/acme_10k.pdf")
	b := DocumentArtifactID("filings/acme_10k.pdf")
	assert.Equal(t, a, b)
	// sha256 前 16 位十六进制
	assert.Len(t, a, 16)

	c := DocumentArtifactID("filings/beta_10q.pdf")
	assert.NotEqual(t, a, c)
}

func TestDocumentArtifactIDEmptySourceFallsBackToUUID(t *testing.T) {
	a := DocumentArtifactID("")
	b := DocumentArtifactID("")
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestTableArtifactKeyFormat(t *testing.T) {
	key := TableArtifactKey("deadbeefdeadbeef", 2, 1, "extracted-tables")
	assert.Equal(t, "extracted-tables/deadbeefdeadbeef_page2_table1.csv", key)
}

func TestTableArtifactKeyNoPrefix(t *testing.T) {
	key := TableArtifactKey("deadbeefdeadbeef", 3, 2, "")
	assert.False(t, strings.HasPrefix(key, "/"))
	assert.Equal(t, "deadbeefdeadbeef_page3_table2.csv", key)
}

func TestEncodeCSV(t *testing.T) {
	data, err := encodeCSV([][]string{{"Year", "Revenue"}, {"2023", "4,500"}})
	assert.NoError(t, err)
	assert.Equal(t, "Year,Revenue\n2023,\"4,500\"\n", string(data))
}
