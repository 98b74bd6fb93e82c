package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

const sample = `TÜRK CEZA KANUNU
Kanun Numarası : 5237
Kanunun amacı
MADDE 1 - (1) Ceza Kanununun amacı; kişi hak ve özgürlüklerini korumaktır.
Tanımlar
MADDE 6 - (1) Bu Kanunun uygulanmasında;
a) Vatandaş deyiminden, Türk vatandaşı,
anlaşılır.`

func TestEncode(t *testing.T) {
	chunks := statute.Parse(sample)
	require.Len(t, chunks, 2)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, chunks))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "[\n  {\n    \"text\": "))
	assert.Contains(t, out, "özgürlüklerini")
	assert.Contains(t, out, `"kanun_adi": "TÜRK CEZA KANUNU"`)
	assert.Contains(t, out, `"chunk_id": "tck_m6"`)
	assert.NotContains(t, out, `\u00`)
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	chunks := statute.Parse(sample)
	path := filepath.Join(t.TempDir(), "nested", "tck.chunks.json")

	var logs bytes.Buffer
	n, err := WriteJSON(path, chunks, logger.NewWithWriter(&logs, "info", "text"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, logs.String(), "count=2")
	assert.Contains(t, logs.String(), path)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	back, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, chunks, back)
}

func TestWriteJSON_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := WriteJSON(filepath.Join(blocker, "out.json"), nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeExport, errors.CodeOf(err))
}

func TestReadJSON_Errors(t *testing.T) {
	_, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.IsIO(err))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = ReadJSON(bad)
	assert.True(t, errors.IsValidation(err))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "tck.chunks.json"), OutputPath("out", filepath.Join("in", "tck.txt")))
	assert.Equal(t, filepath.Join("out", "iklim.chunks.json"), OutputPath("out", "iklim"))
}
