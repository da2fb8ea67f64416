package wheel_test

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbtools/wheelhouse/pkg/python/wheel"
)

const testDistInfo = "fbpyutils_finance-1.3.1.dist-info"

func testWheelFiles() map[string]string {
	return map[string]string{
		"fbpyutils_finance/__init__.py": "MARKET_INFO = {}\n",
		"fbpyutils_finance/cvm.py":      "def converters():\n    pass\n",
		testDistInfo + "/METADATA": strings.Join([]string{
			"Metadata-Version: 2.1",
			"Name: fbpyutils-finance",
			"Version: 1.3.1",
			"Requires-Python: >=3.10,<4.0",
			"Requires-Dist: pandas (==2.2.3)",
			"",
		}, "\n"),
		testDistInfo + "/WHEEL": strings.Join([]string{
			"Wheel-Version: 1.0",
			"Generator: poetry-core 1.9.0",
			"Root-Is-Purelib: true",
			"Tag: py3-none-any",
			"",
		}, "\n"),
	}
}

func recordHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return "sha256=" + base64.RawURLEncoding.EncodeToString(sum[:])
}

// buildWheel zips up the given files together with a generated RECORD; mangle,
// if non-nil, gets to rewrite the RECORD rows first.
func buildWheel(t *testing.T, files map[string]string, mangle func([][]string) [][]string) *wheel.Wheel {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	recordName := testDistInfo + "/RECORD"
	rows := make([][]string, 0, len(files)+1)
	for _, name := range names {
		rows = append(rows, []string{name, recordHash(files[name]), fmt.Sprint(len(files[name]))})
	}
	rows = append(rows, []string{recordName, "", ""})
	if mangle != nil {
		rows = mangle(rows)
	}
	var record strings.Builder
	for _, row := range rows {
		record.WriteString(strings.Join(row, ",") + "\n")
	}

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zipWriter.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	w, err := zipWriter.Create(recordName)
	require.NoError(t, err)
	_, err = w.Write([]byte(record.String()))
	require.NoError(t, err)
	require.NoError(t, zipWriter.Close())

	wh, err := wheel.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return wh
}

func TestWheelRead(t *testing.T) {
	t.Parallel()
	wh := buildWheel(t, testWheelFiles(), nil)

	infoDir, err := wh.DistInfoDir()
	require.NoError(t, err)
	assert.Equal(t, testDistInfo, infoDir)

	md, err := wh.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "fbpyutils-finance", md.Name)
	assert.Equal(t, "1.3.1", md.Version.String())
	require.Len(t, md.RequiresDist, 1)
	assert.Equal(t, "pandas", md.RequiresDist[0].Name)

	info, err := wh.Info()
	require.NoError(t, err)
	assert.Equal(t, "1.0", info.Get("Wheel-Version"))
	assert.Equal(t, "poetry-core 1.9.0", info.Get("Generator"))
	assert.Equal(t, "py3-none-any", info.Get("Tag"))
}

func TestWheelVerify(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Mangle func([][]string) [][]string
		ErrStr string
	}{
		"ok": {},
		"hash-mismatch": {
			Mangle: func(rows [][]string) [][]string {
				rows[0][1] = recordHash("tampered")
				return rows
			},
			ErrStr: "hash mismatch",
		},
		"size-mismatch": {
			Mangle: func(rows [][]string) [][]string {
				rows[0][2] = "9999"
				return rows
			},
			ErrStr: "size mismatch",
		},
		"unmentioned-file": {
			Mangle: func(rows [][]string) [][]string {
				return rows[1:]
			},
			ErrStr: "not mentioned in RECORD",
		},
		"phantom-file": {
			Mangle: func(rows [][]string) [][]string {
				return append(rows, []string{"fbpyutils_finance/ghost.py", recordHash(""), "0"})
			},
			ErrStr: "ghost.py",
		},
		"weak-hash": {
			Mangle: func(rows [][]string) [][]string {
				rows[0][1] = "md5=" + rows[0][1]
				return rows
			},
			ErrStr: "unsupported hash algorithm",
		},
		"short-rows": {
			// uniformly 2 columns, so the csv reader itself doesn't balk
			Mangle: func(rows [][]string) [][]string {
				for i := range rows {
					rows[i] = rows[i][:2]
				}
				return rows
			},
			ErrStr: "3 columns",
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			wh := buildWheel(t, testWheelFiles(), tc.Mangle)
			err := wh.Verify()
			if tc.ErrStr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.ErrStr)
		})
	}
}

func TestDistInfoDirErrors(t *testing.T) {
	t.Parallel()

	t.Run("none", func(t *testing.T) {
		t.Parallel()
		wh := buildWheelRaw(t, map[string]string{"pkg/__init__.py": ""})
		_, err := wh.DistInfoDir()
		assert.Error(t, err)
	})
	t.Run("multiple", func(t *testing.T) {
		t.Parallel()
		wh := buildWheelRaw(t, map[string]string{
			"a-1.0.dist-info/METADATA": "Name: a\n",
			"b-2.0.dist-info/METADATA": "Name: b\n",
		})
		_, err := wh.DistInfoDir()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "multiple")
	})
}

// buildWheelRaw zips files exactly as given, with no RECORD handling.
func buildWheelRaw(t *testing.T, files map[string]string) *wheel.Wheel {
	t.Helper()
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zipWriter.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zipWriter.Close())
	wh, err := wheel.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return wh
}
