package msh

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		version  string
		want     float64
		binary   bool
		dataSize int
	}{
		{"2.0", 2.0, false, 4},
		{"2.0", 2.0, true, 4},
		{"4.0", 4.0, false, 8},
		{"4.0", 4.0, true, 8},
		{"4.1", 4.1, false, 8},
		{"4.1", 4.1, true, 8},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		require.NoError(t, writeHeader(&buf, tc.version, tc.binary, tc.dataSize))
		hdr, err := readHeader(newReader(&buf))
		require.NoError(t, err, "version %s binary %v", tc.version, tc.binary)
		assert.Equal(t, tc.want, hdr.version)
		assert.Equal(t, tc.dataSize, hdr.dataSize)
		assert.Equal(t, !tc.binary, hdr.isASCII)
	}
}

func TestHeaderMalformed(t *testing.T) {
	var mhe *MalformedHeaderError
	{ // Missing $MeshFormat sentinel
		_, err := readHeader(newReader(strings.NewReader("$Nodes\n")))
		require.ErrorAs(t, err, &mhe)
	}
	{ // Too few tokens on the format line
		_, err := readHeader(newReader(strings.NewReader("$MeshFormat\n2.2 0\n$EndMeshFormat\n")))
		require.ErrorAs(t, err, &mhe)
	}
	{ // File-type must be exactly 0 or 1
		_, err := readHeader(newReader(strings.NewReader("$MeshFormat\n2.2 2 8\n$EndMeshFormat\n")))
		require.ErrorAs(t, err, &mhe)
		assert.Contains(t, mhe.Error(), "file-type")
	}
	{ // Unparseable version token
		_, err := readHeader(newReader(strings.NewReader("$MeshFormat\nv2 0 8\n$EndMeshFormat\n")))
		require.ErrorAs(t, err, &mhe)
	}
	{ // Wrong closing sentinel
		_, err := readHeader(newReader(strings.NewReader("$MeshFormat\n2.2 0 8\n$EndNodes\n")))
		require.ErrorAs(t, err, &mhe)
	}
	{ // Binary probe present but newline after it missing
		var buf bytes.Buffer
		buf.WriteString("$MeshFormat\n2.2 1 4\n")
		buf.Write([]byte{1, 0, 0, 0})
		buf.WriteString("$EndMeshFormat\n")
		_, err := readHeader(newReader(&buf))
		require.ErrorAs(t, err, &mhe)
		assert.Contains(t, mhe.Error(), "newline")
	}
}

func TestHeaderEndianness(t *testing.T) {
	{ // Probe value other than 1 is a byte-order mismatch, never a misread
		var buf bytes.Buffer
		buf.WriteString("$MeshFormat\n2.2 1 4\n")
		buf.Write([]byte{0, 0, 0, 1}) // 1 in the wrong byte order
		buf.WriteString("\n$EndMeshFormat\n")
		_, err := readHeader(newReader(&buf))
		var ee *EndiannessError
		require.ErrorAs(t, err, &ee)
		assert.NotEqual(t, int64(1), ee.Got)
	}
	{ // Probe cut short is truncation, not an endianness problem
		var buf bytes.Buffer
		buf.WriteString("$MeshFormat\n2.2 1 8\n")
		buf.Write([]byte{1, 0})
		_, err := readHeader(newReader(&buf))
		var te *TruncatedInputError
		require.ErrorAs(t, err, &te)
	}
}
