package msh

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// header is the decoded $MeshFormat block: everything a sub-format reader
// needs to know before touching the body.
type header struct {
	version  float64
	dataSize int
	isASCII  bool
}

// readHeader consumes the $MeshFormat ... $EndMeshFormat block, including
// the binary endianness probe when present.
func readHeader(r *reader) (hdr header, err error) {
	var line string
	if line, err = r.readLine(); err != nil {
		return hdr, &MalformedHeaderError{Reason: "missing $MeshFormat sentinel"}
	}
	if strings.TrimSpace(line) != "$MeshFormat" {
		return hdr, &MalformedHeaderError{Line: line, Reason: "expected $MeshFormat sentinel"}
	}

	if line, err = r.readLine(); err != nil {
		return hdr, &MalformedHeaderError{Reason: "missing format line"}
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return hdr, &MalformedHeaderError{Line: line, Reason: "format line needs version, file-type and data-size"}
	}
	if hdr.version, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return hdr, &MalformedHeaderError{Line: line, Reason: fmt.Sprintf("bad version token %q", fields[0])}
	}
	switch fields[1] {
	case "0":
		hdr.isASCII = true
	case "1":
		hdr.isASCII = false
	default:
		return hdr, &MalformedHeaderError{Line: line, Reason: fmt.Sprintf("file-type must be 0 or 1, got %q", fields[1])}
	}
	if hdr.dataSize, err = strconv.Atoi(fields[2]); err != nil {
		return hdr, &MalformedHeaderError{Line: line, Reason: fmt.Sprintf("bad data-size token %q", fields[2])}
	}
	if hdr.dataSize != 4 && hdr.dataSize != 8 {
		return hdr, &MalformedHeaderError{Line: line, Reason: fmt.Sprintf("data-size must be 4 or 8, got %d", hdr.dataSize)}
	}

	if !hdr.isASCII {
		// The probe integer 1, data-size bytes wide. It exists solely so a
		// reader can detect a byte-order mismatch; we treat a mismatch as
		// fatal rather than re-reading with the order swapped.
		c := newCodec(hdr.dataSize)
		probe := make([]byte, hdr.dataSize)
		if err = r.readFull(probe); err != nil {
			return hdr, err
		}
		var one int64
		if one, err = c.decodeInt(probe); err != nil {
			return hdr, err
		}
		if one != 1 {
			return hdr, &EndiannessError{Got: one, Probe: probe}
		}
		var b byte
		if b, err = r.readByte(); err != nil || b != '\n' {
			return hdr, &MalformedHeaderError{Reason: "missing newline after endianness probe"}
		}
	}

	if line, err = r.readLine(); err != nil {
		return hdr, &MalformedHeaderError{Reason: "missing $EndMeshFormat sentinel"}
	}
	if strings.TrimSpace(line) != "$EndMeshFormat" {
		return hdr, &MalformedHeaderError{Line: line, Reason: "expected $EndMeshFormat sentinel"}
	}
	return hdr, nil
}

// writeHeader emits the $MeshFormat block for the given version string
// ("2.2", "4.0", "4.1"), mode and data-size.
func writeHeader(w io.Writer, version string, binaryMode bool, dataSize int) (err error) {
	fileType := 0
	if binaryMode {
		fileType = 1
	}
	if _, err = fmt.Fprintf(w, "$MeshFormat\n%s %d %d\n", version, fileType, dataSize); err != nil {
		return err
	}
	if binaryMode {
		c := newCodec(dataSize)
		if err = c.writeInt(w, dataSize, 1); err != nil {
			return err
		}
		if _, err = io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "$EndMeshFormat\n")
	return err
}
