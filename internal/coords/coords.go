// Package coords loads LED coordinate files.
//
// Two formats are understood, chosen by extension:
//   - .txt: one JSON array of three numbers per line
//   - .csv: a comma separated table with exactly three numeric columns,
//     UTF-8 with or without a byte order mark
package coords

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/simerr"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the coordinate file at path.
func Load(path string) ([]pixel.Vec3, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, simerr.Formatf("file %s does not exist", path)
		}
		return nil, simerr.Formatf("stat %s: %v", path, err)
	}
	if st.IsDir() {
		return nil, simerr.Formatf("%s is a directory", path)
	}

	var parse func(io.Reader) ([]pixel.Vec3, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		parse = ParseJSONLines
	case ".csv":
		parse = ParseCSV
	default:
		return nil, simerr.Formatf("unknown file format for file %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, simerr.Formatf("open %s: %v", path, err)
	}
	defer f.Close()

	out, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// ParseJSONLines parses one JSON array per line. Blank lines are skipped.
func ParseJSONLines(r io.Reader) ([]pixel.Vec3, error) {
	var out []pixel.Vec3
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if line == 1 {
			text = strings.TrimPrefix(text, string(utf8BOM))
		}
		if text == "" {
			continue
		}
		var row []float64
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			return nil, simerr.Formatf("line %d: %v", line, err)
		}
		v, err := toVec(row, line)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, simerr.Formatf("read: %v", err)
	}
	return out, nil
}

// ParseCSV parses a headerless three column table.
func ParseCSV(r io.Reader) ([]pixel.Vec3, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []pixel.Vec3
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, simerr.Formatf("%v", err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make([]float64, len(rec))
		for i, cell := range rec {
			f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, simerr.Formatf("line %d column %d: %q is not a number", line, i+1, cell)
			}
			row[i] = f
		}
		v, err := toVec(row, line)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func toVec(row []float64, line int) (pixel.Vec3, error) {
	if len(row) != 3 {
		return pixel.Vec3{}, simerr.Formatf("line %d: invalid coord format: %d columns, want 3", line, len(row))
	}
	return pixel.Vec3{X: row[0], Y: row[1], Z: row[2]}, nil
}

// Save writes coordinates in the CSV form that Load accepts.
func Save(path string, locs []pixel.Vec3) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, v := range locs {
		rec := []string{
			strconv.FormatFloat(v.X, 'g', -1, 64),
			strconv.FormatFloat(v.Y, 'g', -1, 64),
			strconv.FormatFloat(v.Z, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
