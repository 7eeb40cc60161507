package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/additive-ml/gamekit/internal/index"
	"github.com/additive-ml/gamekit/internal/linalg"
)

// CSV column conventions: "uid" is required; "response", "offset" and
// "weight" are optional; "id:<tag>" columns carry entity-id tags; every
// other column must be "<shard>/<feature>".
const (
	colUID      = "uid"
	colResponse = "response"
	colOffset   = "offset"
	colWeight   = "weight"

	idColPrefix = "id:"
	shardSep    = "/"
)

// FeatureColumns reads only the header of a CSV file and returns the
// feature names it declares, grouped by feature shard.
func FeatureColumns(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header of %s: %w", path, err)
	}

	shards := map[string][]string{}
	for _, col := range header {
		shard, feature, ok := splitFeatureColumn(col)
		if !ok {
			continue
		}
		shards[shard] = append(shards[shard], feature)
	}
	return shards, nil
}

// LoadCSV reads a CSV file into scoring records, vectorizing feature
// columns through the given per-shard indexes. The first row is treated as
// headers. Feature names missing from their shard's index are dropped.
func LoadCSV(path string, indexes map[string]*index.FeatureIndex) ([]Datum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	headers := records[0]
	uidCol := -1
	for i, h := range headers {
		if h == colUID {
			uidCol = i
		}
	}
	if uidCol < 0 {
		return nil, fmt.Errorf("csv: %s has no %q column", path, colUID)
	}

	data := make([]Datum, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		if len(record) != len(headers) {
			return nil, fmt.Errorf("csv: row %d has %d columns, expected %d", line, len(record), len(headers))
		}

		d := Datum{Weight: 1.0}
		features := map[string]map[string]float64{}

		for j, cell := range record {
			col := headers[j]
			switch {
			case col == colUID:
				uid, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("csv: row %d: invalid uid %q: %w", line, cell, err)
				}
				d.UniqueID = uid
			case col == colResponse:
				if d.Response, err = parseCell(cell, line, col); err != nil {
					return nil, err
				}
			case col == colOffset:
				if d.Offset, err = parseCell(cell, line, col); err != nil {
					return nil, err
				}
			case col == colWeight:
				if strings.TrimSpace(cell) == "" {
					continue
				}
				if d.Weight, err = parseCell(cell, line, col); err != nil {
					return nil, err
				}
			case strings.HasPrefix(col, idColPrefix):
				tag := strings.TrimPrefix(col, idColPrefix)
				if d.IDs == nil {
					d.IDs = map[string]string{}
				}
				d.IDs[tag] = strings.TrimSpace(cell)
			default:
				shard, feature, ok := splitFeatureColumn(col)
				if !ok {
					return nil, fmt.Errorf("csv: %s has unrecognized column %q (want shard/feature)", path, col)
				}
				value, err := parseCell(cell, line, col)
				if err != nil {
					return nil, err
				}
				if value == 0 {
					continue
				}
				if features[shard] == nil {
					features[shard] = map[string]float64{}
				}
				features[shard][feature] = value
			}
		}

		d.Features = vectorizeShards(features, indexes)
		data = append(data, d)
	}

	return data, nil
}

func vectorizeShards(features map[string]map[string]float64, indexes map[string]*index.FeatureIndex) map[string]linalg.Vector {
	out := make(map[string]linalg.Vector, len(features))
	for shard, values := range features {
		fi := indexes[shard]
		if fi == nil {
			continue
		}
		v, _ := fi.Vectorize(values)
		out[shard] = v
	}
	return out
}

func parseCell(cell string, line int, col string) (float64, error) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("csv: row %d: invalid %s value %q: %w", line, col, cell, err)
	}
	return v, nil
}

func splitFeatureColumn(col string) (shard, feature string, ok bool) {
	if col == colUID || col == colResponse || col == colOffset || col == colWeight {
		return "", "", false
	}
	if strings.HasPrefix(col, idColPrefix) {
		return "", "", false
	}
	shard, feature, found := strings.Cut(col, shardSep)
	if !found || shard == "" || feature == "" {
		return "", "", false
	}
	return shard, feature, true
}
