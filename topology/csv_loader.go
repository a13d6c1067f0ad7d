package topology

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/common"
)

// Topology CSV exports in the wild are often semicolon-delimited, use a
// decimal comma, and may carry a UTF-8 BOM. The loaders tolerate all three.

// LoadCSV reads node and edge files and assembles a graph. Node columns:
// node_id;s_ms;r_node. Edge columns: src;dst;capacity_mbps;delay_ms;r_link.
// Edges are added in both directions.
func LoadCSV(nodeFile, edgeFile string) (*common.Graph, error) {
	g := common.NewGraph()

	nodeRows, err := readDelimited(nodeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load node file %s: %w", nodeFile, err)
	}
	for _, row := range nodeRows {
		id, err := strconv.Atoi(strings.TrimSpace(row["node_id"]))
		if err != nil {
			return nil, fmt.Errorf("bad node_id %q in %s: %w", row["node_id"], nodeFile, err)
		}
		procDelay, err := parseDecimal(row["s_ms"])
		if err != nil {
			return nil, fmt.Errorf("bad s_ms for node %d: %w", id, err)
		}
		reliability, err := parseDecimal(row["r_node"])
		if err != nil {
			return nil, fmt.Errorf("bad r_node for node %d: %w", id, err)
		}
		g.AddNode(common.Node{ID: id, ProcDelay: procDelay, Reliability: reliability})
	}

	edgeRows, err := readDelimited(edgeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load edge file %s: %w", edgeFile, err)
	}
	for _, row := range edgeRows {
		src, err := strconv.Atoi(strings.TrimSpace(row["src"]))
		if err != nil {
			return nil, fmt.Errorf("bad src %q in %s: %w", row["src"], edgeFile, err)
		}
		dst, err := strconv.Atoi(strings.TrimSpace(row["dst"]))
		if err != nil {
			return nil, fmt.Errorf("bad dst %q in %s: %w", row["dst"], edgeFile, err)
		}
		bandwidth, err := parseDecimal(row["capacity_mbps"])
		if err != nil {
			return nil, fmt.Errorf("bad capacity_mbps for edge %d-%d: %w", src, dst, err)
		}
		delay, err := parseDecimal(row["delay_ms"])
		if err != nil {
			return nil, fmt.Errorf("bad delay_ms for edge %d-%d: %w", src, dst, err)
		}
		reliability, err := parseDecimal(row["r_link"])
		if err != nil {
			return nil, fmt.Errorf("bad r_link for edge %d-%d: %w", src, dst, err)
		}
		if !g.HasNode(src) || !g.HasNode(dst) {
			return nil, fmt.Errorf("%w: edge %d-%d references unknown node", common.ErrInvalidInput, src, dst)
		}
		g.AddLink(common.Edge{
			From:        src,
			To:          dst,
			Bandwidth:   bandwidth,
			LinkDelay:   delay,
			Reliability: reliability,
		})
	}

	log.Infof("topology: loaded %d nodes, %d directed edges from %s / %s",
		len(g.Nodes), g.EdgeCount(), nodeFile, edgeFile)
	return g, nil
}

// LoadDemandsCSV reads a demand file with columns src;dst;demand_mbps.
func LoadDemandsCSV(demandFile string) ([]common.Demand, error) {
	rows, err := readDelimited(demandFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load demand file %s: %w", demandFile, err)
	}

	demands := make([]common.Demand, 0, len(rows))
	for _, row := range rows {
		src, err := strconv.Atoi(strings.TrimSpace(row["src"]))
		if err != nil {
			return nil, fmt.Errorf("bad src %q in %s: %w", row["src"], demandFile, err)
		}
		dst, err := strconv.Atoi(strings.TrimSpace(row["dst"]))
		if err != nil {
			return nil, fmt.Errorf("bad dst %q in %s: %w", row["dst"], demandFile, err)
		}
		bw, err := parseDecimal(row["demand_mbps"])
		if err != nil {
			return nil, fmt.Errorf("bad demand_mbps for %d-%d: %w", src, dst, err)
		}
		demands = append(demands, common.Demand{Source: src, Target: dst, Bandwidth: bw})
	}
	return demands, nil
}

// readDelimited parses a semicolon-separated file into one map per record,
// keyed by the header row.
func readDelimited(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := strings.TrimPrefix(string(data), "\ufeff") // utf-8-sig

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = ';'
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseDecimal accepts both dot and comma decimal separators.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	return strconv.ParseFloat(s, 64)
}
