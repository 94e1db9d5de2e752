package service

import (
	"path/filepath"

	"docudive/internal/ingest"
	"docudive/internal/util"
)

type addedRow struct {
	ID string `json:"id"`
}

func (s *Service) writeReport(rep ingest.Report) error {
	if s.cfg.ReportDir == "" {
		return nil
	}
	dir := filepath.Join(s.cfg.ReportDir, rep.RunID)
	if err := util.WriteJSONAtomic(filepath.Join(dir, "report.json"), rep); err != nil {
		return err
	}
	rows := make([]addedRow, 0, len(rep.AddedIDs))
	for _, id := range rep.AddedIDs {
		rows = append(rows, addedRow{ID: id})
	}
	return util.WriteJSONLinesAtomic(filepath.Join(dir, "added.jsonl"), rows)
}
