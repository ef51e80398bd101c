package export

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
)

// FileSink posts a rendered export file to a guild's attendance channel.
// Implemented by the Discord client.
type FileSink interface {
	PostFile(ctx context.Context, guildID, filename string, data []byte) error
}

// Daily is the end-of-day export job body: it builds the finished day's
// report, appends it to the guild's month-tab workbook on disk and posts the
// day's attendance CSV to the attendance channel.
type Daily struct {
	reports *service.ReportService
	sink    FileSink
	dir     string
	logger  *zap.Logger
}

func NewDaily(reports *service.ReportService, sink FileSink, dir string, logger *zap.Logger) *Daily {
	return &Daily{reports: reports, sink: sink, dir: dir, logger: logger}
}

// ExportDay exports one finished day for one guild. The workbook append and
// the channel post are independent sinks; the first failure wins but the
// other sink is still attempted.
func (d *Daily) ExportDay(ctx context.Context, guildID, date string) error {
	rep, err := d.reports.Build(ctx, guildID, date, date, "")
	if err != nil {
		return fmt.Errorf("build report for %s: %w", date, err)
	}

	var firstErr error
	path := filepath.Join(d.dir, "activity-"+guildID+".xlsx")
	if err := AppendDay(path, rep); err != nil {
		firstErr = fmt.Errorf("append workbook: %w", err)
		d.logger.Error("daily workbook append failed",
			zap.String("guild_id", guildID),
			zap.String("date", date),
			zap.Stringer("kind", service.KindExternalSinkFailure),
			zap.Error(err),
		)
	}

	if d.sink != nil {
		data, err := RenderCSV(AttendanceRows(rep))
		if err == nil {
			err = d.sink.PostFile(ctx, guildID, "attendance-"+date+".csv", data)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("post daily csv: %w", err)
			}
			d.logger.Error("daily csv post failed",
				zap.String("guild_id", guildID),
				zap.String("date", date),
				zap.Stringer("kind", service.KindExternalSinkFailure),
				zap.Error(err),
			)
		}
	}
	return firstErr
}
