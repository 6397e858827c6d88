package serviceImp

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"soilscan/entities"
	"soilscan/pkg/export/service"
	"soilscan/pkg/workflow/types"
)

type sessionGetter interface {
	Get(id string) (*entities.Session, error)
}

type exportSvc struct {
	db       *gorm.DB
	sessions sessionGetter
	delay    time.Duration // simulated delivery latency
}

func New(db *gorm.DB, sessions sessionGetter, delay time.Duration) service.Service {
	return &exportSvc{db: db, sessions: sessions, delay: delay}
}

// report loads the session and refuses to export before there is anything to
// report on.
func (s *exportSvc) report(sessionID string) (*entities.Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.SoilStatus != entities.StatusPresent {
		return nil, types.Precondition("analyze soil before exporting a report")
	}
	return sess, nil
}

func (s *exportSvc) BuildXLSX(sessionID string) ([]byte, string, error) {
	sess, err := s.report(sessionID)
	if err != nil {
		return nil, "", err
	}

	x := excelize.NewFile()
	defer x.Close()

	sheet := "Summary"
	x.SetSheetName("Sheet1", sheet)
	rows := [][]any{
		{"SoilScan analysis report", ""},
		{"Generated", time.Now().Format(time.RFC3339)},
		{"Session", sess.SessionID},
		{"", ""},
		{"Image", sess.ImageName},
		{"Soil type", sess.SoilType},
		{"Confidence %", deref(sess.Confidence)},
		{"Description", sess.SoilDesc},
	}
	if sess.HasLocation() {
		rows = append(rows,
			[]any{"Location", fmt.Sprintf("%s %s", sess.City, sess.Region)},
			[]any{"Coordinates", fmt.Sprintf("%.4f, %.4f", *sess.Latitude, *sess.Longitude)},
		)
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		_ = x.SetSheetRow(sheet, cell, &r)
	}

	if sess.WeatherStatus == entities.StatusPresent {
		ws := "Weather"
		_, _ = x.NewSheet(ws)
		wrows := [][]any{
			{"Temperature C", deref(sess.TemperatureC)},
			{"Humidity %", deref(sess.HumidityPct)},
			{"Precipitation mm", deref(sess.PrecipMM)},
			{"Conditions", sess.WeatherDesc},
		}
		for i, r := range wrows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			_ = x.SetSheetRow(ws, cell, &r)
		}
	}

	if len(sess.Crops) > 0 {
		cs := "Crops"
		_, _ = x.NewSheet(cs)
		head := []any{"Crop", "Suitability %", "Season", "Reason", "Saved"}
		_ = x.SetSheetRow(cs, "A1", &head)
		for i, cr := range sess.Crops {
			row := []any{cr.Name, cr.Suitability, cr.Season, cr.Reason, cr.Saved}
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			_ = x.SetSheetRow(cs, cell, &row)
		}
	}

	var buf bytes.Buffer
	if err := x.Write(&buf); err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("soilscan-%s.xlsx", time.Now().Format("20060102-150405"))
	s.record(sessionID, "download", "", "", "ok")
	return buf.Bytes(), name, nil
}

func (s *exportSvc) Share(sessionID string) (*entities.ReportExport, error) {
	if _, err := s.report(sessionID); err != nil {
		return nil, err
	}
	time.Sleep(s.delay)
	exp := s.record(sessionID, "share", "", uuid.NewString(), "ok")
	return exp, nil
}

func (s *exportSvc) Email(sessionID, address string) (*entities.ReportExport, error) {
	if _, err := s.report(sessionID); err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	at := strings.Index(address, "@")
	if at < 1 || at == len(address)-1 {
		return nil, types.Validation("valid email address is required")
	}
	time.Sleep(s.delay) // stand-in for the real send
	exp := s.record(sessionID, "email", address, "", "ok")
	return exp, nil
}

func (s *exportSvc) History(sessionID string) ([]entities.ReportExport, error) {
	var out []entities.ReportExport
	if err := s.db.Where("session_id = ?", sessionID).
		Order("export_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *exportSvc) record(sessionID, channel, dest, shareID, status string) *entities.ReportExport {
	exp := &entities.ReportExport{
		SessionID:   sessionID,
		Channel:     channel,
		Destination: dest,
		ShareID:     shareID,
		Status:      status,
	}
	_ = s.db.Create(exp).Error
	return exp
}

func deref(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}
