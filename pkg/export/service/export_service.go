package service

import "soilscan/entities"

// Service builds the analysis report and hands it to the (mocked) delivery
// channel: direct download, share link, or email.
type Service interface {
	BuildXLSX(sessionID string) ([]byte, string, error)
	Share(sessionID string) (*entities.ReportExport, error)
	Email(sessionID, address string) (*entities.ReportExport, error)
	History(sessionID string) ([]entities.ReportExport, error)
}
