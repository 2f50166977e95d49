package evaluate

import "fmt"

// Status grades a domain's ERDs
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// Layer tables beyond this count are expected to produce relationships
const minLinkedLayerTables = 3

// Report is the verification result for one domain
type Report struct {
	DomainID   string   `json:"domainId"`
	DomainName string   `json:"domainName"`
	Status     Status   `json:"status"`
	Issues     []string `json:"issues,omitempty"`
	Logical    int      `json:"logical"`
	Bronze     int      `json:"bronze"`
	Silver     int      `json:"silver"`
	Gold       int      `json:"gold"`
}

// Summary aggregates reports across domains
type Summary struct {
	Total    int     `json:"total"`
	Pass     int     `json:"pass"`
	Warn     int     `json:"warn"`
	Fail     int     `json:"fail"`
	PassRate float64 `json:"passRate"`
}

// Verify checks every model for missing or sparse relationships
func Verify(models []DomainModel) []Report {
	reports := make([]Report, 0, len(models))
	for i := range models {
		reports = append(reports, verifyDomain(&models[i]))
	}
	return reports
}

func verifyDomain(m *DomainModel) Report {
	r := Report{
		DomainID:   m.DomainID,
		DomainName: m.DomainName,
		Logical:    len(m.Logical),
	}

	if len(m.Entities) > 0 && r.Logical == 0 {
		r.Issues = append(r.Issues, "Logical ERD: No relationships detected")
	}

	if m.Bronze != nil {
		r.Bronze = len(m.Bronze.Relationships)
		if m.Bronze.TableCount > minLinkedLayerTables && r.Bronze == 0 {
			r.Issues = append(r.Issues, "Bronze ERD: No relationships detected")
		}
	}

	if m.Silver != nil {
		r.Silver = len(m.Silver.Relationships)
		if m.Silver.TableCount > minLinkedLayerTables && r.Silver == 0 {
			r.Issues = append(r.Issues, "Silver ERD: No relationships detected")
		}
	}

	if m.Gold != nil {
		r.Gold = len(m.Gold.Relationships)
		dims, facts := m.Gold.DimensionCount, m.Gold.FactCount
		if dims > 0 && facts > 0 {
			expected := facts * min(dims, 3)
			// a gold layer without edges reports both issues
			if r.Gold == 0 {
				r.Issues = append(r.Issues, "Gold ERD: No star schema relationships detected")
			}
			if expected > 0 && float64(r.Gold) < float64(expected)*0.5 {
				r.Issues = append(r.Issues, fmt.Sprintf("Gold ERD: Low relationship count (%d vs expected ~%d)", r.Gold, expected))
			}
		}
	}

	switch n := len(r.Issues); {
	case n == 0:
		r.Status = StatusPass
	case n <= 2:
		r.Status = StatusWarn
	default:
		r.Status = StatusFail
	}
	return r
}

// Summarize counts reports per status
func Summarize(reports []Report) Summary {
	s := Summary{Total: len(reports)}
	for _, r := range reports {
		switch r.Status {
		case StatusPass:
			s.Pass++
		case StatusWarn:
			s.Warn++
		case StatusFail:
			s.Fail++
		}
	}
	if s.Total > 0 {
		s.PassRate = float64(s.Pass) / float64(s.Total) * 100
	}
	return s
}
