package edgar

import (
	"context"
	"fmt"
	"strings"

	"secai/internal/domain"
)

type submissionsResponse struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// PadCIK left-pads a CIK with zeros to the 10 digits used by the submissions API.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// TrimCIK strips leading zeros, as used in archive paths.
func TrimCIK(cik string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// ArchiveURL builds the URL of a filing's primary document.
func (c *Client) ArchiveURL(cik, accession, primaryDocument string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		strings.TrimRight(c.cfg.ArchivesURL, "/"),
		TrimCIK(cik),
		strings.ReplaceAll(accession, "-", ""),
		primaryDocument)
}

// Filings lists the recent filings of the company identified by cik, keeping
// only the configured forms, in the order EDGAR reports them (newest first).
func (c *Client) Filings(ctx context.Context, cik string) ([]domain.Filing, error) {
	if strings.TrimSpace(cik) == "" {
		return nil, fmt.Errorf("empty CIK")
	}
	padded := PadCIK(cik)
	target := fmt.Sprintf("%s/CIK%s.json", strings.TrimRight(c.cfg.SubmissionsURL, "/"), padded)
	var resp submissionsResponse
	if err := c.getJSON(ctx, target, "submissions:"+padded, c.cfg.SubmissionsTTL, &resp); err != nil {
		return nil, err
	}
	recent := resp.Filings.Recent
	n := minLen(len(recent.Form), len(recent.FilingDate), len(recent.AccessionNumber), len(recent.PrimaryDocument))
	if n < len(recent.Form) {
		c.logger.Warn("submissions arrays have unequal length", "cik", padded, "forms", len(recent.Form), "usable", n)
	}
	var filings []domain.Filing
	for i := 0; i < n; i++ {
		form := recent.Form[i]
		if _, ok := c.forms[strings.ToUpper(form)]; !ok {
			continue
		}
		filings = append(filings, domain.Filing{
			Date:            recent.FilingDate[i],
			Name:            recent.PrimaryDocument[i],
			Type:            form,
			URL:             c.ArchiveURL(cik, recent.AccessionNumber[i], recent.PrimaryDocument[i]),
			AccessionNumber: recent.AccessionNumber[i],
		})
	}
	return filings, nil
}

func minLen(lengths ...int) int {
	m := lengths[0]
	for _, l := range lengths[1:] {
		if l < m {
			m = l
		}
	}
	return m
}
