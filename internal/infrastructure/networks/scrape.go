package networks

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/affstack/backend/internal/domain/network"
)

// reportColumnCount is the fixed column layout of the scraped report table:
// campaign name, campaign id, coupon code, created date, conversions, payout,
// sale amount, status.
const reportColumnCount = 8

// reportRow is one scraped table row in column order.
type reportRow struct {
	CampaignName string
	CampaignID   string
	CouponCode   string
	CreatedDate  string
	Conversions  string
	Payout       string
	SaleAmount   string
	Status       string
}

// parseReportTable locates the first results table body in an HTML document
// and extracts its rows. Rows with fewer than the expected column count are
// skipped, never fatal; a document without a table body is an invalid
// response.
func parseReportTable(doc []byte) ([]reportRow, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing report HTML: %v", network.ErrInvalidResponse, err)
	}

	tbody := findFirst(root, "tbody")
	if tbody == nil {
		// Some report pages omit tbody; fall back to the table itself.
		if tbody = findFirst(root, "table"); tbody == nil {
			return nil, fmt.Errorf("%w: report table not found", network.ErrInvalidResponse)
		}
	}

	var rows []reportRow
	for tr := range elementChildren(tbody, "tr") {
		cells := collectCellText(tr)
		if len(cells) < reportColumnCount {
			continue
		}
		rows = append(rows, reportRow{
			CampaignName: cells[0],
			CampaignID:   cells[1],
			CouponCode:   cells[2],
			CreatedDate:  cells[3],
			Conversions:  cells[4],
			Payout:       cells[5],
			SaleAmount:   cells[6],
			Status:       cells[7],
		})
	}
	return rows, nil
}

// findFirst depth-first searches for the first element with the given tag.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// elementChildren iterates direct and nested element children with the tag.
// Header rows living in a nested thead are excluded by their th cells, not
// here.
func elementChildren(n *html.Node, tag string) func(yield func(*html.Node) bool) {
	return func(yield func(*html.Node) bool) {
		var walk func(*html.Node) bool
		walk = func(node *html.Node) bool {
			for c := node.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == tag {
					if !yield(c) {
						return false
					}
					continue
				}
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(n)
	}
}

// collectCellText returns the trimmed text of every td cell of the row.
// Rows made of th cells (headers) produce no cells and get skipped upstream.
func collectCellText(tr *html.Node) []string {
	var cells []string
	for td := range elementChildren(tr, "td") {
		cells = append(cells, strings.TrimSpace(textContent(td)))
	}
	return cells
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
