package services

import (
	"fmt"
	"sort"
	"strings"

	"airbnb-harvester/models"
)

// PrintInsightReport formats and prints the insight report to terminal
func PrintInsightReport(report *models.InsightReport) {
	border := strings.Repeat("═", 55)
	thin := strings.Repeat("─", 55)

	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║%s║\n", center("LISTING HARVEST RUN INSIGHTS ", 55))
	fmt.Printf("╚%s╝\n", border)

	fmt.Printf("\n OVERVIEW\n%s\n", thin)
	fmt.Printf("  Listings Stored         : %d\n", report.TotalStored)
	fmt.Printf("  Average Price/Night     : %.2f\n", report.AveragePrice)
	fmt.Printf("  Minimum Price/Night     : %.2f\n", report.MinPrice)
	fmt.Printf("  Maximum Price/Night     : %.2f\n", report.MaxPrice)
	fmt.Printf("  Superhost Share         : %.0f%%\n", report.SuperhostShare*100)

	if report.MostExpensive != nil && report.MostExpensive.Title != nil {
		fmt.Printf("\n MOST EXPENSIVE PROPERTY\n%s\n", thin)
		fmt.Printf("  Title    : %s\n", *report.MostExpensive.Title)
		if report.MostExpensive.PricePerNight != nil {
			fmt.Printf("  Price    : %s%.2f/night\n",
				report.MostExpensive.Currency, *report.MostExpensive.PricePerNight)
		}
		if report.MostExpensive.Location != nil {
			fmt.Printf("  Location : %s\n", *report.MostExpensive.Location)
		}
		fmt.Printf("  URL      : %s\n", report.MostExpensive.URL)
	}

	if len(report.ListingsByLocation) > 0 {
		fmt.Printf("\n LISTINGS PER LOCATION\n%s\n", thin)
		// Sort by count descending
		type locCount struct {
			loc   string
			count int
		}
		var locs []locCount
		for loc, cnt := range report.ListingsByLocation {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			return locs[i].count > locs[j].count
		})
		for _, lc := range locs {
			bar := strings.Repeat("▓", lc.count)
			fmt.Printf("  %-25s %3d  %s\n", lc.loc+":", lc.count, bar)
		}
	}

	if len(report.TopAmenities) > 0 {
		fmt.Printf("\n TOP %d AMENITIES\n%s\n", len(report.TopAmenities), thin)
		for i, a := range report.TopAmenities {
			fmt.Printf("  %d. %-25s %3d listings\n", i+1, a.Name, a.Count)
		}
	}

	if len(report.TopRated) > 0 {
		fmt.Printf("\n TOP %d HIGHEST RATED PROPERTIES\n%s\n", len(report.TopRated), thin)
		for i, rec := range report.TopRated {
			title := rec.URL
			if rec.Title != nil {
				title = *rec.Title
			}
			fmt.Printf("  %d. %-35s %.2f \n", i+1, truncate(title, 35), *rec.Rating)
		}
	}

	fmt.Printf("\n%s\n\n", border)
}

func center(s string, width int) string {
	// Account for possible emoji width
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
