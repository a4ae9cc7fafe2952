package services

import (
	"sort"

	"airbnb-harvester/models"
	"airbnb-harvester/normalize"
	"airbnb-harvester/utils"
)

// InsightService computes analytics over one run's stored records
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates a new InsightService
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes all run insights from the records that were reconciled
// and committed.
func (s *InsightService) Generate(records []*models.ListingRecord) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByLocation: make(map[string]int),
	}

	if len(records) == 0 {
		s.logger.Warn("No stored records to generate insights from")
		return report
	}

	var totalPrice float64
	var priced int
	var superhosts int
	amenityCounts := make(map[string]*models.AmenityCount)

	for _, rec := range records {
		report.TotalStored++

		if rec.PricePerNight != nil {
			price := *rec.PricePerNight
			totalPrice += price
			priced++
			if report.MinPrice == 0 || price < report.MinPrice {
				report.MinPrice = price
			}
			if price > report.MaxPrice {
				report.MaxPrice = price
				report.MostExpensive = rec
			}
		}

		if rec.Location != nil {
			report.ListingsByLocation[*rec.Location]++
		}
		if rec.Host.IsSuperhost {
			superhosts++
		}
		for _, name := range rec.Amenities {
			key := normalize.AmenityKey(name)
			if c, ok := amenityCounts[key]; ok {
				c.Count++
			} else {
				amenityCounts[key] = &models.AmenityCount{Name: name, Count: 1}
			}
		}
	}

	if priced > 0 {
		report.AveragePrice = totalPrice / float64(priced)
	}
	report.SuperhostShare = float64(superhosts) / float64(report.TotalStored)

	// Top 5 most common amenities
	for _, c := range amenityCounts {
		report.TopAmenities = append(report.TopAmenities, *c)
	}
	sort.Slice(report.TopAmenities, func(i, j int) bool {
		if report.TopAmenities[i].Count != report.TopAmenities[j].Count {
			return report.TopAmenities[i].Count > report.TopAmenities[j].Count
		}
		return report.TopAmenities[i].Name < report.TopAmenities[j].Name
	})
	if len(report.TopAmenities) > 5 {
		report.TopAmenities = report.TopAmenities[:5]
	}

	// Top 5 highest-rated
	rated := make([]*models.ListingRecord, 0, len(records))
	for _, rec := range records {
		if rec.Rating != nil {
			rated = append(rated, rec)
		}
	}
	sort.Slice(rated, func(i, j int) bool {
		return *rated[i].Rating > *rated[j].Rating
	})
	maxTop := 5
	if len(rated) < maxTop {
		maxTop = len(rated)
	}
	report.TopRated = rated[:maxTop]

	return report
}
