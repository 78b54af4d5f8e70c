package services

import (
	"errors"
	"fmt"
	"time"

	"resto_ops_backend/internal/models"
	"resto_ops_backend/internal/repositories"
)

// consumptionWindowDays is the fixed lookback window for consumption-rate
// projections.
const consumptionWindowDays = 30

// --- Data Transfer Objects (DTOs) ---

// ItemInventoryStats is the per-item consumption projection. A missing record
// yields the zeroed shape with Exists=false so dashboards render "no data"
// uniformly instead of handling an error.
type ItemInventoryStats struct {
	Exists               bool    `json:"exists"`
	RecordID             int64   `json:"record_id"`
	ItemRef              int64   `json:"item_ref"`
	ItemName             string  `json:"item_name"`
	TotalStock           int     `json:"total_stock"`
	AvailableStock       int     `json:"available_stock"`
	WindowDays           int     `json:"window_days"`
	TotalConsumed        int     `json:"total_consumed"`
	DailyConsumptionRate float64 `json:"daily_consumption_rate"`
	// EstimatedDaysLeft is -1 with Unlimited=true when nothing was consumed
	// in the window.
	EstimatedDaysLeft float64 `json:"estimated_days_left"`
	Unlimited         bool    `json:"unlimited"`
}

// HealthBucketItem is one record's summary inside a health bucket.
type HealthBucketItem struct {
	RecordID       int64  `json:"record_id"`
	ItemRef        int64  `json:"item_ref"`
	ItemName       string `json:"item_name"`
	TotalStock     int    `json:"total_stock"`
	AvailableStock int    `json:"available_stock"`
	MinStockAlert  int    `json:"min_stock_alert"`
	IsSoldOut      bool   `json:"is_sold_out"`
}

// InventoryHealthReport buckets every tracked record by stock condition.
type InventoryHealthReport struct {
	Total        int                `json:"total"`
	NeedsRestock []HealthBucketItem `json:"needs_restock"`
	Critical     []HealthBucketItem `json:"critical"`
	SoldOut      []HealthBucketItem `json:"sold_out"`
	Healthy      []HealthBucketItem `json:"healthy"`
}

// StockChangeSummary aggregates ledger entries by change type over a period.
type StockChangeSummary struct {
	From          time.Time                        `json:"from"`
	To            time.Time                        `json:"to"`
	ByChangeType  []repositories.ChangeTypeSummary `json:"by_change_type"`
	TotalIncrease int                              `json:"total_increase"`
	TotalDecrease int                              `json:"total_decrease"`
}

// --- StockStatsService Interface ---

// StockStatsService is the read-only aggregation layer over inventory records
// and the stock ledger. It never mutates either store.
type StockStatsService interface {
	GetInventoryLogs(storeID int64, filters models.LedgerFilters) ([]models.StockLedgerEntry, int, error)
	GetItemInventoryStats(storeID, templateID int64) (*ItemInventoryStats, error)
	GetInventoryHealthReport(storeID int64, filters models.InventoryFilters) (*InventoryHealthReport, error)
	GetStockChangeSummary(storeID int64, period string, filters models.LedgerFilters) (*StockChangeSummary, error)
}

type stockStatsService struct {
	inventoryRepo repositories.InventoryRepository
	ledgerRepo    repositories.StockLedgerRepository
}

// NewStockStatsService creates a new instance of StockStatsService.
func NewStockStatsService(
	ir repositories.InventoryRepository,
	lr repositories.StockLedgerRepository,
) StockStatsService {
	return &stockStatsService{
		inventoryRepo: ir,
		ledgerRepo:    lr,
	}
}

// --- Method Implementations ---

// parseDateBound accepts YYYY-MM-DD or RFC3339 values.
func parseDateBound(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

func (s *stockStatsService) GetInventoryLogs(storeID int64, filters models.LedgerFilters) ([]models.StockLedgerEntry, int, error) {
	var from, to *time.Time
	if filters.DateFrom != nil && *filters.DateFrom != "" {
		t, err := parseDateBound(*filters.DateFrom)
		if err != nil {
			return nil, 0, err
		}
		from = &t
	}
	if filters.DateTo != nil && *filters.DateTo != "" {
		t, err := parseDateBound(*filters.DateTo)
		if err != nil {
			return nil, 0, err
		}
		// An end date without a time component means "through that day".
		if len(*filters.DateTo) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = &t
	}

	entries, totalCount, err := s.ledgerRepo.GetEntries(storeID, filters, from, to)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory logs: %w", err)
	}
	return entries, totalCount, nil
}

func (s *stockStatsService) GetItemInventoryStats(storeID, templateID int64) (*ItemInventoryStats, error) {
	stats := &ItemInventoryStats{
		ItemRef:           templateID,
		WindowDays:        consumptionWindowDays,
		EstimatedDaysLeft: -1,
		Unlimited:         true,
	}

	rec, err := s.inventoryRepo.GetRecordByDishTemplate(storeID, templateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return stats, nil
		}
		return nil, fmt.Errorf("failed to fetch inventory record for stats: %w", err)
	}

	stats.Exists = true
	stats.RecordID = rec.ID
	stats.ItemName = rec.ItemName
	stats.TotalStock = rec.TotalStock
	stats.AvailableStock = rec.AvailableStock

	since := time.Now().AddDate(0, 0, -consumptionWindowDays)
	consumed, err := s.ledgerRepo.SumConsumedSince(storeID, rec.ItemRef, rec.InventoryType, since)
	if err != nil {
		return nil, fmt.Errorf("failed to sum consumption: %w", err)
	}

	stats.TotalConsumed = consumed
	stats.DailyConsumptionRate = float64(consumed) / float64(consumptionWindowDays)
	if stats.DailyConsumptionRate > 0 {
		stats.Unlimited = false
		stats.EstimatedDaysLeft = float64(rec.GatingStock()) / stats.DailyConsumptionRate
	}
	return stats, nil
}

func (s *stockStatsService) GetInventoryHealthReport(storeID int64, filters models.InventoryFilters) (*InventoryHealthReport, error) {
	report := &InventoryHealthReport{
		NeedsRestock: []HealthBucketItem{},
		Critical:     []HealthBucketItem{},
		SoldOut:      []HealthBucketItem{},
		Healthy:      []HealthBucketItem{},
	}

	// Page through every record; the report is fleet-wide by definition.
	filters.Page = 1
	if filters.PageSize < 1 {
		filters.PageSize = 500
	}
	for {
		records, totalCount, err := s.inventoryRepo.ListRecords(storeID, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list inventory records for health report: %w", err)
		}
		for _, rec := range records {
			if !rec.IsInventoryTracked {
				continue
			}
			report.Total++
			item := HealthBucketItem{
				RecordID:       rec.ID,
				ItemRef:        rec.ItemRef,
				ItemName:       rec.ItemName,
				TotalStock:     rec.TotalStock,
				AvailableStock: rec.AvailableStock,
				MinStockAlert:  rec.MinStockAlert,
				IsSoldOut:      rec.IsSoldOut,
			}
			stock := rec.GatingStock()
			switch {
			case rec.IsSoldOut:
				report.SoldOut = append(report.SoldOut, item)
			case stock == 0:
				report.Critical = append(report.Critical, item)
			case rec.MinStockAlert > 0 && stock <= rec.MinStockAlert:
				report.NeedsRestock = append(report.NeedsRestock, item)
			default:
				report.Healthy = append(report.Healthy, item)
			}
		}
		if filters.Page*filters.PageSize >= totalCount || len(records) == 0 {
			break
		}
		filters.Page++
	}
	return report, nil
}

func (s *stockStatsService) GetStockChangeSummary(storeID int64, period string, filters models.LedgerFilters) (*StockChangeSummary, error) {
	now := time.Now()
	var from, to time.Time

	if filters.DateFrom != nil && *filters.DateFrom != "" {
		t, err := parseDateBound(*filters.DateFrom)
		if err != nil {
			return nil, err
		}
		from = t
		to = now
		if filters.DateTo != nil && *filters.DateTo != "" {
			t, err := parseDateBound(*filters.DateTo)
			if err != nil {
				return nil, err
			}
			if len(*filters.DateTo) == len("2006-01-02") {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			to = t
		}
	} else {
		days := 0
		switch period {
		case "", "7d":
			days = 7
		case "30d":
			days = 30
		case "90d":
			days = 90
		default:
			return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidDate, period)
		}
		to = now
		from = now.AddDate(0, 0, -days)
	}

	summaries, err := s.ledgerRepo.SummarizeByChangeType(storeID, from, to, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize stock changes: %w", err)
	}

	result := &StockChangeSummary{From: from, To: to, ByChangeType: summaries}
	for _, summary := range summaries {
		result.TotalIncrease += summary.Increases
		result.TotalDecrease += summary.Decreases
	}
	return result, nil
}
