package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/thabzzzzz/hardwarestorefront-sub000/metrics"
	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

const (
	// LockName scopes the import lease.
	LockName = "import:newegg"

	DefaultLockTTL    = 20 * time.Minute
	DefaultSourceName = "newegg.com"

	maxImagesPerVariant = 3
)

var (
	// ErrFileNotFound is returned when the CSV path does not exist.
	ErrFileNotFound = errors.New("import file not found")
	// ErrImportLocked is returned when another import holds the lease.
	ErrImportLocked = errors.New("another import is already running")
)

// CheckFile reports ErrFileNotFound when path does not exist, so callers can
// fail before opening a database connection.
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// Catalog runs import work atomically.
type Catalog interface {
	WithinTransaction(ctx context.Context, fn func(models.CatalogWriter) error) error
}

// Locker grants the named, time bounded import lease.
type Locker interface {
	Acquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

// Config tunes an Importer.
type Config struct {
	LockTTL  time.Duration
	Currency string
}

// Options are per run switches.
type Options struct {
	// Force proceeds even when the lease is held by someone else.
	Force bool
}

// Result summarizes a committed import.
type Result struct {
	File          string
	Rows          int
	Skipped       int
	Created       int
	Updated       int
	PricesAdded   int
	ImagesTouched int
	Rate          decimal.Decimal
	Duration      time.Duration
}

// Importer loads crawler CSV files into the catalog. A file is imported in
// one transaction: any failing row discards the whole file.
type Importer struct {
	catalog  Catalog
	locker   Locker
	rates    RateProvider
	logger   *slog.Logger
	lockTTL  time.Duration
	currency string
	owner    string
	now      func() time.Time
}

func New(catalog Catalog, locker Locker, rates RateProvider, cfg Config, logger *slog.Logger) *Importer {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.Currency == "" {
		cfg.Currency = "ZAR"
	}
	return &Importer{
		catalog:  catalog,
		locker:   locker,
		rates:    rates,
		logger:   logger,
		lockTTL:  cfg.LockTTL,
		currency: cfg.Currency,
		owner:    uuid.NewString(),
		now:      time.Now,
	}
}

// Run imports the CSV file at path.
func (im *Importer) Run(ctx context.Context, path string, opts Options) (*Result, error) {
	started := im.now()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.RecordImport(metrics.ImportNotFound, 0, 0, 0)
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	acquired, err := im.locker.Acquire(ctx, LockName, im.owner, im.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !acquired {
		if !opts.Force {
			metrics.RecordImport(metrics.ImportLocked, 0, 0, 0)
			return nil, ErrImportLocked
		}
		im.logger.Warn("import lock held elsewhere, continuing because of force", "file", path)
	}
	if acquired {
		defer func() {
			if err := im.locker.Release(context.WithoutCancel(ctx), LockName, im.owner); err != nil {
				im.logger.Error("release import lock", "error", err)
			}
		}()
	}

	rows, err := newRowReader(f)
	if err != nil {
		metrics.RecordImport(metrics.ImportFailed, 0, 0, im.now().Sub(started))
		return nil, fmt.Errorf("import %s: %w", path, err)
	}

	rate := im.rates.Rate(ctx)
	im.logger.Info("import started", "file", path, "currency", im.currency, "rate", rate.String())

	var result *Result
	err = im.catalog.WithinTransaction(ctx, func(tx models.CatalogWriter) error {
		// Counters restart if the transaction function is retried
		result = &Result{File: path, Rate: rate}
		res := newResolver(tx)
		for {
			rec, err := rows.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read row %d: %w", rows.Line()+1, err)
			}
			if err := im.importRow(ctx, tx, res, rec, rate, result); err != nil {
				return fmt.Errorf("row %d: %w", rows.Line(), err)
			}
		}
	})
	if err != nil {
		metrics.RecordImport(metrics.ImportFailed, 0, 0, im.now().Sub(started))
		im.logger.Error("import rolled back", "file", path, "error", err)
		return nil, fmt.Errorf("import %s: %w", path, err)
	}

	result.Duration = im.now().Sub(started)
	metrics.RecordImport(metrics.ImportSucceeded, result.Rows, result.PricesAdded, result.Duration)
	im.logger.Info("import committed",
		"file", path,
		"rows", result.Rows,
		"skipped", result.Skipped,
		"created", result.Created,
		"updated", result.Updated,
		"prices", result.PricesAdded,
		"duration", result.Duration)
	return result, nil
}

func (im *Importer) importRow(ctx context.Context, tx models.CatalogWriter, res *resolver, rec Record, rate decimal.Decimal, result *Result) error {
	sku := rec.Get("sku")
	mpn := rec.Get("mpn")
	if sku == "" && mpn == "" {
		result.Skipped++
		return nil
	}

	sourceID := SourceVariantID(rec.Get("source_url"))

	variant, err := res.find(ctx, mpn, sourceID, sku)
	if err != nil {
		return fmt.Errorf("match variant: %w", err)
	}

	var category *models.Category
	if name := rec.Get("category"); name != "" {
		category, err = tx.FirstOrCreateCategory(ctx, name)
		if err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
	}

	if variant == nil {
		variant, err = res.create(ctx, rec, category, sourceID)
		if err != nil {
			return err
		}
		result.Created++
	} else {
		result.Updated++
	}

	mergeScraped(variant, rec, sourceID)
	if err := tx.SaveVariant(ctx, variant); err != nil {
		return fmt.Errorf("save variant %s: %w", variant.ID, err)
	}

	if raw := rec.Get("price_raw"); raw != "" {
		if numbers := ExtractPriceNumbers(raw); len(numbers) > 0 {
			price := &models.Price{
				VariantID:   variant.ID,
				Currency:    im.currency,
				AmountCents: ConvertToCents(numbers[0], rate),
				PriceType:   models.PriceTypeRetail,
				ValidFrom:   im.now(),
			}
			if err := tx.AppendPrice(ctx, price); err != nil {
				return fmt.Errorf("append price: %w", err)
			}
			result.PricesAdded++
		}
	}

	for i, u := range variant.ImageURLs {
		if i >= maxImagesPerVariant {
			break
		}
		productID, variantID := variant.ProductID, variant.ID
		img := &models.Image{
			ProductID: &productID,
			VariantID: &variantID,
			Path:      u,
			Role:      models.ImageRoleGallery,
			SortOrder: i,
		}
		if err := tx.FirstOrCreateImage(ctx, img); err != nil {
			return fmt.Errorf("image %q: %w", u, err)
		}
		result.ImagesTouched++
	}

	result.Rows++
	return nil
}

// mergeScraped refreshes the scraped fields of a variant. A field is only
// overwritten when the row carries a value, so a degraded scrape never
// blanks good data.
func mergeScraped(v *models.ProductVariant, rec Record, sourceID string) {
	setIfPresent(&v.MPN, rec.Get("mpn"))
	setIfPresent(&v.Title, rec.Get("name"))
	setIfPresent(&v.SourceName, rec.Get("source_name"))
	if v.SourceName == nil {
		name := DefaultSourceName
		v.SourceName = &name
	}
	setIfPresent(&v.SourceURL, rec.Get("source_url"))
	if v.SourceVariantID == nil {
		v.SourceVariantID = optional(sourceID)
	}
	if t := ParseScrapedAt(rec.Get("scraped_at")); t != nil {
		v.ScrapedAt = t
	}

	if raw := rec.Get("raw_jsonld"); raw != "" {
		salvaged := SalvageJSONLD(raw)
		v.RawJSONLD = &salvaged
	}
	if raw := rec.Get("raw_spec_tables"); raw != "" {
		if tables := DecodeSpecTables(raw); tables != nil {
			v.RawSpecTables = datatypes.JSON(tables)
		} else {
			v.RawSpecTables = nil
		}
	}
	if raw := rec.Get("image_urls"); raw != "" {
		// An empty or null list keeps what is stored.
		if urls := DecodeImageURLs(raw); len(urls) > 0 {
			v.ImageURLs = datatypes.JSONSlice[string](urls)
		}
	}

	setIfPresent(&v.VramGB, NormalizeVRAM(rec.Get("vram_gb", "memory")))
	setIfPresent(&v.VramType, rec.Get("vram_type"))
	setIfPresent(&v.BusWidthBit, rec.Get("bus_width_bit"))
	setIfPresent(&v.BoostClockGHz, rec.Get("boost_clock_ghz"))
	setIfPresent(&v.TDPWatts, rec.Get("tdp_watts"))
	setIfPresent(&v.Cores, rec.Get("cores"))
	setIfPresent(&v.Threads, rec.Get("threads"))

	v.VramGBInt = ParseInteger(deref(v.VramGB))
	v.BusWidthInt = ParseInteger(deref(v.BusWidthBit))
	v.BoostClockMHz = ParseClockMHz(deref(v.BoostClockGHz))
	v.TDPWattsInt = ParseInteger(deref(v.TDPWatts))
	v.CoresInt = ParseInteger(deref(v.Cores))
	v.ThreadsInt = ParseInteger(deref(v.Threads))
}

func setIfPresent(dst **string, value string) {
	if value == "" {
		return
	}
	*dst = &value
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
