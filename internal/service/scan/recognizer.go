package scan

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

// Capture is what the camera hands over: a reference to the captured image.
type Capture struct {
	ImageRef string `json:"imageRef"`
}

// Recognition is the product data read from a capture.
type Recognition struct {
	Name       string     `json:"name"`
	Price      string     `json:"price"`
	ExpiryDate civil.Date `json:"expiryDate"`
}

// Recognizer turns a captured image into product data.
type Recognizer interface {
	Recognize(ctx context.Context, capture Capture) (Recognition, error)
}

type catalogEntry struct {
	name          string
	price         string
	shelfLifeDays int
}

var defaultCatalog = []catalogEntry{
	{name: "Fresh Milk", price: "$3.49", shelfLifeDays: 2},
	{name: "Whole Wheat Bread", price: "$2.99", shelfLifeDays: 5},
	{name: "Greek Yogurt", price: "$4.29", shelfLifeDays: 10},
	{name: "Free Range Eggs", price: "$5.19", shelfLifeDays: 21},
	{name: "Baby Spinach", price: "$3.99", shelfLifeDays: 4},
	{name: "Cheddar Cheese", price: "$6.49", shelfLifeDays: 30},
}

// CatalogRecognizer stands in for real image recognition. The same image reference
// always yields the same catalog item, dated relative to the capture day.
type CatalogRecognizer struct {
	catalog []catalogEntry
	loc     *time.Location
	now     func() time.Time
}

func NewCatalogRecognizer(loc *time.Location, now func() time.Time) *CatalogRecognizer {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &CatalogRecognizer{
		catalog: defaultCatalog,
		loc:     loc,
		now:     now,
	}
}

func (r *CatalogRecognizer) Recognize(_ context.Context, capture Capture) (Recognition, error) {
	ref := strings.TrimSpace(capture.ImageRef)
	if ref == "" {
		return Recognition{}, fmt.Errorf("%w: empty image reference", domain.ErrCaptureFailure)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(ref))
	entry := r.catalog[h.Sum32()%uint32(len(r.catalog))]

	captured := civil.DateOf(r.now().In(r.loc))

	return Recognition{
		Name:       entry.name,
		Price:      entry.price,
		ExpiryDate: captured.AddDays(entry.shelfLifeDays),
	}, nil
}
