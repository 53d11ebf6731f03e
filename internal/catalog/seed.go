package catalog

import (
	"fmt"
	"os"

	"cart-pricing-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// DefaultSeed is the sample catalog served when no seed file is configured.
func DefaultSeed() []domain.ProductRecord {
	return []domain.ProductRecord{
		{Kind: "electronic", Title: "Noise Smartwatch", Price: 2499, Rating: 4.2, Category: "electronics"},
		{Kind: "electronic", Title: "USB-C Hub 7-in-1", Price: 1599, Rating: 4.0, Category: "electronics"},
		{Kind: "book", Title: "Clean Code", Price: 589, Rating: 4.7, Category: "books"},
		{Kind: "book", Title: "Atomic Habits", Price: 399, Rating: 4.6, Category: "books"},
		{Kind: "clothing", Title: "Classic Tee - Navy", Price: 699, Rating: 4.1, Category: "clothing"},
		{Kind: "clothing", Title: "Hoodie - Charcoal", Price: 1299, Rating: 4.4, Category: "clothing"},
		{Kind: "electronic", Title: "Bluetooth Speaker", Price: 1499, Rating: 4.1, Category: "electronics"},
		{Kind: "book", Title: "The Pragmatic Programmer", Price: 675, Rating: 4.8, Category: "books"},
	}
}

// ParseSeed decodes a YAML (or JSON) list of product records.
func ParseSeed(data []byte) ([]domain.ProductRecord, error) {
	var records []domain.ProductRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse seed: %w", err)
	}
	return records, nil
}

// LoadSeedFile reads the seed records at path.
func LoadSeedFile(path string) ([]domain.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read seed file %s: %w", path, err)
	}
	return ParseSeed(data)
}
