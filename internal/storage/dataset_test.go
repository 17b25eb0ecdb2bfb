package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type memoryStorage struct {
	objects   map[string]string
	downloads []string
}

func (m *memoryStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for key, body := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	return out, nil
}

func (m *memoryStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	body, ok := m.objects[key]
	if !ok {
		return fmt.Errorf("no such key %s", key)
	}
	m.downloads = append(m.downloads, key)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte(body), 0o644)
}

func TestDatasetSourceLoadsObjects(t *testing.T) {
	store := &memoryStorage{objects: map[string]string{
		"datasets/estoque.csv": "item_code,name,quantity_on_hand,unit_price\nA,Alpha,3,1.5\n",
		"sales/2025-03.csv":    "item_code,sale_date,quantity_sold\nA,2025-03-01,9\n",
		"sales/2025-04.csv":    "item_code,sale_date,quantity_sold\nA,2025-04-01,1\nA,2025-04-02,2\n",
		"sales/readme.txt":     "not a dataset",
	}}

	src := NewDatasetSource(store, "datasets/estoque.csv", "sales/", t.TempDir())

	stock, err := src.LoadStock(context.Background())
	if err != nil {
		t.Fatalf("LoadStock failed: %v", err)
	}
	if len(stock) != 1 || stock[0].ItemCode != "A" || stock[0].UnitPrice != 1.5 {
		t.Errorf("Unexpected stock %+v", stock)
	}

	sales, err := src.LoadSales(context.Background())
	if err != nil {
		t.Fatalf("LoadSales failed: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("Expected the latest sales object with 2 rows, got %d", len(sales))
	}
	if store.downloads[len(store.downloads)-1] != "sales/2025-04.csv" {
		t.Errorf("Expected latest object to be downloaded, got %v", store.downloads)
	}
}

func TestDatasetSourceEmptyPrefix(t *testing.T) {
	src := NewDatasetSource(&memoryStorage{objects: map[string]string{}}, "stock/", "sales/", t.TempDir())

	if _, err := src.LoadStock(context.Background()); err == nil {
		t.Fatal("Expected an error for an empty prefix")
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		useSSL  bool
		host    string
		wantSSL bool
	}{
		{"https://s3.example.com", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"minio:9000", false, "minio:9000", false},
		{"//s3.example.com", true, "s3.example.com", true},
	}

	for _, tt := range tests {
		host, secure := splitEndpoint(tt.in, tt.useSSL)
		if host != tt.host || secure != tt.wantSSL {
			t.Errorf("splitEndpoint(%q, %v) = %q, %v; expected %q, %v", tt.in, tt.useSSL, host, secure, tt.host, tt.wantSSL)
		}
	}
}
