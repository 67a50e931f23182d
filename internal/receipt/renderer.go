package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smartsales/internal/domain/model"
)

// 帳票のもとになる注文スナップショット
type Document struct {
	Number          string
	OrderID         int64
	IssuedAt        time.Time
	Total           int64
	DeliveryAddress string
	Lines           []DocumentLine
}

type DocumentLine struct {
	ProductName string
	Quantity    int64
	UnitPrice   int64
}

// 帳票のレンダリングは外部コラボレータ
// 同じ注文スナップショットからは必ず同じ内容になる
type Renderer interface {
	Render(ctx context.Context, doc Document) (documentRef string, err error)
}

// FileRenderer は帳票をテキストで書き出す簡易実装
type FileRenderer struct {
	dir string
}

func NewFileRenderer(dir string) *FileRenderer {
	return &FileRenderer{dir: dir}
}

func (r *FileRenderer) Render(ctx context.Context, doc Document) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COMPROBANTE %s\n", doc.Number)
	fmt.Fprintf(&b, "Order: %d\n", doc.OrderID)
	fmt.Fprintf(&b, "Issued: %s\n", doc.IssuedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Deliver to: %s\n\n", doc.DeliveryAddress)
	for _, ln := range doc.Lines {
		fmt.Fprintf(&b, "%-40s x%-4d %10.2f\n", ln.ProductName, ln.Quantity, float64(ln.UnitPrice)/100)
	}
	fmt.Fprintf(&b, "\nTOTAL: %.2f\n", float64(doc.Total)/100)

	path := filepath.Join(r.dir, fmt.Sprintf("%s.txt", doc.Number))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

var _ Renderer = (*FileRenderer)(nil)

// 注文スナップショットから帳票データを組み立てる
func BuildDocument(number string, order model.Order, items []model.OrderItem, issuedAt time.Time) Document {
	lines := make([]DocumentLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, DocumentLine{
			ProductName: it.ProductNameSnapshot,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPriceSnapshot,
		})
	}
	return Document{
		Number:          number,
		OrderID:         order.ID,
		IssuedAt:        issuedAt,
		Total:           order.TotalPrice,
		DeliveryAddress: order.DeliveryAddress,
		Lines:           lines,
	}
}
