package model

import "time"

type ReceiptType string

const (
	ReceiptTypeInvoice    ReceiptType = "invoice"
	ReceiptTypeCreditNote ReceiptType = "credit_note"
)

// 番号のプレフィックス（FAC-20260901-00001 形式）
func (t ReceiptType) Prefix() string {
	switch t {
	case ReceiptTypeInvoice:
		return "FAC"
	case ReceiptTypeCreditNote:
		return "NC"
	}
	return "COM"
}

// 1注文につき必ず1枚。連番は種別ごとに独立
type Receipt struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64       `gorm:"not null;uniqueIndex" json:"order_id"`
	Type        ReceiptType `gorm:"type:varchar(20);not null;uniqueIndex:idx_receipts_type_seq,priority:1" json:"type"`
	SeqNo       int64       `gorm:"not null;uniqueIndex:idx_receipts_type_seq,priority:2" json:"seq_no"`
	Number      string      `gorm:"type:varchar(40);not null" json:"number"`
	DocumentRef string      `gorm:"type:varchar(500);not null" json:"document_ref"`
	IssuedAt    time.Time   `gorm:"not null" json:"issued_at"`
}

// 種別ごとの採番カウンタ。行ロックで取り合いを防ぐ
type ReceiptCounter struct {
	Type    string `gorm:"type:varchar(20);primaryKey"`
	NextSeq int64  `gorm:"not null"`
}
